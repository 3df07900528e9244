// Package mail delivers the rendered receipt to the tenant through a
// transactional email provider.
package mail

import "context"

// Message is one outbound receipt email. BCC recipients come from the
// sender's configuration, not the message.
type Message struct {
	To         string
	TenantName string
	Period     string
	PDF        []byte
}

// Result reports a successful delivery.
type Result struct {
	// ID is the provider's message reference, recorded on the receipt.
	ID string
}

// Sender is the interface the issuance workflow sends through.
// Tests inject a stub that records calls without hitting the network.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}
