package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

// Config holds the Resend sender configuration.
type Config struct {
	APIKey string
	From   string // e.g. "Quittance Express <onboarding@resend.dev>"
	BCC    []string
}

// ResendSender delivers receipts via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	bcc    []string
}

// NewResend returns a Sender backed by Resend. An empty API key is
// accepted here; Send reports it as a delivery error so the caller
// decides how to surface the misconfiguration.
func NewResend(cfg Config) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(cfg.APIKey),
		from:   cfg.From,
		bcc:    cfg.BCC,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) (Result, error) {
	if s.from == "" {
		return Result{}, fmt.Errorf("mail: sender address not configured")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Bcc:     s.bcc,
		Subject: fmt.Sprintf("Quittance de loyer - %s", msg.Period),
		Html:    bodyHTML(msg.TenantName, msg.Period),
		Attachments: []*resend.Attachment{
			{
				Filename:    AttachmentName(msg.Period),
				Content:     msg.PDF,
				ContentType: "application/pdf",
			},
		},
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("mail: send via resend: %w", err)
	}
	return Result{ID: sent.Id}, nil
}

// AttachmentName builds the PDF filename, e.g. "quittance-Janvier_2026.pdf".
func AttachmentName(period string) string {
	return fmt.Sprintf("quittance-%s.pdf", strings.ReplaceAll(period, " ", "_"))
}

func bodyHTML(tenantName, period string) string {
	return fmt.Sprintf(`<p>Bonjour %s,</p>
<p>Veuillez trouver ci-joint votre quittance de loyer pour la période <strong>%s</strong>.</p>
<p>Cordialement,</p>`, tenantName, period)
}
