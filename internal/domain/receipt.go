package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status records how a receipt left the system. The "(Auto)" variants
// mark receipts issued by the scheduled job rather than an operator.
type Status string

const (
	StatusSent       Status = "Sent"
	StatusSentAuto   Status = "Sent (Auto)"
	StatusFailed     Status = "Failed"
	StatusFailedAuto Status = "Failed (Auto)"
)

// IsSent reports whether the receipt was actually delivered.
// Persisted history may contain Failed entries; those do not count
// toward the one-sent-receipt-per-period invariant.
func (s Status) IsSent() bool {
	return strings.Contains(string(s), "Sent")
}

// Receipt is one issued rent receipt. Receipts are immutable once
// created: they are prepended to the history and never edited.
type Receipt struct {
	ID         string          `json:"id"`
	Date       time.Time       `json:"date"`
	TenantName string          `json:"tenantName"`
	Period     string          `json:"period"`
	Amount     decimal.Decimal `json:"amount"`
	Status     Status          `json:"status"`
	EmailID    string          `json:"emailId"`
}

// NewReceiptID derives a receipt ID from its issue time.
func NewReceiptID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// AutomationStatus is the singleton skip flag. SkipNext causes exactly
// one scheduled run to no-op; the run resets it to false.
type AutomationStatus struct {
	SkipNext bool `json:"skipNext"`
}

// Document is the single persisted JSON document. The store reads and
// writes it whole; callers read, mutate in memory, then save.
type Document struct {
	Receipts   []Receipt        `json:"receipts"`
	Automation AutomationStatus `json:"automationStatus"`
}

// DefaultDocument is the empty document used when the backend is
// unreachable or holds nothing yet.
func DefaultDocument() Document {
	return Document{Receipts: []Receipt{}}
}

// Prepend inserts a receipt at the front of the history.
func (d *Document) Prepend(r Receipt) {
	d.Receipts = append([]Receipt{r}, d.Receipts...)
}

// SentFor reports whether a receipt with a Sent status already exists
// for the given period label.
func (d *Document) SentFor(period string) bool {
	for _, r := range d.Receipts {
		if r.Period == period && r.Status.IsSent() {
			return true
		}
	}
	return false
}
