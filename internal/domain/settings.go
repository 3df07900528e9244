package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Settings holds the tenant data the scheduled job issues receipts
// from. Supplied by configuration; read-only from the workflow's side.
type Settings struct {
	TenantName string
	Email      string
	Address    string
	Amount     decimal.Decimal
}

// Validate checks that the fields required for an automated send are
// present. It names every missing field so the operator can fix the
// environment in one pass.
func (s Settings) Validate() error {
	var missing []string
	if s.TenantName == "" {
		missing = append(missing, "tenant name")
	}
	if s.Email == "" {
		missing = append(missing, "tenant email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("settings incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
