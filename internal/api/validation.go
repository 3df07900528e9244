package api

import (
	"fmt"
	"net/mail"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
)

func validateSend(req SendRequest) error {
	if req.Email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	return validatePreview(req)
}

// validatePreview checks the fields both preview and send need.
func validatePreview(req SendRequest) error {
	if req.TenantName == "" {
		return fmt.Errorf("tenantName is required")
	}
	if req.Period == "" {
		return fmt.Errorf("period is required")
	}
	if _, err := domain.ParsePeriod(req.Period); err != nil {
		return fmt.Errorf("invalid period: %w", err)
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}
