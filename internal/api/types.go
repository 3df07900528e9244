package api

import (
	"github.com/shopspring/decimal"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
)

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool `json:"success"`
}

type MeResponse struct {
	Authenticated bool `json:"authenticated"`
}

type AutomationRequest struct {
	SkipNext bool `json:"skipNext"`
}

// SendRequest covers both /receipts/send and /receipts/preview.
// Email and Force are ignored by preview.
type SendRequest struct {
	Email      string          `json:"email"`
	TenantName string          `json:"tenantName"`
	Address    string          `json:"address"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
	Force      bool            `json:"force,omitempty"`
}

type SendResponse struct {
	Success bool           `json:"success"`
	Receipt domain.Receipt `json:"receipt"`
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
