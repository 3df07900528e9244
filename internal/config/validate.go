package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate checks the configuration for errors.
// Returns nil if valid, or ValidationErrors if invalid.
func Validate(cfg Config) error {
	var errs ValidationErrors

	if cfg.AdminPassword == "" {
		errs = append(errs, ValidationError{
			Field:   "ADMIN_PASSWORD",
			Message: "required",
		})
	}
	if cfg.SessionSecret == "" {
		errs = append(errs, ValidationError{
			Field:   "SESSION_SECRET",
			Message: "required",
		})
	} else if len(cfg.SessionSecret) < 16 {
		errs = append(errs, ValidationError{
			Field:   "SESSION_SECRET",
			Message: "must be at least 16 characters",
		})
	}

	errs = appendDurationErrors(errs, "SESSION_TTL", cfg.SessionTTLStr)
	errs = appendDurationErrors(errs, "RUN_TIMEOUT", cfg.RunTimeoutStr)
	errs = appendDurationErrors(errs, "LOCK_TTL", cfg.LockTTLStr)
	errs = appendDurationErrors(errs, "HTTP_SHUTDOWN_TIMEOUT", cfg.HTTPShutdownTimeoutStr)
	errs = appendDurationErrors(errs, "STORE_OP_TIMEOUT", cfg.StoreOpTimeoutStr)

	if _, err := cron.ParseStandard(cfg.CronExpression); err != nil {
		errs = append(errs, ValidationError{
			Field:   "CRON_EXPRESSION",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	errs = appendAmountErrors(errs, "RENT_AMOUNT", cfg.RentAmountStr, false)
	errs = appendAmountErrors(errs, "RENT_BREAKDOWN_TOTAL", cfg.BreakdownTotalStr, true)
	errs = appendAmountErrors(errs, "RENT_BREAKDOWN_RENT", cfg.BreakdownRentStr, true)
	errs = appendAmountErrors(errs, "RENT_BREAKDOWN_CHARGES", cfg.BreakdownChargesStr, true)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func appendDurationErrors(errs ValidationErrors, field, value string) ValidationErrors {
	if value == "" {
		return errs
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid duration: %v", err),
		})
	}
	if d <= 0 {
		return append(errs, ValidationError{
			Field:   field,
			Message: "must be positive",
		})
	}
	return errs
}

func appendAmountErrors(errs ValidationErrors, field, value string, required bool) ValidationErrors {
	if value == "" {
		if required {
			return append(errs, ValidationError{Field: field, Message: "required"})
		}
		return errs
	}
	a, err := decimal.NewFromString(value)
	if err != nil {
		return append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid amount: %v", err),
		})
	}
	if a.IsNegative() {
		return append(errs, ValidationError{
			Field:   field,
			Message: "must not be negative",
		})
	}
	return errs
}
