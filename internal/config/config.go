package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the quittanced application.
// Values are loaded from environment variables; see printUsage() for the full list.
type Config struct {
	AdminPassword string `json:"admin_password"`
	SessionSecret string `json:"session_secret"`

	SessionTTL    time.Duration `json:"-"`
	SessionTTLStr string        `json:"session_ttl"`

	CookieSecure bool `json:"cookie_secure"`

	TenantName      string `json:"tenant_name"`
	TenantEmail     string `json:"tenant_email"`
	PropertyAddress string `json:"property_address"`

	RentAmount    decimal.Decimal `json:"-"`
	RentAmountStr string          `json:"rent_amount"`

	OwnerName string `json:"owner_name"`
	City      string `json:"city"`

	BreakdownTotal      decimal.Decimal `json:"-"`
	BreakdownTotalStr   string          `json:"rent_breakdown_total"`
	BreakdownRent       decimal.Decimal `json:"-"`
	BreakdownRentStr    string          `json:"rent_breakdown_rent"`
	BreakdownCharges    decimal.Decimal `json:"-"`
	BreakdownChargesStr string          `json:"rent_breakdown_charges"`
	AmountInWords       string          `json:"rent_amount_in_words"`

	ResendAPIKey string   `json:"resend_api_key"`
	MailFrom     string   `json:"mail_from"`
	MailBCC      []string `json:"mail_bcc,omitempty"`

	RedisAddr   string `json:"redis_addr,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`

	CronExpression string `json:"cron_expression"`

	RunTimeout    time.Duration `json:"-"`
	RunTimeoutStr string        `json:"run_timeout"`

	LockTTL    time.Duration `json:"-"`
	LockTTLStr string        `json:"lock_ttl"`

	HTTPAddr string `json:"http_addr"`

	HTTPShutdownTimeout    time.Duration `json:"-"`
	HTTPShutdownTimeoutStr string        `json:"http_shutdown_timeout"`

	StoreOpTimeout    time.Duration `json:"-"`
	StoreOpTimeoutStr string        `json:"store_op_timeout"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsPath    string `json:"metrics_path"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Config{
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:          os.Getenv("SESSION_SECRET"),
		SessionTTLStr:          os.Getenv("SESSION_TTL"),
		TenantName:             os.Getenv("TENANT_NAME"),
		TenantEmail:            os.Getenv("TENANT_EMAIL"),
		PropertyAddress:        os.Getenv("PROPERTY_ADDRESS"),
		RentAmountStr:          os.Getenv("RENT_AMOUNT"),
		OwnerName:              os.Getenv("OWNER_NAME"),
		City:                   os.Getenv("CITY"),
		BreakdownTotalStr:      os.Getenv("RENT_BREAKDOWN_TOTAL"),
		BreakdownRentStr:       os.Getenv("RENT_BREAKDOWN_RENT"),
		BreakdownChargesStr:    os.Getenv("RENT_BREAKDOWN_CHARGES"),
		AmountInWords:          os.Getenv("RENT_AMOUNT_IN_WORDS"),
		ResendAPIKey:           os.Getenv("RESEND_API_KEY"),
		MailFrom:               os.Getenv("MAIL_FROM"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		CronExpression:         os.Getenv("CRON_EXPRESSION"),
		RunTimeoutStr:          os.Getenv("RUN_TIMEOUT"),
		LockTTLStr:             os.Getenv("LOCK_TTL"),
		HTTPAddr:               os.Getenv("HTTP_ADDR"),
		HTTPShutdownTimeoutStr: os.Getenv("HTTP_SHUTDOWN_TIMEOUT"),
		StoreOpTimeoutStr:      os.Getenv("STORE_OP_TIMEOUT"),
		MetricsEnabled:         os.Getenv("METRICS_ENABLED") == "true",
		MetricsPath:            os.Getenv("METRICS_PATH"),
	}

	// COOKIE_SECURE defaults to true; only an explicit "false" disables it.
	cfg.CookieSecure = os.Getenv("COOKIE_SECURE") != "false"

	if bcc := os.Getenv("MAIL_BCC"); bcc != "" {
		for _, addr := range strings.Split(bcc, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				cfg.MailBCC = append(cfg.MailBCC, addr)
			}
		}
	}

	// Support Railway's PORT variable as fallback for HTTP_ADDR.
	if cfg.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		} else {
			cfg.HTTPAddr = ":8080"
		}
	}
	if cfg.SessionTTLStr == "" {
		cfg.SessionTTLStr = "168h"
	}
	if cfg.OwnerName == "" {
		cfg.OwnerName = "Anne Funfschilling"
	}
	if cfg.City == "" {
		cfg.City = "Tours"
	}
	if cfg.BreakdownTotalStr == "" {
		cfg.BreakdownTotalStr = "715"
	}
	if cfg.BreakdownRentStr == "" {
		cfg.BreakdownRentStr = "670"
	}
	if cfg.BreakdownChargesStr == "" {
		cfg.BreakdownChargesStr = "45"
	}
	if cfg.AmountInWords == "" {
		cfg.AmountInWords = "Sept cent quinze euros"
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = "Quittance Express <onboarding@resend.dev>"
	}
	if cfg.CronExpression == "" {
		cfg.CronExpression = "0 10 8 * *"
	}
	if cfg.RunTimeoutStr == "" {
		cfg.RunTimeoutStr = "2m"
	}
	if cfg.LockTTLStr == "" {
		cfg.LockTTLStr = "5m"
	}
	if cfg.HTTPShutdownTimeoutStr == "" {
		cfg.HTTPShutdownTimeoutStr = "10s"
	}
	if cfg.StoreOpTimeoutStr == "" {
		cfg.StoreOpTimeoutStr = "5s"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	// Parse durations and amounts; validation is handled separately by Validate().
	if d, err := time.ParseDuration(cfg.SessionTTLStr); err == nil {
		cfg.SessionTTL = d
	}
	if d, err := time.ParseDuration(cfg.RunTimeoutStr); err == nil {
		cfg.RunTimeout = d
	}
	if d, err := time.ParseDuration(cfg.LockTTLStr); err == nil {
		cfg.LockTTL = d
	}
	if d, err := time.ParseDuration(cfg.HTTPShutdownTimeoutStr); err == nil {
		cfg.HTTPShutdownTimeout = d
	}
	if d, err := time.ParseDuration(cfg.StoreOpTimeoutStr); err == nil {
		cfg.StoreOpTimeout = d
	}
	if cfg.RentAmountStr != "" {
		if a, err := decimal.NewFromString(cfg.RentAmountStr); err == nil {
			cfg.RentAmount = a
		}
	}
	if a, err := decimal.NewFromString(cfg.BreakdownTotalStr); err == nil {
		cfg.BreakdownTotal = a
	}
	if a, err := decimal.NewFromString(cfg.BreakdownRentStr); err == nil {
		cfg.BreakdownRent = a
	}
	if a, err := decimal.NewFromString(cfg.BreakdownChargesStr); err == nil {
		cfg.BreakdownCharges = a
	}

	return cfg
}

// MaskedJSON returns the configuration as JSON with secrets masked.
func (c Config) MaskedJSON() ([]byte, error) {
	masked := struct {
		AdminPassword       string   `json:"admin_password"`
		SessionSecret       string   `json:"session_secret"`
		SessionTTL          string   `json:"session_ttl"`
		CookieSecure        bool     `json:"cookie_secure"`
		TenantName          string   `json:"tenant_name"`
		TenantEmail         string   `json:"tenant_email"`
		PropertyAddress     string   `json:"property_address"`
		RentAmount          string   `json:"rent_amount"`
		OwnerName           string   `json:"owner_name"`
		City                string   `json:"city"`
		BreakdownTotal      string   `json:"rent_breakdown_total"`
		BreakdownRent       string   `json:"rent_breakdown_rent"`
		BreakdownCharges    string   `json:"rent_breakdown_charges"`
		AmountInWords       string   `json:"rent_amount_in_words"`
		ResendAPIKey        string   `json:"resend_api_key"`
		MailFrom            string   `json:"mail_from"`
		MailBCC             []string `json:"mail_bcc,omitempty"`
		RedisAddr           string   `json:"redis_addr,omitempty"`
		DatabaseURL         string   `json:"database_url,omitempty"`
		CronExpression      string   `json:"cron_expression"`
		RunTimeout          string   `json:"run_timeout"`
		LockTTL             string   `json:"lock_ttl"`
		HTTPAddr            string   `json:"http_addr"`
		HTTPShutdownTimeout string   `json:"http_shutdown_timeout"`
		StoreOpTimeout      string   `json:"store_op_timeout"`
		MetricsEnabled      bool     `json:"metrics_enabled"`
		MetricsPath         string   `json:"metrics_path"`
	}{
		AdminPassword:       maskSecret(c.AdminPassword),
		SessionSecret:       maskSecret(c.SessionSecret),
		SessionTTL:          c.SessionTTLStr,
		CookieSecure:        c.CookieSecure,
		TenantName:          c.TenantName,
		TenantEmail:         c.TenantEmail,
		PropertyAddress:     c.PropertyAddress,
		RentAmount:          c.RentAmountStr,
		OwnerName:           c.OwnerName,
		City:                c.City,
		BreakdownTotal:      c.BreakdownTotalStr,
		BreakdownRent:       c.BreakdownRentStr,
		BreakdownCharges:    c.BreakdownChargesStr,
		AmountInWords:       c.AmountInWords,
		ResendAPIKey:        maskSecret(c.ResendAPIKey),
		MailFrom:            c.MailFrom,
		MailBCC:             c.MailBCC,
		RedisAddr:           c.RedisAddr,
		DatabaseURL:         maskSecret(c.DatabaseURL),
		CronExpression:      c.CronExpression,
		RunTimeout:          c.RunTimeoutStr,
		LockTTL:             c.LockTTLStr,
		HTTPAddr:            c.HTTPAddr,
		HTTPShutdownTimeout: c.HTTPShutdownTimeoutStr,
		StoreOpTimeout:      c.StoreOpTimeoutStr,
		MetricsEnabled:      c.MetricsEnabled,
		MetricsPath:         c.MetricsPath,
	}
	return json.MarshalIndent(masked, "", "  ")
}

// maskSecret masks a secret value, preserving only the URI scheme if present.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(s, scheme) {
			return scheme + "***"
		}
	}
	return "***"
}
