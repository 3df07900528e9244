package main

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mathieuventurini/QuittanceOnClick/internal/config"
)

// captureLogOutput calls logConfigWarnings with the given config and returns
// the captured log output as a string.
func captureLogOutput(cfg *config.Config) string {
	var buf bytes.Buffer
	original := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(original)

	logConfigWarnings(cfg)
	return buf.String()
}

func completeConfig() *config.Config {
	return &config.Config{
		ResendAPIKey:   "re_test",
		TenantName:     "Justine Chartrain",
		TenantEmail:    "justine@example.com",
		RentAmount:     decimal.NewFromInt(715),
		RedisAddr:      "localhost:6379",
		CookieSecure:   true,
		MetricsEnabled: true,
	}
}

func TestLogConfigWarnings_CompleteConfigIsQuiet(t *testing.T) {
	output := captureLogOutput(completeConfig())

	if strings.Contains(output, "WARNING") {
		t.Error("did not expect any warnings, got:", output)
	}
	if strings.Contains(output, "INFO") {
		t.Error("did not expect any INFO messages, got:", output)
	}
}

func TestLogConfigWarnings_MissingAPIKey(t *testing.T) {
	cfg := completeConfig()
	cfg.ResendAPIKey = ""
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "WARNING: RESEND_API_KEY not set") {
		t.Error("expected delivery warning, got:", output)
	}
}

func TestLogConfigWarnings_IncompleteSettings(t *testing.T) {
	cfg := completeConfig()
	cfg.TenantEmail = ""
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "scheduled runs will refuse") {
		t.Error("expected settings warning, got:", output)
	}
	if !strings.Contains(output, "tenant email") {
		t.Error("warning should name the missing field, got:", output)
	}
}

func TestLogConfigWarnings_PostgresWithoutRedis(t *testing.T) {
	cfg := completeConfig()
	cfg.RedisAddr = ""
	cfg.DatabaseURL = "postgres://localhost/quittance"
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "INFO: REDIS_ADDR not set; scheduled-run lock disabled") {
		t.Error("expected lock INFO, got:", output)
	}
	if strings.Contains(output, "in-memory") {
		t.Error("did not expect in-memory warning with a database configured, got:", output)
	}
}

func TestLogConfigWarnings_NoBackend(t *testing.T) {
	cfg := completeConfig()
	cfg.RedisAddr = ""
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "WARNING: no REDIS_ADDR or DATABASE_URL") {
		t.Error("expected ephemeral store warning, got:", output)
	}
}

func TestLogConfigWarnings_InsecureCookie(t *testing.T) {
	cfg := completeConfig()
	cfg.CookieSecure = false
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "WARNING: COOKIE_SECURE=false") {
		t.Error("expected cookie warning, got:", output)
	}
}

func TestLogConfigWarnings_MetricsDisabled(t *testing.T) {
	cfg := completeConfig()
	cfg.MetricsEnabled = false
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "INFO: METRICS_ENABLED=false") {
		t.Error("expected metrics INFO, got:", output)
	}
}
