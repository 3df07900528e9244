package mail

import (
	"strings"
	"testing"

	"github.com/mathieuventurini/QuittanceOnClick/internal/testutil"
)

func TestAttachmentName(t *testing.T) {
	cases := []struct {
		period string
		want   string
	}{
		{"Janvier 2026", "quittance-Janvier_2026.pdf"},
		{"08 Janvier 2026", "quittance-08_Janvier_2026.pdf"},
	}
	for _, tc := range cases {
		if got := AttachmentName(tc.period); got != tc.want {
			t.Errorf("AttachmentName(%q) = %q, want %q", tc.period, got, tc.want)
		}
	}
}

func TestBodyHTML_InterpolatesTenantAndPeriod(t *testing.T) {
	html := bodyHTML("Justine Chartrain", "Janvier 2026")

	for _, want := range []string{"Bonjour Justine Chartrain", "<strong>Janvier 2026</strong>"} {
		if !strings.Contains(html, want) {
			t.Errorf("body %q missing %q", html, want)
		}
	}
}

func TestSend_MissingFromAddress(t *testing.T) {
	s := NewResend(Config{APIKey: "re_test"})

	_, err := s.Send(testutil.TestContext(t), Message{To: "tenant@example.com", Period: "Janvier 2026"})
	if err == nil {
		t.Fatal("expected error for missing from address, got nil")
	}
}
