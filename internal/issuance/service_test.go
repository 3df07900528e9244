package issuance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
	"github.com/mathieuventurini/QuittanceOnClick/internal/mail"
	"github.com/mathieuventurini/QuittanceOnClick/internal/pdf"
	"github.com/mathieuventurini/QuittanceOnClick/internal/store"
	"github.com/mathieuventurini/QuittanceOnClick/internal/testutil"
)

// issueDay matches CurrentLabel "08 Janvier 2026".
var issueDay = time.Date(2026, time.January, 8, 10, 0, 0, 0, time.UTC)

type fakeRenderer struct {
	err   error
	calls int
}

func (r *fakeRenderer) Render(data pdf.ReceiptData) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-fake"), nil
}

type fakeSender struct {
	err   error
	calls int
	last  mail.Message
}

func (s *fakeSender) Send(ctx context.Context, msg mail.Message) (mail.Result, error) {
	s.calls++
	s.last = msg
	if s.err != nil {
		return mail.Result{}, s.err
	}
	return mail.Result{ID: "email-123"}, nil
}

// fakeLocker grants the lock to the first caller only.
type fakeLocker struct {
	mu    sync.Mutex
	err   error
	taken map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{taken: make(map[string]bool)}
}

func (l *fakeLocker) Acquire(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.taken[key] {
		return false, nil
	}
	l.taken[key] = true
	return true, nil
}

func testSettings() domain.Settings {
	return domain.Settings{
		TenantName: "Justine Chartrain",
		Email:      "justine@example.com",
		Address:    "10 Rue de la Pierre\n37100 Tours",
		Amount:     decimal.NewFromInt(715),
	}
}

func newService(t *testing.T) (*Service, *store.Memory, *fakeSender, *fakeLocker) {
	t.Helper()
	mem := store.NewMemory()
	sender := &fakeSender{}
	locker := newFakeLocker()
	clock := testutil.NewFakeClock(issueDay)
	svc := New(mem, &fakeRenderer{}, sender, locker, testSettings()).WithClock(clock.Now)
	return svc, mem, sender, locker
}

func TestRunScheduled_SendsAndRecords(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, mem, sender, _ := newService(t)

	result, err := svc.RunScheduled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSent {
		t.Fatalf("expected sent, got %s", result.Outcome)
	}
	if result.Receipt == nil || result.Receipt.Status != domain.StatusSentAuto {
		t.Fatalf("expected Sent (Auto) receipt, got %+v", result.Receipt)
	}
	if result.Receipt.Period != "08 Janvier 2026" {
		t.Errorf("unexpected period label: %s", result.Receipt.Period)
	}
	if result.Receipt.EmailID != "email-123" {
		t.Errorf("expected provider message id on receipt, got %q", result.Receipt.EmailID)
	}
	if sender.last.To != "justine@example.com" {
		t.Errorf("unexpected recipient: %s", sender.last.To)
	}

	doc, _ := mem.Load(ctx)
	if len(doc.Receipts) != 1 {
		t.Fatalf("expected 1 recorded receipt, got %d", len(doc.Receipts))
	}
}

func TestRunScheduled_SkipFlagConsumedOnce(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, mem, sender, locker := newService(t)

	doc, _ := mem.Load(ctx)
	doc.Automation.SkipNext = true
	if err := mem.Save(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.RunScheduled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", result.Outcome)
	}
	if sender.calls != 0 {
		t.Error("skipped run must not deliver")
	}

	after, _ := mem.Load(ctx)
	if after.Automation.SkipNext {
		t.Error("skip flag must reset after one skipped run")
	}
	if len(after.Receipts) != 0 {
		t.Error("skipped run must not record a receipt")
	}

	// Next run proceeds normally.
	locker.taken = map[string]bool{}
	result, err = svc.RunScheduled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSent {
		t.Errorf("expected run after skip to send, got %s", result.Outcome)
	}
}

func TestRunScheduled_DuplicateSkipped(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, mem, sender, _ := newService(t)

	doc, _ := mem.Load(ctx)
	doc.Prepend(domain.Receipt{ID: "1", Period: "08 Janvier 2026", Status: domain.StatusSent})
	if err := mem.Save(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.RunScheduled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s", result.Outcome)
	}
	if sender.calls != 0 {
		t.Error("duplicate run must not deliver")
	}
}

func TestRunScheduled_FailedReceiptDoesNotBlockResend(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, mem, _, _ := newService(t)

	doc, _ := mem.Load(ctx)
	doc.Prepend(domain.Receipt{ID: "1", Period: "08 Janvier 2026", Status: domain.StatusFailedAuto})
	if err := mem.Save(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.RunScheduled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSent {
		t.Errorf("a Failed entry must not count as sent, got %s", result.Outcome)
	}
}

func TestRunScheduled_LockContention(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, _, sender, _ := newService(t)

	// First invocation takes the lock.
	if _, err := svc.RunScheduled(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second invocation for the same day finds the lock held.
	result, err := svc.RunScheduled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeLocked {
		t.Fatalf("expected locked, got %s", result.Outcome)
	}
	if sender.calls != 1 {
		t.Errorf("expected exactly one delivery, got %d", sender.calls)
	}
}

func TestRunScheduled_LockErrorProceeds(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, _, sender, locker := newService(t)
	locker.err = errors.New("redis down")

	result, err := svc.RunScheduled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSent {
		t.Errorf("a broken lock backend must not stop issuance, got %s", result.Outcome)
	}
	if sender.calls != 1 {
		t.Errorf("expected one delivery, got %d", sender.calls)
	}
}

func TestRunScheduled_MissingSettings(t *testing.T) {
	ctx := testutil.TestContext(t)
	mem := store.NewMemory()
	sender := &fakeSender{}
	clock := testutil.NewFakeClock(issueDay)
	svc := New(mem, &fakeRenderer{}, sender, newFakeLocker(), domain.Settings{}).WithClock(clock.Now)

	if _, err := svc.RunScheduled(ctx); err == nil {
		t.Fatal("expected configuration error, got nil")
	}
	if sender.calls != 0 {
		t.Error("invalid settings must not cause a partial send")
	}
}

func TestRunScheduled_DeliveryFailureLeavesNoHistory(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, mem, sender, locker := newService(t)
	sender.err = errors.New("provider rejected")

	if _, err := svc.RunScheduled(ctx); err == nil {
		t.Fatal("expected delivery error, got nil")
	}

	doc, _ := mem.Load(ctx)
	if len(doc.Receipts) != 0 {
		t.Error("failed delivery must not record a receipt")
	}

	// The next tick retries the same period once the lock expires.
	locker.taken = map[string]bool{}
	sender.err = nil
	result, err := svc.RunScheduled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSent {
		t.Errorf("expected retry to send, got %s", result.Outcome)
	}
}

func manualRequest() ManualRequest {
	return ManualRequest{
		Email:      "justine@example.com",
		TenantName: "Justine Chartrain",
		Address:    "10 Rue de la Pierre\n37100 Tours",
		Amount:     decimal.NewFromInt(715),
		Period:     "Janvier 2026",
	}
}

func TestSendManual_RecordsSentReceipt(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, mem, _, _ := newService(t)

	receipt, err := svc.SendManual(ctx, manualRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Status != domain.StatusSent {
		t.Errorf("expected Sent status, got %s", receipt.Status)
	}
	if receipt.Period != "Janvier 2026" {
		t.Errorf("unexpected period: %s", receipt.Period)
	}

	doc, _ := mem.Load(ctx)
	if len(doc.Receipts) != 1 || doc.Receipts[0].ID != receipt.ID {
		t.Errorf("expected recorded receipt, got %+v", doc.Receipts)
	}
}

func TestSendManual_DuplicateRejected(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, _, sender, _ := newService(t)

	if _, err := svc.SendManual(ctx, manualRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.SendManual(ctx, manualRequest())
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if sender.calls != 1 {
		t.Errorf("duplicate must not deliver, got %d calls", sender.calls)
	}
}

func TestSendManual_ForceBypassesDuplicateGuard(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, mem, sender, _ := newService(t)

	if _, err := svc.SendManual(ctx, manualRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := manualRequest()
	req.Force = true
	if _, err := svc.SendManual(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 2 {
		t.Errorf("expected forced re-send, got %d calls", sender.calls)
	}

	doc, _ := mem.Load(ctx)
	if len(doc.Receipts) != 2 {
		t.Errorf("expected 2 receipts, got %d", len(doc.Receipts))
	}
}

func TestSendManual_DeliveryFailureLeavesNoHistory(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, mem, sender, _ := newService(t)
	sender.err = errors.New("provider rejected")

	if _, err := svc.SendManual(ctx, manualRequest()); err == nil {
		t.Fatal("expected delivery error, got nil")
	}

	doc, _ := mem.Load(ctx)
	if len(doc.Receipts) != 0 {
		t.Error("failed manual send must not record a receipt")
	}
}

func TestPreview_NoSideEffects(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, mem, sender, _ := newService(t)

	out, err := svc.Preview(manualRequest(), issueDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected rendered bytes")
	}
	if sender.calls != 0 {
		t.Error("preview must not deliver")
	}

	doc, _ := mem.Load(ctx)
	if len(doc.Receipts) != 0 {
		t.Error("preview must not record a receipt")
	}
}
