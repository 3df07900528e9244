// Package issuance orchestrates the receipt workflow shared by the
// manual send endpoint and the scheduled job: duplicate and skip
// checks, rendering, delivery, history append.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
	"github.com/mathieuventurini/QuittanceOnClick/internal/lock"
	"github.com/mathieuventurini/QuittanceOnClick/internal/mail"
	"github.com/mathieuventurini/QuittanceOnClick/internal/pdf"
)

// Outcome of one workflow invocation.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomeSkipped   Outcome = "skipped"   // skip flag consumed
	OutcomeDuplicate Outcome = "duplicate" // already sent for this period
	OutcomeLocked    Outcome = "locked"    // another run in progress
)

// Trigger source, recorded in the receipt status and in metrics.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// ErrDuplicate is returned by SendManual when a receipt with a Sent
// status already exists for the requested period and Force is unset.
var ErrDuplicate = errors.New("receipt already sent for this period")

type Store interface {
	Load(ctx context.Context) (domain.Document, error)
	Save(ctx context.Context, doc domain.Document) error
}

type Renderer interface {
	Render(data pdf.ReceiptData) ([]byte, error)
}

// MetricsSink records workflow outcomes. All methods are
// fire-and-forget; implementations must not block.
type MetricsSink interface {
	IssuanceCompleted(trigger string, outcome string, duration time.Duration)
	DeliveryCompleted(success bool, duration time.Duration)
}

// Result reports what one invocation did. Receipt is set only for
// OutcomeSent.
type Result struct {
	Outcome Outcome
	Receipt *domain.Receipt
}

// Service runs the issuance workflow. All collaborators are injected;
// nothing here opens connections or reads globals.
type Service struct {
	store    Store
	renderer Renderer
	sender   mail.Sender
	locker   lock.Locker
	settings domain.Settings
	clock    func() time.Time
	metrics  MetricsSink // optional, nil = disabled
}

func New(store Store, renderer Renderer, sender mail.Sender, locker lock.Locker, settings domain.Settings) *Service {
	return &Service{
		store:    store,
		renderer: renderer,
		sender:   sender,
		locker:   locker,
		settings: settings,
		clock:    time.Now,
	}
}

// WithClock overrides the time source. Tests use this for
// deterministic period labels and receipt IDs.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// WithMetrics attaches a metrics sink.
func (s *Service) WithMetrics(sink MetricsSink) *Service {
	s.metrics = sink
	return s
}

// RunScheduled executes the automated monthly issuance:
// lock, skip flag, settings, duplicate check, render, deliver, record.
// A delivery error leaves no history entry, so the next scheduled tick
// retries the same period.
func (s *Service) RunScheduled(ctx context.Context) (Result, error) {
	start := s.clock()
	result, err := s.runScheduled(ctx, start)
	s.recordIssuance(TriggerScheduled, result, err, s.clock().Sub(start))
	return result, err
}

func (s *Service) runScheduled(ctx context.Context, now time.Time) (Result, error) {
	label := domain.CurrentLabel(now)

	acquired, err := s.locker.Acquire(ctx, lock.Key(label))
	if err != nil {
		// Locking is a safety net on top of the duplicate check, not a
		// prerequisite; a broken lock backend must not stop issuance.
		log.Printf("issuance: lock unavailable, proceeding without it: %v", err)
	} else if !acquired {
		log.Printf("issuance: lock held for %s, another run in progress", label)
		return Result{Outcome: OutcomeLocked}, nil
	}

	doc, err := s.store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load document: %w", err)
	}

	if doc.Automation.SkipNext {
		doc.Automation.SkipNext = false
		if err := s.store.Save(ctx, doc); err != nil {
			return Result{}, fmt.Errorf("reset skip flag: %w", err)
		}
		log.Printf("issuance: skipped by operator request, flag reset")
		return Result{Outcome: OutcomeSkipped}, nil
	}

	if err := s.settings.Validate(); err != nil {
		return Result{}, fmt.Errorf("scheduled issuance: %w", err)
	}

	if doc.SentFor(label) {
		log.Printf("issuance: receipt for %s already sent, skipping", label)
		return Result{Outcome: OutcomeDuplicate}, nil
	}

	receipt, err := s.issue(ctx, &doc, issueRequest{
		email:      s.settings.Email,
		tenantName: s.settings.TenantName,
		address:    s.settings.Address,
		amount:     s.settings.Amount,
		period:     label,
		status:     domain.StatusSentAuto,
		now:        now,
	})
	if err != nil {
		return Result{}, err
	}

	log.Printf("issuance: automated receipt %s sent to %s for %s", receipt.ID, s.settings.Email, label)
	return Result{Outcome: OutcomeSent, Receipt: &receipt}, nil
}

// ManualRequest is an operator-initiated send.
type ManualRequest struct {
	Email      string
	TenantName string
	Address    string
	Amount     decimal.Decimal
	Period     string
	// Force bypasses the duplicate check for a deliberate re-send.
	Force bool
}

// SendManual issues one receipt from operator-supplied fields. Unlike
// the scheduled path it ignores the lock and the skip flag, but it
// honors the duplicate guard unless Force is set.
func (s *Service) SendManual(ctx context.Context, req ManualRequest) (domain.Receipt, error) {
	start := s.clock()
	receipt, err := s.sendManual(ctx, req, start)

	result := Result{Outcome: OutcomeSent}
	if errors.Is(err, ErrDuplicate) {
		result.Outcome = OutcomeDuplicate
	}
	s.recordIssuance(TriggerManual, result, err, s.clock().Sub(start))
	return receipt, err
}

func (s *Service) sendManual(ctx context.Context, req ManualRequest, now time.Time) (domain.Receipt, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("load document: %w", err)
	}

	if !req.Force && doc.SentFor(req.Period) {
		return domain.Receipt{}, fmt.Errorf("%w: %s", ErrDuplicate, req.Period)
	}

	receipt, err := s.issue(ctx, &doc, issueRequest{
		email:      req.Email,
		tenantName: req.TenantName,
		address:    req.Address,
		amount:     req.Amount,
		period:     req.Period,
		status:     domain.StatusSent,
		now:        now,
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	log.Printf("issuance: manual receipt %s sent to %s for %s", receipt.ID, req.Email, req.Period)
	return receipt, nil
}

// Preview renders the receipt without sending or recording anything.
func (s *Service) Preview(req ManualRequest, now time.Time) ([]byte, error) {
	return s.renderer.Render(pdf.ReceiptData{
		TenantName: req.TenantName,
		Address:    req.Address,
		Amount:     req.Amount,
		Period:     req.Period,
		Date:       now,
	})
}

type issueRequest struct {
	email      string
	tenantName string
	address    string
	amount     decimal.Decimal
	period     string
	status     domain.Status
	now        time.Time
}

// issue renders, delivers and records one receipt. The history entry
// is written only after a successful delivery; on a delivery error the
// document is left untouched.
func (s *Service) issue(ctx context.Context, doc *domain.Document, req issueRequest) (domain.Receipt, error) {
	rendered, err := s.renderer.Render(pdf.ReceiptData{
		TenantName: req.tenantName,
		Address:    req.address,
		Amount:     req.amount,
		Period:     req.period,
		Date:       req.now,
	})
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("render receipt: %w", err)
	}

	deliveryStart := s.clock()
	sent, err := s.sender.Send(ctx, mail.Message{
		To:         req.email,
		TenantName: req.tenantName,
		Period:     req.period,
		PDF:        rendered,
	})
	if s.metrics != nil {
		s.metrics.DeliveryCompleted(err == nil, s.clock().Sub(deliveryStart))
	}
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("deliver receipt: %w", err)
	}

	receipt := domain.Receipt{
		ID:         domain.NewReceiptID(req.now),
		Date:       req.now.UTC(),
		TenantName: req.tenantName,
		Period:     req.period,
		Amount:     req.amount,
		Status:     req.status,
		EmailID:    sent.ID,
	}

	doc.Prepend(receipt)
	if err := s.store.Save(ctx, *doc); err != nil {
		// The email is out; losing the history entry is the lesser
		// failure. Logged, not fatal.
		log.Printf("issuance: receipt %s sent but not recorded: %v", receipt.ID, err)
	}
	return receipt, nil
}

func (s *Service) recordIssuance(trigger string, result Result, err error, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := string(result.Outcome)
	if err != nil && !errors.Is(err, ErrDuplicate) {
		outcome = "error"
	}
	s.metrics.IssuanceCompleted(trigger, outcome, duration)
}
