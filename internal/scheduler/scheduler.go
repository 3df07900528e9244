// Package scheduler triggers the automated monthly issuance on a cron
// calendar. The workflow itself is idempotent per period (duplicate
// check + lock), so a missed or doubled trigger is harmless.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mathieuventurini/QuittanceOnClick/internal/issuance"
)

// Issuer runs one scheduled issuance. Satisfied by *issuance.Service.
type Issuer interface {
	RunScheduled(ctx context.Context) (issuance.Result, error)
}

type Config struct {
	// CronExpression in standard 5-field form, e.g. "0 10 8 * *"
	// (10:00 on day 8 of every month).
	CronExpression string
	// RunTimeout bounds one workflow invocation.
	RunTimeout time.Duration
}

type Scheduler struct {
	config Config
	engine *cron.Cron
	issuer Issuer
}

func New(config Config, issuer Issuer) *Scheduler {
	return &Scheduler{
		config: config,
		engine: cron.New(),
		issuer: issuer,
	}
}

// Start registers the issuance job and starts the cron engine.
func (s *Scheduler) Start() error {
	if _, err := s.engine.AddFunc(s.config.CronExpression, s.runOnce); err != nil {
		return err
	}
	s.engine.Start()
	log.Printf("scheduler: started, cron=%q timeout=%s", s.config.CronExpression, s.config.RunTimeout)
	return nil
}

// Stop stops the engine and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.engine.Stop()
	<-ctx.Done()
	log.Println("scheduler: stopped")
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()

	log.Println("scheduler: monthly issuance triggered")

	result, err := s.issuer.RunScheduled(ctx)
	if err != nil {
		// No history entry was written; the next scheduled tick
		// re-attempts the same period.
		log.Printf("scheduler: issuance failed: %v", err)
		return
	}

	switch result.Outcome {
	case issuance.OutcomeSent:
		log.Printf("scheduler: receipt %s issued for %s", result.Receipt.ID, result.Receipt.Period)
	case issuance.OutcomeSkipped:
		log.Println("scheduler: run skipped by operator request")
	case issuance.OutcomeDuplicate:
		log.Println("scheduler: receipt already sent for this period")
	case issuance.OutcomeLocked:
		log.Println("scheduler: concurrent run detected, exiting")
	}
}
