// Package scheduler runs the recurring maintenance jobs of the custody
// ledger, currently a daily sweep that flags batches expiring soon.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"sihacare/m/internal/ledger"
)

// Scheduler owns the cron jobs.
type Scheduler struct {
	ledger       *ledger.Ledger
	scheduler    *gocron.Scheduler
	expiryWindow time.Duration
}

// New creates a scheduler that warns about batches expiring within the
// given number of days.
func New(l *ledger.Ledger, expiryWindowDays int) *Scheduler {
	return &Scheduler{
		ledger:       l,
		scheduler:    gocron.NewScheduler(time.UTC),
		expiryWindow: time.Duration(expiryWindowDays) * 24 * time.Hour,
	}
}

// Start runs the expiry sweep once immediately, then daily at 06:00.
func (s *Scheduler) Start() error {
	s.sweepExpiring()

	if _, err := s.scheduler.Every(1).Day().At("06:00").Do(s.sweepExpiring); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop halts all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweepExpiring() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	batches, err := s.ledger.ExpiringBatches(ctx, s.expiryWindow)
	if err != nil {
		slog.Error("expiry sweep failed", "error", err)
		return
	}
	for _, b := range batches {
		slog.Warn("batch expiring soon",
			"batch_id", b.ID,
			"medication", b.MedicationName,
			"remaining", b.RemainingQuantity,
			"expiry_date", b.ExpiryDate.Format(time.DateOnly))
	}
	slog.Info("expiry sweep complete", "expiring", len(batches))
}
