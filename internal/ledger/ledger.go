// Package ledger implements the custody ledger: the batch lifecycle state
// machine and the quantity-conservation rules that govern how medication
// moves from warehouse creation through dispatch, hospital receipt and
// clinical administration.
//
// The ledger owns batches, dispatches and usage records. Warehouses,
// hospitals, patients and users are external lookup data; the ledger only
// verifies they exist and records their ids. Every mutation runs as a
// single transaction: either all effects commit (status change, quantity
// decrement, record creation) or none do.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"sihacare/m/domain"
)

// Notifier receives a change event after each successful mutation.
// Implementations must not block; delivery is best-effort.
type Notifier interface {
	Notify(evt domain.ChangeEvent)
}

// Ledger executes custody-chain operations against the persistent store.
type Ledger struct {
	db       *sqlx.DB
	notifier Notifier
	now      func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithNotifier sets the change-event sink.
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger backed by db.
func New(db *sqlx.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// notify emits a change event if a notifier is configured. Called only
// after a successful commit.
func (l *Ledger) notify(entity, operation, id string) {
	if l.notifier == nil {
		return
	}
	l.notifier.Notify(domain.ChangeEvent{Entity: entity, Operation: operation, ID: id})
}

// inTx runs fn inside a transaction, rolling back on error. Driver lock
// contention surfaces as ErrConcurrencyConflict.
func (l *Ledger) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapConflict(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return wrapConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return wrapConflict(err)
	}
	return nil
}

func logOp(ctx context.Context, op string, err error, args ...any) {
	if err != nil {
		slog.WarnContext(ctx, op+" failed", append(args, "error", err)...)
		return
	}
	slog.InfoContext(ctx, op, args...)
}
