package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"sihacare/m/domain"
)

// CreateBatchParams are the inputs for registering a new batch.
type CreateBatchParams struct {
	Medication        string
	Quantity          int64
	ManufacturingDate time.Time
	ExpiryDate        time.Time
	WarehouseID       int64
	ScanCode          string
	ActorID           int64
}

// CreateBatch registers a new batch owned by a warehouse. The batch starts
// in the created state with its full quantity remaining.
func (l *Ledger) CreateBatch(ctx context.Context, p CreateBatchParams) (*domain.Batch, error) {
	p.Medication = strings.TrimSpace(p.Medication)
	p.ScanCode = strings.TrimSpace(p.ScanCode)

	if p.Medication == "" {
		return nil, fmt.Errorf("medication name is required: %w", ErrValidation)
	}
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d: %w", p.Quantity, ErrValidation)
	}
	if p.ScanCode == "" {
		return nil, fmt.Errorf("scan code is required: %w", ErrValidation)
	}
	if p.ManufacturingDate.IsZero() || p.ExpiryDate.IsZero() {
		return nil, fmt.Errorf("manufacturing and expiry dates are required: %w", ErrValidation)
	}
	if p.ExpiryDate.Before(p.ManufacturingDate) {
		return nil, fmt.Errorf("expiry date precedes manufacturing date: %w", ErrValidation)
	}

	now := l.now()
	batch := &domain.Batch{
		ID:                uuid.NewString(),
		MedicationName:    p.Medication,
		Quantity:          p.Quantity,
		RemainingQuantity: p.Quantity,
		ManufacturingDate: p.ManufacturingDate,
		ExpiryDate:        p.ExpiryDate,
		ScanCode:          p.ScanCode,
		Status:            domain.BatchCreated,
		WarehouseID:       p.WarehouseID,
		CreatedBy:         p.ActorID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := l.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireRow(ctx, tx, "warehouse", `SELECT 1 FROM warehouses WHERE id = ?`, p.WarehouseID); err != nil {
			return err
		}

		var taken int
		if err := tx.GetContext(ctx, &taken,
			`SELECT COUNT(*) FROM batches WHERE scan_code = ?`, p.ScanCode); err != nil {
			return fmt.Errorf("checking scan code: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("scan code %q already registered: %w", p.ScanCode, ErrValidation)
		}

		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO batches (id, medication_name, quantity, remaining_quantity,
			                      manufacturing_date, expiry_date, scan_code, status,
			                      warehouse_id, created_by, created_at, updated_at)
			 VALUES (:id, :medication_name, :quantity, :remaining_quantity,
			         :manufacturing_date, :expiry_date, :scan_code, :status,
			         :warehouse_id, :created_by, :created_at, :updated_at)`, batch)
		if err != nil {
			return fmt.Errorf("inserting batch: %w", err)
		}
		return nil
	})
	logOp(ctx, "batch created", err, "batch_id", batch.ID, "medication", p.Medication, "quantity", p.Quantity)
	if err != nil {
		return nil, err
	}

	l.notify("batch", "insert", batch.ID)
	return batch, nil
}

// GetBatch returns a batch by id.
func (l *Ledger) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	var batch domain.Batch
	err := l.db.GetContext(ctx, &batch, `SELECT * FROM batches WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	return &batch, nil
}

// ListBatches returns batches, newest first, optionally scoped to a warehouse.
func (l *Ledger) ListBatches(ctx context.Context, warehouseID int64) ([]domain.Batch, error) {
	query := `SELECT * FROM batches`
	var args []any
	if warehouseID > 0 {
		query += ` WHERE warehouse_id = ?`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY created_at DESC, id`

	batches := []domain.Batch{}
	if err := l.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	return batches, nil
}

// advanceStatus moves a batch to the next lifecycle status. The new status
// must strictly follow the current one; the conditional update guards
// against a concurrent writer having advanced the batch first.
func advanceStatus(ctx context.Context, tx *sqlx.Tx, batchID string, next domain.BatchStatus, now time.Time) error {
	var current domain.BatchStatus
	err := tx.GetContext(ctx, &current, `SELECT status FROM batches WHERE id = ?`, batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("batch %s: %w", batchID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading batch status: %w", err)
	}

	if !next.Follows(current) {
		return fmt.Errorf("batch %s: %s -> %s: %w", batchID, current, next, ErrInvalidTransition)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE batches SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		next, now, batchID, current)
	if err != nil {
		return fmt.Errorf("advancing batch status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("batch %s status changed concurrently: %w", batchID, ErrConcurrencyConflict)
	}
	return nil
}

// decrementRemaining reduces a batch's remaining quantity. The guard on
// remaining_quantity makes two racing decrements serialize: the loser sees
// zero rows affected instead of driving the ledger negative.
func decrementRemaining(ctx context.Context, tx *sqlx.Tx, batchID string, amount int64, now time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("decrement amount must be positive, got %d: %w", amount, ErrValidation)
	}

	var remaining int64
	err := tx.GetContext(ctx, &remaining, `SELECT remaining_quantity FROM batches WHERE id = ?`, batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("batch %s: %w", batchID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading remaining quantity: %w", err)
	}
	if amount > remaining {
		return fmt.Errorf("batch %s has %d remaining, need %d: %w", batchID, remaining, amount, ErrInsufficientQuantity)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE batches SET remaining_quantity = remaining_quantity - ?, updated_at = ?
		 WHERE id = ? AND remaining_quantity >= ?`,
		amount, now, batchID, amount)
	if err != nil {
		return fmt.Errorf("decrementing remaining quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("batch %s quantity changed concurrently: %w", batchID, ErrConcurrencyConflict)
	}
	return nil
}

// requireRow fails with ErrNotFound when the query matches nothing.
func requireRow(ctx context.Context, tx *sqlx.Tx, entity, query string, args ...any) error {
	var one int
	err := tx.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("looking up %s: %w", entity, err)
	}
	return nil
}
