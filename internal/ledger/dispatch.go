package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"sihacare/m/domain"
)

// CreateDispatchParams are the inputs for moving a batch toward a hospital.
type CreateDispatchParams struct {
	BatchID     string
	WarehouseID int64
	HospitalID  int64
	Quantity    int64
	ActorID     int64
}

// CreateDispatch creates a pending dispatch for a batch and moves the batch
// into the dispatched state. A batch is dispatched as a whole unit to one
// destination at a time: only batches still in the created state qualify.
func (l *Ledger) CreateDispatch(ctx context.Context, p CreateDispatchParams) (*domain.Dispatch, error) {
	if p.BatchID == "" {
		return nil, fmt.Errorf("batch id is required: %w", ErrValidation)
	}
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d: %w", p.Quantity, ErrValidation)
	}

	now := l.now()
	dispatch := &domain.Dispatch{
		ID:              uuid.NewString(),
		BatchID:         p.BatchID,
		FromWarehouseID: p.WarehouseID,
		ToHospitalID:    p.HospitalID,
		Quantity:        p.Quantity,
		Status:          domain.DispatchPending,
		DispatchedBy:    p.ActorID,
		DispatchedAt:    now,
	}

	err := l.inTx(ctx, func(tx *sqlx.Tx) error {
		var batch domain.Batch
		err := tx.GetContext(ctx, &batch, `SELECT * FROM batches WHERE id = ?`, p.BatchID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("batch %s: %w", p.BatchID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("getting batch: %w", err)
		}

		if batch.Status != domain.BatchCreated {
			return fmt.Errorf("batch %s is %s: %w", batch.ID, batch.Status, ErrBatchNotAvailable)
		}
		if batch.WarehouseID != p.WarehouseID {
			return fmt.Errorf("batch %s is not held by warehouse %d: %w", batch.ID, p.WarehouseID, ErrValidation)
		}
		if p.Quantity > batch.RemainingQuantity {
			return fmt.Errorf("batch %s has %d remaining, need %d: %w",
				batch.ID, batch.RemainingQuantity, p.Quantity, ErrInsufficientQuantity)
		}
		if err := requireRow(ctx, tx, "hospital", `SELECT 1 FROM hospitals WHERE id = ?`, p.HospitalID); err != nil {
			return err
		}

		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO dispatches (id, batch_id, from_warehouse_id, to_hospital_id,
			                         quantity, status, dispatched_by, dispatched_at)
			 VALUES (:id, :batch_id, :from_warehouse_id, :to_hospital_id,
			         :quantity, :status, :dispatched_by, :dispatched_at)`, dispatch)
		if err != nil {
			return fmt.Errorf("inserting dispatch: %w", err)
		}

		return advanceStatus(ctx, tx, p.BatchID, domain.BatchDispatched, now)
	})
	logOp(ctx, "batch dispatched", err, "dispatch_id", dispatch.ID, "batch_id", p.BatchID, "quantity", p.Quantity)
	if err != nil {
		return nil, err
	}

	l.notify("dispatch", "insert", dispatch.ID)
	l.notify("batch", "update", p.BatchID)
	return dispatch, nil
}

// MarkInTransit moves a pending dispatch to in_transit.
func (l *Ledger) MarkInTransit(ctx context.Context, dispatchID string) (*domain.Dispatch, error) {
	err := l.inTx(ctx, func(tx *sqlx.Tx) error {
		dispatch, err := getDispatch(ctx, tx, dispatchID)
		if err != nil {
			return err
		}
		if dispatch.Status != domain.DispatchPending {
			return fmt.Errorf("dispatch %s is %s: %w", dispatchID, dispatch.Status, ErrInvalidTransition)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE dispatches SET status = ? WHERE id = ? AND status = ?`,
			domain.DispatchInTransit, dispatchID, domain.DispatchPending)
		if err != nil {
			return fmt.Errorf("marking dispatch in transit: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("dispatch %s changed concurrently: %w", dispatchID, ErrConcurrencyConflict)
		}
		return nil
	})
	logOp(ctx, "dispatch in transit", err, "dispatch_id", dispatchID)
	if err != nil {
		return nil, err
	}

	l.notify("dispatch", "update", dispatchID)
	return l.GetDispatch(ctx, dispatchID)
}

// ConfirmReceipt records hospital receipt of a dispatch and moves the batch
// into the received state. Confirming twice is an error, not a silent
// double-credit: the second caller sees ErrAlreadyReceived.
func (l *Ledger) ConfirmReceipt(ctx context.Context, dispatchID string, receivingActorID int64) (*domain.Dispatch, error) {
	now := l.now()
	var batchID string

	err := l.inTx(ctx, func(tx *sqlx.Tx) error {
		dispatch, err := getDispatch(ctx, tx, dispatchID)
		if err != nil {
			return err
		}
		if dispatch.Status == domain.DispatchReceived {
			return fmt.Errorf("dispatch %s: %w", dispatchID, ErrAlreadyReceived)
		}
		batchID = dispatch.BatchID

		res, err := tx.ExecContext(ctx,
			`UPDATE dispatches SET status = ?, received_by = ?, received_at = ?
			 WHERE id = ? AND status IN (?, ?)`,
			domain.DispatchReceived, receivingActorID, now,
			dispatchID, domain.DispatchPending, domain.DispatchInTransit)
		if err != nil {
			return fmt.Errorf("confirming receipt: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("dispatch %s changed concurrently: %w", dispatchID, ErrConcurrencyConflict)
		}

		return advanceStatus(ctx, tx, dispatch.BatchID, domain.BatchReceived, now)
	})
	logOp(ctx, "receipt confirmed", err, "dispatch_id", dispatchID, "received_by", receivingActorID)
	if err != nil {
		return nil, err
	}

	l.notify("dispatch", "update", dispatchID)
	l.notify("batch", "update", batchID)
	return l.GetDispatch(ctx, dispatchID)
}

// GetDispatch returns a dispatch by id.
func (l *Ledger) GetDispatch(ctx context.Context, id string) (*domain.Dispatch, error) {
	var dispatch domain.Dispatch
	err := l.db.GetContext(ctx, &dispatch, `SELECT * FROM dispatches WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dispatch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting dispatch: %w", err)
	}
	return &dispatch, nil
}

// ListDispatches returns dispatches, newest first, optionally scoped to a batch.
func (l *Ledger) ListDispatches(ctx context.Context, batchID string) ([]domain.Dispatch, error) {
	query := `SELECT * FROM dispatches`
	var args []any
	if batchID != "" {
		query += ` WHERE batch_id = ?`
		args = append(args, batchID)
	}
	query += ` ORDER BY dispatched_at DESC, id`

	dispatches := []domain.Dispatch{}
	if err := l.db.SelectContext(ctx, &dispatches, query, args...); err != nil {
		return nil, fmt.Errorf("listing dispatches: %w", err)
	}
	return dispatches, nil
}

func getDispatch(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Dispatch, error) {
	var dispatch domain.Dispatch
	err := tx.GetContext(ctx, &dispatch, `SELECT * FROM dispatches WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dispatch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting dispatch: %w", err)
	}
	return &dispatch, nil
}
