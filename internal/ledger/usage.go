package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"sihacare/m/domain"
)

// RecordUsageParams are the inputs for administering medication to a patient.
type RecordUsageParams struct {
	BatchID     string
	PatientID   int64
	ClinicianID int64
	Quantity    int64
	Notes       string
}

// RecordUsage consumes quantity from a received batch for a patient. The
// batch must have reached the received state; repeat administrations from
// the same received stock are legal until remaining quantity is exhausted.
// The first usage record also advances the batch to administered.
func (l *Ledger) RecordUsage(ctx context.Context, p RecordUsageParams) (*domain.UsageRecord, error) {
	if p.BatchID == "" {
		return nil, fmt.Errorf("batch id is required: %w", ErrValidation)
	}
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d: %w", p.Quantity, ErrValidation)
	}

	now := l.now()
	record := &domain.UsageRecord{
		ID:             uuid.NewString(),
		BatchID:        p.BatchID,
		PatientID:      p.PatientID,
		ClinicianID:    p.ClinicianID,
		Quantity:       p.Quantity,
		Notes:          strings.TrimSpace(p.Notes),
		AdministeredAt: now,
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

		if batch.Status != domain.BatchReceived && batch.Status != domain.BatchAdministered {
			return fmt.Errorf("batch %s is %s: %w", batch.ID, batch.Status, ErrBatchNotReceived)
		}
		if p.Quantity > batch.RemainingQuantity {
			return fmt.Errorf("batch %s has %d remaining, need %d: %w",
				batch.ID, batch.RemainingQuantity, p.Quantity, ErrInsufficientQuantity)
		}

		var patient domain.Patient
		err = tx.GetContext(ctx, &patient, `SELECT * FROM patients WHERE id = ?`, p.PatientID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("patient %d: %w", p.PatientID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("getting patient: %w", err)
		}
		record.HospitalID = patient.HospitalID

		if err := decrementRemaining(ctx, tx, p.BatchID, p.Quantity, now); err != nil {
			return err
		}

		// Status flips to administered once, on the first usage record;
		// later administrations only move the quantity ledger.
		if batch.Status == domain.BatchReceived {
			if err := advanceStatus(ctx, tx, p.BatchID, domain.BatchAdministered, now); err != nil {
				return err
			}
		}

		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO usage_records (id, batch_id, patient_id, clinician_id,
			                            hospital_id, quantity, notes, administered_at)
			 VALUES (:id, :batch_id, :patient_id, :clinician_id,
			         :hospital_id, :quantity, :notes, :administered_at)`, record)
		if err != nil {
			return fmt.Errorf("inserting usage record: %w", err)
		}
		return nil
	})
	logOp(ctx, "usage recorded", err, "usage_id", record.ID, "batch_id", p.BatchID, "quantity", p.Quantity)
	if err != nil {
		return nil, err
	}

	l.notify("usage_record", "insert", record.ID)
	l.notify("batch", "update", p.BatchID)
	return record, nil
}

// ListUsage returns usage records, newest first, optionally scoped to a batch.
func (l *Ledger) ListUsage(ctx context.Context, batchID string) ([]domain.UsageRecord, error) {
	query := `SELECT * FROM usage_records`
	var args []any
	if batchID != "" {
		query += ` WHERE batch_id = ?`
		args = append(args, batchID)
	}
	query += ` ORDER BY administered_at DESC, id`

	records := []domain.UsageRecord{}
	if err := l.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("listing usage records: %w", err)
	}
	return records, nil
}
