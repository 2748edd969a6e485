package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sihacare/m/domain"
)

// receivedBatch creates a batch and walks it to the received state.
func receivedBatch(t *testing.T, l *Ledger, f fixtures, quantity int64, scanCode string) *domain.Batch {
	t.Helper()
	ctx := context.Background()

	batch := createTestBatch(t, l, f, quantity, scanCode)
	dispatch, err := l.CreateDispatch(ctx, CreateDispatchParams{
		BatchID: batch.ID, WarehouseID: f.warehouseID, HospitalID: f.hospitalID,
		Quantity: quantity, ActorID: f.warehouser,
	})
	require.NoError(t, err)
	_, err = l.ConfirmReceipt(ctx, dispatch.ID, f.receiver)
	require.NoError(t, err)

	got, err := l.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	return got
}

func TestRecordUsageCeiling(t *testing.T) {
	l, db, f := newTestLedger(t)
	ctx := context.Background()

	batch := receivedBatch(t, l, f, 100, "BATCH-USE-1")

	_, err := l.RecordUsage(ctx, RecordUsageParams{
		BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 101,
	})
	require.ErrorIs(t, err, ErrInsufficientQuantity)

	// No record was created and nothing was decremented.
	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM usage_records WHERE batch_id = ?`, batch.ID))
	require.Zero(t, count)
	require.EqualValues(t, 100, remaining(t, db, batch.ID))
}

func TestRecordUsageValidation(t *testing.T) {
	l, _, f := newTestLedger(t)
	ctx := context.Background()

	batch := receivedBatch(t, l, f, 100, "BATCH-USE-VAL")

	_, err := l.RecordUsage(ctx, RecordUsageParams{
		BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 0,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = l.RecordUsage(ctx, RecordUsageParams{
		BatchID: batch.ID, PatientID: 9999, ClinicianID: f.clinician, Quantity: 1,
	})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = l.RecordUsage(ctx, RecordUsageParams{
		BatchID: "no-such-batch", PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 1,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordUsageExhaustsStock(t *testing.T) {
	l, db, f := newTestLedger(t)
	ctx := context.Background()

	batch := receivedBatch(t, l, f, 30, "BATCH-USE-EXH")

	for i := 0; i < 3; i++ {
		_, err := l.RecordUsage(ctx, RecordUsageParams{
			BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 10,
		})
		require.NoError(t, err)
	}
	require.EqualValues(t, 0, remaining(t, db, batch.ID))

	_, err := l.RecordUsage(ctx, RecordUsageParams{
		BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 1,
	})
	require.ErrorIs(t, err, ErrInsufficientQuantity)
}

// TestRecordUsageConcurrent: two concurrent administrations of 500 against
// 600 remaining. Exactly one wins; the other fails whole, with no partial
// decrement.
func TestRecordUsageConcurrent(t *testing.T) {
	l, db, f := newTestLedger(t)
	ctx := context.Background()

	batch := receivedBatch(t, l, f, 600, "BATCH-USE-RACE")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = l.RecordUsage(ctx, RecordUsageParams{
				BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 500,
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.True(t,
				errors.Is(err, ErrInsufficientQuantity) || errors.Is(err, ErrConcurrencyConflict),
				"unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.EqualValues(t, 100, remaining(t, db, batch.ID))

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM usage_records WHERE batch_id = ?`, batch.ID))
	require.Equal(t, 1, count)
}

func TestUsageNotesStored(t *testing.T) {
	l, _, f := newTestLedger(t)
	ctx := context.Background()

	batch := receivedBatch(t, l, f, 10, "BATCH-USE-NOTES")
	record, err := l.RecordUsage(ctx, RecordUsageParams{
		BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician,
		Quantity: 2, Notes: "  administered with food  ",
	})
	require.NoError(t, err)
	require.Equal(t, "administered with food", record.Notes)

	records, err := l.ListUsage(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, record.ID, records[0].ID)
}
