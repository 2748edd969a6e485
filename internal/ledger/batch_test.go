package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sihacare/m/domain"
)

func TestCreateBatchValidation(t *testing.T) {
	l, _, f := newTestLedger(t)
	ctx := context.Background()

	mfg := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2028, 1, 10, 0, 0, 0, 0, time.UTC)

	valid := CreateBatchParams{
		Medication:        "Amoxicillin 250mg",
		Quantity:          100,
		ManufacturingDate: mfg,
		ExpiryDate:        expiry,
		WarehouseID:       f.warehouseID,
		ScanCode:          "BATCH-VAL-1",
		ActorID:           f.warehouser,
	}

	cases := []struct {
		name   string
		mutate func(*CreateBatchParams)
		want   error
	}{
		{"zero quantity", func(p *CreateBatchParams) { p.Quantity = 0 }, ErrValidation},
		{"negative quantity", func(p *CreateBatchParams) { p.Quantity = -5 }, ErrValidation},
		{"empty medication", func(p *CreateBatchParams) { p.Medication = "  " }, ErrValidation},
		{"empty scan code", func(p *CreateBatchParams) { p.ScanCode = "" }, ErrValidation},
		{"expiry before manufacturing", func(p *CreateBatchParams) { p.ExpiryDate = mfg.AddDate(-1, 0, 0) }, ErrValidation},
		{"unknown warehouse", func(p *CreateBatchParams) { p.WarehouseID = 9999 }, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			_, err := l.CreateBatch(ctx, p)
			require.ErrorIs(t, err, tc.want)
		})
	}

	// The valid params still work after all the rejections.
	batch, err := l.CreateBatch(ctx, valid)
	require.NoError(t, err)
	require.Equal(t, domain.BatchCreated, batch.Status)

	// Expiry equal to manufacturing date is allowed.
	sameDay := valid
	sameDay.ScanCode = "BATCH-VAL-2"
	sameDay.ExpiryDate = mfg
	_, err = l.CreateBatch(ctx, sameDay)
	require.NoError(t, err)
}

func TestCreateBatchDuplicateScanCode(t *testing.T) {
	l, _, f := newTestLedger(t)

	createTestBatch(t, l, f, 10, "BATCH-DUP-1")
	_, err := l.CreateBatch(context.Background(), CreateBatchParams{
		Medication:        "Ibuprofen 400mg",
		Quantity:          10,
		ManufacturingDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		ExpiryDate:        time.Date(2028, 1, 10, 0, 0, 0, 0, time.UTC),
		WarehouseID:       f.warehouseID,
		ScanCode:          "BATCH-DUP-1",
		ActorID:           f.warehouser,
	})
	require.ErrorIs(t, err, ErrValidation)
}

// TestMonotonicStatus drives a batch through its whole lifecycle and checks
// that no operation can ever move it backwards or skip ahead.
func TestMonotonicStatus(t *testing.T) {
	l, db, f := newTestLedger(t)
	ctx := context.Background()

	batch := createTestBatch(t, l, f, 100, "BATCH-MONO-1")

	// Usage before receipt: the batch has not even been dispatched.
	_, err := l.RecordUsage(ctx, RecordUsageParams{
		BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 1,
	})
	require.ErrorIs(t, err, ErrBatchNotReceived)

	dispatch, err := l.CreateDispatch(ctx, CreateDispatchParams{
		BatchID: batch.ID, WarehouseID: f.warehouseID, HospitalID: f.hospitalID,
		Quantity: 100, ActorID: f.warehouser,
	})
	require.NoError(t, err)

	// A second dispatch of the same batch must fail: it already left created.
	_, err = l.CreateDispatch(ctx, CreateDispatchParams{
		BatchID: batch.ID, WarehouseID: f.warehouseID, HospitalID: f.hospitalID,
		Quantity: 1, ActorID: f.warehouser,
	})
	require.ErrorIs(t, err, ErrBatchNotAvailable)

	// Usage while merely dispatched is still premature.
	_, err = l.RecordUsage(ctx, RecordUsageParams{
		BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 1,
	})
	require.ErrorIs(t, err, ErrBatchNotReceived)

	_, err = l.ConfirmReceipt(ctx, dispatch.ID, f.receiver)
	require.NoError(t, err)

	_, err = l.RecordUsage(ctx, RecordUsageParams{
		BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 10,
	})
	require.NoError(t, err)

	// Once administered, further usage decrements stock without touching status.
	_, err = l.RecordUsage(ctx, RecordUsageParams{
		BatchID: batch.ID, PatientID: f.patientID, ClinicianID: f.clinician, Quantity: 10,
	})
	require.NoError(t, err)

	var status domain.BatchStatus
	require.NoError(t, db.Get(&status, `SELECT status FROM batches WHERE id = ?`, batch.ID))
	require.Equal(t, domain.BatchAdministered, status)
	require.EqualValues(t, 80, remaining(t, db, batch.ID))
}

func TestGetBatchNotFound(t *testing.T) {
	l, _, _ := newTestLedger(t)

	_, err := l.GetBatch(context.Background(), "no-such-batch")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListBatchesByWarehouse(t *testing.T) {
	l, db, f := newTestLedger(t)
	ctx := context.Background()

	otherWarehouse := insertRow(t, db, `INSERT INTO warehouses (name, location) VALUES (?, ?)`, "North Depot", "Bizerte")

	createTestBatch(t, l, f, 10, "BATCH-LIST-1")
	other, err := l.CreateBatch(ctx, CreateBatchParams{
		Medication:        "Insulin 100IU",
		Quantity:          20,
		ManufacturingDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:        time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC),
		WarehouseID:       otherWarehouse,
		ScanCode:          "BATCH-LIST-2",
		ActorID:           f.warehouser,
	})
	require.NoError(t, err)

	all, err := l.ListBatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := l.ListBatches(ctx, otherWarehouse)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, other.ID, scoped[0].ID)
}
