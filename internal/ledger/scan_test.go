package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"sihacare/m/domain"
)

func TestResolveScanCodeExact(t *testing.T) {
	l, _, f := newTestLedger(t)

	batch := createTestBatch(t, l, f, 10, "BATCH-SCAN-EXACT")
	got, err := l.ResolveScanCode(context.Background(), "BATCH-SCAN-EXACT")
	require.NoError(t, err)
	require.Equal(t, batch.ID, got.ID)
}

// An exact match works regardless of dispatch state; the fuzzy fallback is
// restricted to batches with an open dispatch.
func TestResolveScanCodeNormalizedFallback(t *testing.T) {
	l, _, f := newTestLedger(t)
	ctx := context.Background()

	batch := createTestBatch(t, l, f, 10, "BATCH-SCAN-FUZZ")

	// No open dispatch yet: the fuzzy path finds nothing.
	_, err := l.ResolveScanCode(ctx, "batch scan fuzz")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = l.CreateDispatch(ctx, CreateDispatchParams{
		BatchID: batch.ID, WarehouseID: f.warehouseID, HospitalID: f.hospitalID,
		Quantity: 10, ActorID: f.warehouser,
	})
	require.NoError(t, err)

	// Whitespace and case differences are tolerated now.
	got, err := l.ResolveScanCode(ctx, "batch - scan - fuzz")
	require.NoError(t, err)
	require.Equal(t, batch.ID, got.ID)

	// A substring of the code resolves too (partial OCR read).
	got, err = l.ResolveScanCode(ctx, "SCAN-FUZZ")
	require.NoError(t, err)
	require.Equal(t, batch.ID, got.ID)
}

func TestResolveScanCodeNeverFuzzyMatchesReceived(t *testing.T) {
	l, _, f := newTestLedger(t)
	ctx := context.Background()

	batch := receivedBatch(t, l, f, 10, "BATCH-SCAN-DONE")

	// Exact still resolves.
	got, err := l.ResolveScanCode(ctx, "BATCH-SCAN-DONE")
	require.NoError(t, err)
	require.Equal(t, batch.ID, got.ID)

	// Fuzzy must not: mis-crediting a receipt to a received batch is worse
	// than failing the scan.
	_, err = l.ResolveScanCode(ctx, "batch scan done")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveScanCodeAmbiguous(t *testing.T) {
	l, _, f := newTestLedger(t)
	ctx := context.Background()

	for _, code := range []string{"BATCH-AMB-1", "BATCH-AMB-2"} {
		batch := createTestBatch(t, l, f, 10, code)
		_, err := l.CreateDispatch(ctx, CreateDispatchParams{
			BatchID: batch.ID, WarehouseID: f.warehouseID, HospitalID: f.hospitalID,
			Quantity: 10, ActorID: f.warehouser,
		})
		require.NoError(t, err)
	}

	_, err := l.ResolveScanCode(ctx, "BATCH-AMB")
	require.ErrorIs(t, err, ErrValidation)
}

func TestReceiveByScanCode(t *testing.T) {
	l, _, f := newTestLedger(t)
	ctx := context.Background()

	batch := createTestBatch(t, l, f, 10, "BATCH-SCAN-RCV")
	_, err := l.CreateDispatch(ctx, CreateDispatchParams{
		BatchID: batch.ID, WarehouseID: f.warehouseID, HospitalID: f.hospitalID,
		Quantity: 10, ActorID: f.warehouser,
	})
	require.NoError(t, err)

	dispatch, err := l.ReceiveByScanCode(ctx, "BATCH-SCAN-RCV", f.receiver)
	require.NoError(t, err)
	require.Equal(t, domain.DispatchReceived, dispatch.Status)

	// Re-scanning the same physical label is a no-op error, not a second credit.
	_, err = l.ReceiveByScanCode(ctx, "BATCH-SCAN-RCV", f.receiver)
	require.ErrorIs(t, err, ErrAlreadyReceived)
}

func TestReceiveByScanCodeNoDispatch(t *testing.T) {
	l, _, f := newTestLedger(t)

	createTestBatch(t, l, f, 10, "BATCH-SCAN-NODISP")
	_, err := l.ReceiveByScanCode(context.Background(), "BATCH-SCAN-NODISP", f.receiver)
	require.ErrorIs(t, err, ErrNotFound)
}
