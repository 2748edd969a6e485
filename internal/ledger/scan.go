package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"sihacare/m/domain"
)

// ResolveScanCode maps a decoded scanner payload to a batch. An exact
// scan-code match always wins. Failing that, a normalized match
// (whitespace-insensitive, case-insensitive, substring-tolerant) is tried,
// but only against batches with an open dispatch — a fuzzy match must never
// credit a receipt to an already-received or administered batch.
func (l *Ledger) ResolveScanCode(ctx context.Context, code string) (*domain.Batch, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("scan code is required: %w", ErrValidation)
	}

	var batch domain.Batch
	err := l.db.GetContext(ctx, &batch, `SELECT * FROM batches WHERE scan_code = ?`, code)
	if err == nil {
		return &batch, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolving scan code: %w", err)
	}

	var candidates []domain.Batch
	err = l.db.SelectContext(ctx, &candidates,
		`SELECT DISTINCT b.* FROM batches b
		 JOIN dispatches d ON d.batch_id = b.id
		 WHERE d.status IN (?, ?)`,
		domain.DispatchPending, domain.DispatchInTransit)
	if err != nil {
		return nil, fmt.Errorf("loading open dispatches: %w", err)
	}

	normalized := normalizeScanCode(code)
	var match *domain.Batch
	for i := range candidates {
		candidate := normalizeScanCode(candidates[i].ScanCode)
		if candidate == normalized ||
			strings.Contains(candidate, normalized) ||
			strings.Contains(normalized, candidate) {
			if match != nil && match.ID != candidates[i].ID {
				return nil, fmt.Errorf("scan code %q matches multiple batches: %w", code, ErrValidation)
			}
			match = &candidates[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("scan code %q: %w", code, ErrNotFound)
	}
	return match, nil
}

// ReceiveByScanCode resolves a scanned code and confirms receipt of the
// batch's open dispatch. Re-scanning an already-received batch yields
// ErrAlreadyReceived rather than a double credit.
func (l *Ledger) ReceiveByScanCode(ctx context.Context, code string, receivingActorID int64) (*domain.Dispatch, error) {
	batch, err := l.ResolveScanCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var dispatchID string
	err = l.db.GetContext(ctx, &dispatchID,
		`SELECT id FROM dispatches WHERE batch_id = ? AND status IN (?, ?)
		 ORDER BY dispatched_at LIMIT 1`,
		batch.ID, domain.DispatchPending, domain.DispatchInTransit)
	if errors.Is(err, sql.ErrNoRows) {
		var received int
		if err := l.db.GetContext(ctx, &received,
			`SELECT COUNT(*) FROM dispatches WHERE batch_id = ? AND status = ?`,
			batch.ID, domain.DispatchReceived); err != nil {
			return nil, fmt.Errorf("checking dispatches: %w", err)
		}
		if received > 0 {
			return nil, fmt.Errorf("batch %s: %w", batch.ID, ErrAlreadyReceived)
		}
		return nil, fmt.Errorf("batch %s has no pending delivery: %w", batch.ID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding open dispatch: %w", err)
	}

	return l.ConfirmReceipt(ctx, dispatchID, receivingActorID)
}

// normalizeScanCode strips all whitespace and lowercases the code, so that
// OCR artifacts like inserted spaces or case flips still resolve.
func normalizeScanCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
