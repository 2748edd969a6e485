package ledger

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Error kinds returned by ledger operations. Every failure wraps exactly
// one of these, so callers can dispatch with errors.Is.
var (
	// ErrValidation means the input was malformed: non-positive quantity,
	// bad dates, duplicate scan code, missing fields.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means a referenced batch, dispatch, patient, hospital or
	// warehouse does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means a status change violates the lifecycle
	// order created -> dispatched -> received -> administered.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrBatchNotAvailable means a dispatch was attempted on a batch that
	// has already left the created state.
	ErrBatchNotAvailable = errors.New("batch not available for dispatch")

	// ErrAlreadyReceived means receipt was confirmed twice for the same
	// dispatch. The second confirmation must not double-credit stock.
	ErrAlreadyReceived = errors.New("dispatch already received")

	// ErrBatchNotReceived means usage was recorded against a batch that
	// never reached the received state.
	ErrBatchNotReceived = errors.New("batch not received")

	// ErrInsufficientQuantity means the requested quantity exceeds what the
	// operation's rule allows.
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrConcurrencyConflict means the operation lost a race on the batch
	// or dispatch row. It is always safe to retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// Kind returns a stable machine-readable name for the ledger error kind
// wrapped in err, or "" if err carries none.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrBatchNotAvailable):
		return "batch_not_available"
	case errors.Is(err, ErrAlreadyReceived):
		return "already_received"
	case errors.Is(err, ErrBatchNotReceived):
		return "batch_not_received"
	case errors.Is(err, ErrInsufficientQuantity):
		return "insufficient_quantity"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	}
	return ""
}

// isBusy reports whether err is a SQLITE_BUSY/SQLITE_LOCKED driver error,
// i.e. the per-database write lock could not be acquired in time.
func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

// wrapConflict converts driver lock contention into ErrConcurrencyConflict
// and passes every other error through unchanged.
func wrapConflict(err error) error {
	if err == nil {
		return nil
	}
	if isBusy(err) {
		return errors.Join(ErrConcurrencyConflict, err)
	}
	return err
}
