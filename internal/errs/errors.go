package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
	// ErrInsufficientFunds rejects budget allocations exceeding the available balance.
	ErrInsufficientFunds = errors.New("insufficient_funds")
	// ErrCatchUpTruncated signals that recurring replay hit its safety ceiling
	// and stopped with progress persisted.
	ErrCatchUpTruncated = errors.New("catch_up_truncated")
	// ErrAlreadyRunning signals that a catch-up pass is already in flight.
	ErrAlreadyRunning = errors.New("already_running")
)
