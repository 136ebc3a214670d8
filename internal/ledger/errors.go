package ledger

import "errors"

var (
	// ErrPersistence is returned when the backing store rejects a write.
	// The in-memory state is rolled back before Record returns, so a
	// caller may retry the same event.
	ErrPersistence = errors.New("ledger persistence failed")

	// ErrCorruptState is returned when a restored snapshot violates the
	// ledger invariants. The running state is left untouched.
	ErrCorruptState = errors.New("corrupt ledger state")
)
