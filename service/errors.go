package service

import "errors"

// Business-rule and validation failures surfaced to the HTTP layer. Handlers
// map these to statuses and machine-readable codes; everything else is a
// server error.
var (
	ErrInvalidCount        = errors.New("count must be a positive integer")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrMissingTxID         = errors.New("missing txid")
	ErrNoDepositAddress    = errors.New("no deposit address yet")
)

// errWriteConflict marks a guarded update that lost to a concurrent writer.
// The enclosing transaction is retried, never surfaced.
var errWriteConflict = errors.New("optimistic write conflict")

const conflictRetries = 3

// withConflictRetry re-runs fn while it reports a write conflict, up to a
// small bound. fn must be a full transaction: it re-reads state on each
// attempt.
func withConflictRetry(fn func() error) error {
	var err error
	for i := 0; i < conflictRetries; i++ {
		err = fn()
		if !errors.Is(err, errWriteConflict) {
			return err
		}
	}
	return err
}
