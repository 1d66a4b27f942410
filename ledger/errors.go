/*
errors.go - Error types for the ledger engine

PURPOSE:
  Sentinel errors for ledger persistence. Callers wrap these with context
  and match them with errors.Is.

SEE ALSO:
  - store.go: Implementations return these errors
  - requisition/errors.go: Requisition-level errors built on the same pattern
*/
package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTransaction is returned when a transaction ID already
	// exists in the log. Appends never overwrite.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")

	// ErrInvalidEntry is returned when an entry is structurally malformed
	// (missing owner/product, unknown direction).
	ErrInvalidEntry = errors.New("invalid ledger entry")
)

// EntryError carries the offending field of a malformed entry.
type EntryError struct {
	Field  string
	Reason string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("invalid ledger entry: %s %s", e.Field, e.Reason)
}

func (e *EntryError) Unwrap() error {
	return ErrInvalidEntry
}
