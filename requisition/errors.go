package requisition

import (
	"errors"
	"fmt"

	"github.com/warp/supply-ledger/catalog"
)

var (
	ErrNotFound      = errors.New("requisition not found")
	ErrInvalidStatus = errors.New("invalid requisition status")
	ErrNotRequester  = errors.New("only organizations can submit requisitions")

	// ErrEditApproved is returned when an edit would change product,
	// variant or quantity of an approved requisition. Those fields already
	// moved stock; revert the approval first.
	ErrEditApproved = errors.New("cannot change product, variant or quantity of an approved requisition")
)

// IsNotFound returns true for requisition and catalog lookup misses.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || catalog.IsNotFound(err)
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
