package requisition

import (
	"context"

	"github.com/warp/supply-ledger/ledger"
)

// Store persists requisitions. GetRequisition returns (nil, nil) on a miss.
type Store interface {
	SaveRequisition(ctx context.Context, r Requisition) error
	GetRequisition(ctx context.Context, id string) (*Requisition, error)
	ListRequisitions(ctx context.Context, f Filter) ([]Requisition, error)
	DeleteRequisition(ctx context.Context, id string) error
}

// TxStore runs fn with a requisition store and a ledger store bound to the
// same transaction. If fn returns an error nothing fn wrote is kept.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store, ledger.Store) error) error
}
