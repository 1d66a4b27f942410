/*
store.go - Persistence interface for the stock log

APPEND-ONLY CONTRACT:
  - Append(): Single transaction write
  - AppendBatch(): Atomic multi-transaction write (approval pairs)
  - NO Update() or Delete() methods exist

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite file store
  - store/memory/memory.go: In-memory store for tests and dev
*/
package ledger

import "context"

// Store handles persistence of stock transactions.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete.
type Store interface {
	// Append persists one transaction. Returns ErrDuplicateTransaction if
	// the ID exists.
	Append(ctx context.Context, tx StockTransaction) error

	// AppendBatch persists multiple transactions atomically.
	// Either all succeed or none do.
	AppendBatch(ctx context.Context, txs []StockTransaction) error

	// LoadByOwner returns an owner's transactions, oldest first.
	LoadByOwner(ctx context.Context, owner OwnerID) ([]StockTransaction, error)

	// LoadByRequisition returns transactions linked to a requisition, oldest first.
	LoadByRequisition(ctx context.Context, requisitionID string) ([]StockTransaction, error)

	// LoadAll returns the full log, oldest first.
	LoadAll(ctx context.Context) ([]StockTransaction, error)
}
