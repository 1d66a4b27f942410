/*
ledger.go - Append-only stock log and derived balances

PURPOSE:
  The Ledger is the single source of truth for stock. Every intake,
  consumption, issue and refund is a StockTransaction here. There is no
  stored "on hand" number that could drift from the log.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. PAIRS ARE ATOMIC: RecordPair writes both entries or neither.
  3. PURE DERIVATION: CurrentStock/AllBalances depend only on the log.

NEGATIVE BALANCES:
  Stock is allowed to go below zero (the warehouse may issue before intake
  is recorded). The ledger logs a warning when an OUT entry leaves a
  negative balance but never blocks the write.

SEE ALSO:
  - balance.go: Fold/Project helpers used here
  - requisition/service.go: Emits pairs on status transitions
  - inventory/service.go: Direct intake and consumption
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/supply-ledger/metrics"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger records stock movements and derives balances from them.
type Ledger interface {
	// Record appends one entry. The engine does not re-validate quantity;
	// callers guard non-positive values.
	Record(ctx context.Context, e Entry) (StockTransaction, error)

	// RecordPair appends two entries atomically.
	RecordPair(ctx context.Context, first, second Entry) ([]StockTransaction, error)

	// CurrentStock folds the owner's entries for product+variant.
	// An unknown key is 0, not an error.
	CurrentStock(ctx context.Context, owner OwnerID, product ProductID, variant string) (int, error)

	// AllBalances lists every product/variant for an owner, zeros included.
	AllBalances(ctx context.Context, owner OwnerID, products []ProductRef) ([]Balance, error)

	// History returns the owner's log, oldest first.
	History(ctx context.Context, owner OwnerID) ([]StockTransaction, error)

	// ByRequisition returns entries generated for one requisition.
	ByRequisition(ctx context.Context, requisitionID string) ([]StockTransaction, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
	Clock func() time.Time
	NewID func() TransactionID
	Log   logrus.FieldLogger
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{
		Store: store,
		Clock: time.Now,
		NewID: func() TransactionID { return TransactionID("tx-" + uuid.NewString()) },
		Log:   logrus.StandardLogger(),
	}
}

// WithStore returns a copy of the ledger bound to another store, typically
// the transactional view handed out by a TxStore.
func (l *DefaultLedger) WithStore(store Store) *DefaultLedger {
	c := *l
	c.Store = store
	return &c
}

func (l *DefaultLedger) build(e Entry, at time.Time) (StockTransaction, error) {
	if e.Owner == "" {
		return StockTransaction{}, &EntryError{Field: "owner", Reason: "is required"}
	}
	if e.ProductID == "" {
		return StockTransaction{}, &EntryError{Field: "product_id", Reason: "is required"}
	}
	if !e.Direction.Valid() {
		return StockTransaction{}, &EntryError{Field: "direction", Reason: fmt.Sprintf("%q is not IN or OUT", e.Direction)}
	}
	return StockTransaction{
		ID:                   l.NewID(),
		OwnerID:              e.Owner,
		ProductID:            e.ProductID,
		ProductName:          e.ProductName,
		Variant:              e.Variant,
		Quantity:             e.Quantity,
		Direction:            e.Direction,
		Timestamp:            at.UTC(),
		Comment:              e.Comment,
		RelatedRequisitionID: e.RelatedRequisitionID,
	}, nil
}

func (l *DefaultLedger) Record(ctx context.Context, e Entry) (StockTransaction, error) {
	tx, err := l.build(e, l.Clock())
	if err != nil {
		return StockTransaction{}, err
	}
	if err := l.Store.Append(ctx, tx); err != nil {
		return StockTransaction{}, fmt.Errorf("failed to append transaction: %w", err)
	}
	l.observe(ctx, tx)
	return tx, nil
}

func (l *DefaultLedger) RecordPair(ctx context.Context, first, second Entry) ([]StockTransaction, error) {
	at := l.Clock()
	a, err := l.build(first, at)
	if err != nil {
		return nil, err
	}
	b, err := l.build(second, at)
	if err != nil {
		return nil, err
	}

	pair := []StockTransaction{a, b}
	if err := l.Store.AppendBatch(ctx, pair); err != nil {
		return nil, fmt.Errorf("failed to append transaction pair: %w", err)
	}
	for _, tx := range pair {
		l.observe(ctx, tx)
	}
	return pair, nil
}

// observe counts the entry and warns when an OUT left the balance negative.
func (l *DefaultLedger) observe(ctx context.Context, tx StockTransaction) {
	metrics.LedgerEntries.WithLabelValues(string(tx.Direction)).Inc()
	if tx.Direction != DirectionOut {
		return
	}
	stock, err := l.CurrentStock(ctx, tx.OwnerID, tx.ProductID, tx.Variant)
	if err != nil {
		l.Log.WithError(err).Warn("could not recompute stock after OUT entry")
		return
	}
	if stock < 0 {
		l.Log.WithFields(logrus.Fields{
			"owner":   tx.OwnerID,
			"product": tx.ProductID,
			"variant": VariantKey(tx.Variant),
			"stock":   stock,
		}).Warn("stock balance is negative")
	}
}

func (l *DefaultLedger) CurrentStock(ctx context.Context, owner OwnerID, product ProductID, variant string) (int, error) {
	txs, err := l.Store.LoadByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	return StockOf(txs, owner, product, variant), nil
}

func (l *DefaultLedger) AllBalances(ctx context.Context, owner OwnerID, products []ProductRef) ([]Balance, error) {
	txs, err := l.Store.LoadByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return Project(txs, products), nil
}

func (l *DefaultLedger) History(ctx context.Context, owner OwnerID) ([]StockTransaction, error) {
	return l.Store.LoadByOwner(ctx, owner)
}

func (l *DefaultLedger) ByRequisition(ctx context.Context, requisitionID string) ([]StockTransaction, error) {
	return l.Store.LoadByRequisition(ctx, requisitionID)
}
