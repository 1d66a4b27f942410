/*
Package ledger provides the stock ledger engine.

PURPOSE:
  This package holds the append-only log of stock movements and derives
  on-hand quantities from it. The central warehouse and every organization
  own a separate ledger, addressed by OwnerID; there is no shared mutable
  "stock" record anywhere. Current stock is always a fold over the log.

KEY CONCEPTS IN THIS FILE (types.go):
  - StockTransaction: An immutable IN/OUT entry against one owner's ledger
  - StockKey: (product, variant) pair used as the balance key
  - Balance: One derived row of a warehouse view
  - ProductRef: The minimal catalog view the engine needs for full listings

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified; corrections are new entries
  2. Derivation: Balance = sum(IN) - sum(OUT), recomputed on demand
  3. Snapshots: Product name is copied into each transaction so catalog edits
     never rewrite history

USAGE:
  l := ledger.NewLedger(store)
  tx, err := l.Record(ctx, ledger.Entry{
      Owner:     ledger.AuthorityID,
      ProductID: "p1",
      Variant:   "0.200",
      Quantity:  10,
      Direction: ledger.DirectionIn,
  })

SEE ALSO:
  - ledger.go: Ledger operations (record, derive)
  - balance.go: Pure fold helpers
  - store.go: Persistence interface
*/
package ledger

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OwnerID string
type ProductID string
type TransactionID string

// AuthorityID is the reserved owner of the central warehouse ledger.
const AuthorityID OwnerID = "admin"

// NoVariant is the balance key used for products without variants.
const NoVariant = "default"

// VariantKey normalizes a stored variant into a balance key.
func VariantKey(variant string) string {
	if variant == "" {
		return NoVariant
	}
	return variant
}

// =============================================================================
// DIRECTION
// =============================================================================

type Direction string

const (
	DirectionIn  Direction = "IN"  // Stock received (intake, issue to org, refund)
	DirectionOut Direction = "OUT" // Stock leaving (issue from warehouse, consumption, clawback)
)

func (d Direction) Valid() bool { return d == DirectionIn || d == DirectionOut }

// Inverse returns the opposite direction.
func (d Direction) Inverse() Direction {
	if d == DirectionIn {
		return DirectionOut
	}
	return DirectionIn
}

// =============================================================================
// STOCK TRANSACTION - Immutable ledger entry
// =============================================================================

type StockTransaction struct {
	ID          TransactionID `json:"id"`
	OwnerID     OwnerID       `json:"owner_id"`
	ProductID   ProductID     `json:"product_id"`
	ProductName string        `json:"product_name"`
	Variant     string        `json:"variant,omitempty"`
	Quantity    int           `json:"quantity"`
	Direction   Direction     `json:"direction"`
	Timestamp   time.Time     `json:"timestamp"`
	Comment     string        `json:"comment,omitempty"`

	// RelatedRequisitionID links system-generated entries to the
	// requisition whose status change produced them.
	RelatedRequisitionID string `json:"related_requisition_id,omitempty"`
}

// Key returns the balance key of the transaction.
func (tx StockTransaction) Key() StockKey {
	return StockKey{ProductID: tx.ProductID, Variant: VariantKey(tx.Variant)}
}

// Entry is the caller-supplied part of a transaction. The ledger assigns
// ID and Timestamp.
type Entry struct {
	Owner                OwnerID
	ProductID            ProductID
	ProductName          string
	Variant              string
	Quantity             int
	Direction            Direction
	Comment              string
	RelatedRequisitionID string
}

// =============================================================================
// BALANCES
// =============================================================================

// StockKey identifies one balance line within an owner's ledger.
type StockKey struct {
	ProductID ProductID
	Variant   string // already normalized with VariantKey
}

type Balance struct {
	ProductID   ProductID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Variant     string    `json:"variant"`
	Quantity    int       `json:"quantity"`
}

// ProductRef is the catalog view the engine needs to list every
// product/variant, including ones with no movement yet.
type ProductRef struct {
	ID       ProductID
	Name     string
	Variants []string
}
