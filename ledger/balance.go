/*
balance.go - Deriving stock from the log

The fold is a signed sum, so it is commutative: the same multiset of
transactions gives the same balances in any order. That is what makes
recomputation after out-of-order loads safe.
*/
package ledger

import "sort"

// Signed returns the transaction's contribution to its balance.
func Signed(tx StockTransaction) int {
	if tx.Direction == DirectionOut {
		return -tx.Quantity
	}
	return tx.Quantity
}

// Fold sums transactions per key. Owner filtering is the caller's job.
func Fold(txs []StockTransaction) map[StockKey]int {
	totals := make(map[StockKey]int)
	for _, tx := range txs {
		totals[tx.Key()] += Signed(tx)
	}
	return totals
}

// StockOf folds only the transactions matching owner/product/variant.
func StockOf(txs []StockTransaction, owner OwnerID, product ProductID, variant string) int {
	key := StockKey{ProductID: product, Variant: VariantKey(variant)}
	total := 0
	for _, tx := range txs {
		if tx.OwnerID == owner && tx.Key() == key {
			total += Signed(tx)
		}
	}
	return total
}

// Project turns folded totals into balance rows. Every catalog product gets
// a row per variant (or one NoVariant row), zero or not. Keys found only in
// the log (e.g. a deleted product) are appended after the catalog rows,
// named from the most recent transaction snapshot.
func Project(txs []StockTransaction, products []ProductRef) []Balance {
	totals := Fold(txs)

	var rows []Balance
	seen := make(map[StockKey]bool)
	for _, p := range products {
		variants := p.Variants
		if len(variants) == 0 {
			variants = []string{NoVariant}
		}
		for _, v := range variants {
			key := StockKey{ProductID: p.ID, Variant: VariantKey(v)}
			if seen[key] {
				continue
			}
			seen[key] = true
			rows = append(rows, Balance{
				ProductID:   p.ID,
				ProductName: p.Name,
				Variant:     key.Variant,
				Quantity:    totals[key],
			})
		}
	}

	names := make(map[StockKey]string)
	for _, tx := range txs {
		names[tx.Key()] = tx.ProductName
	}

	var orphans []Balance
	for key, qty := range totals {
		if seen[key] {
			continue
		}
		orphans = append(orphans, Balance{
			ProductID:   key.ProductID,
			ProductName: names[key],
			Variant:     key.Variant,
			Quantity:    qty,
		})
	}
	sort.Slice(orphans, func(i, j int) bool {
		if orphans[i].ProductID != orphans[j].ProductID {
			return orphans[i].ProductID < orphans[j].ProductID
		}
		return orphans[i].Variant < orphans[j].Variant
	})

	return append(rows, orphans...)
}
