// Package memory provides an in-memory implementation of every store
// interface (ledger, catalog, requisition). It backs the unit tests and
// the server when started with -db=memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/requisition"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	state
}

// state is everything WithTx snapshots and restores.
type state struct {
	transactions []ledger.StockTransaction
	txIDs        map[ledger.TransactionID]bool

	products     map[ledger.ProductID]catalog.Product
	productOrder []ledger.ProductID

	participants map[string]catalog.Participant
	partOrder    []string

	requisitions map[string]requisition.Requisition
	notifier     catalog.NotifierConfig
}

func New() *Memory {
	return &Memory{state: newState()}
}

func newState() state {
	return state{
		txIDs:        make(map[ledger.TransactionID]bool),
		products:     make(map[ledger.ProductID]catalog.Product),
		participants: make(map[string]catalog.Participant),
		requisitions: make(map[string]requisition.Requisition),
	}
}

func (s state) clone() state {
	c := newState()
	c.transactions = append([]ledger.StockTransaction(nil), s.transactions...)
	for k, v := range s.txIDs {
		c.txIDs[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	c.productOrder = append([]ledger.ProductID(nil), s.productOrder...)
	for k, v := range s.participants {
		c.participants[k] = v
	}
	c.partOrder = append([]string(nil), s.partOrder...)
	for k, v := range s.requisitions {
		c.requisitions[k] = v
	}
	c.notifier = s.notifier
	return c
}

// =============================================================================
// LEDGER (ledger.Store)
// =============================================================================

func (m *Memory) Append(_ context.Context, tx ledger.StockTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked([]ledger.StockTransaction{tx})
}

func (m *Memory) AppendBatch(_ context.Context, txs []ledger.StockTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(txs)
}

// appendLocked checks every id before writing any, so a batch is all-or-nothing.
func (m *Memory) appendLocked(txs []ledger.StockTransaction) error {
	batch := make(map[ledger.TransactionID]bool, len(txs))
	for _, tx := range txs {
		if m.txIDs[tx.ID] || batch[tx.ID] {
			return ledger.ErrDuplicateTransaction
		}
		batch[tx.ID] = true
	}
	for _, tx := range txs {
		m.transactions = append(m.transactions, tx)
		m.txIDs[tx.ID] = true
	}
	return nil
}

func (m *Memory) LoadByOwner(_ context.Context, owner ledger.OwnerID) ([]ledger.StockTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterLocked(func(tx ledger.StockTransaction) bool { return tx.OwnerID == owner }), nil
}

func (m *Memory) LoadByRequisition(_ context.Context, requisitionID string) ([]ledger.StockTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterLocked(func(tx ledger.StockTransaction) bool { return tx.RelatedRequisitionID == requisitionID }), nil
}

func (m *Memory) LoadAll(_ context.Context) ([]ledger.StockTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterLocked(func(ledger.StockTransaction) bool { return true }), nil
}

func (m *Memory) filterLocked(keep func(ledger.StockTransaction) bool) []ledger.StockTransaction {
	var out []ledger.StockTransaction
	for _, tx := range m.transactions {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	// stable on insertion order for equal timestamps
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// =============================================================================
// CATALOG (catalog.Store)
// =============================================================================

func (m *Memory) ListProducts(_ context.Context) ([]catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Product, 0, len(m.productOrder))
	for _, id := range m.productOrder {
		out = append(out, cloneProduct(m.products[id]))
	}
	return out, nil
}

func (m *Memory) GetProduct(_ context.Context, id ledger.ProductID) (*catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	c := cloneProduct(p)
	return &c, nil
}

func (m *Memory) SaveProduct(_ context.Context, p catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		m.productOrder = append(m.productOrder, p.ID)
	}
	m.products[p.ID] = cloneProduct(p)
	return nil
}

func (m *Memory) DeleteProduct(_ context.Context, id ledger.ProductID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	m.productOrder = removeID(m.productOrder, id)
	return nil
}

func (m *Memory) ListParticipants(_ context.Context) ([]catalog.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Participant, 0, len(m.partOrder))
	for _, id := range m.partOrder {
		out = append(out, m.participants[id])
	}
	return out, nil
}

func (m *Memory) GetParticipant(_ context.Context, id string) (*catalog.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) FindParticipantByUsername(_ context.Context, username string) (*catalog.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.partOrder {
		if p := m.participants[id]; p.Username == username {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) SaveParticipant(_ context.Context, p catalog.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.participants[p.ID]; !ok {
		m.partOrder = append(m.partOrder, p.ID)
	}
	m.participants[p.ID] = p
	return nil
}

func (m *Memory) DeleteParticipant(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.participants, id)
	m.partOrder = removeID(m.partOrder, id)
	return nil
}

func (m *Memory) LoadNotifierConfig(_ context.Context) (catalog.NotifierConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notifier, nil
}

func (m *Memory) SaveNotifierConfig(_ context.Context, cfg catalog.NotifierConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = cfg
	return nil
}

// =============================================================================
// REQUISITIONS (requisition.Store)
// =============================================================================

func (m *Memory) SaveRequisition(_ context.Context, r requisition.Requisition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requisitions[r.ID] = r
	return nil
}

func (m *Memory) GetRequisition(_ context.Context, id string) (*requisition.Requisition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getRequisitionLocked(id), nil
}

func (m *Memory) getRequisitionLocked(id string) *requisition.Requisition {
	r, ok := m.requisitions[id]
	if !ok {
		return nil
	}
	return &r
}

func (m *Memory) ListRequisitions(_ context.Context, f requisition.Filter) ([]requisition.Requisition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRequisitionsLocked(f), nil
}

func (m *Memory) listRequisitionsLocked(f requisition.Filter) []requisition.Requisition {
	var out []requisition.Requisition
	for _, r := range m.requisitions {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Memory) DeleteRequisition(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requisitions, id)
	return nil
}

// =============================================================================
// TRANSACTIONS (requisition.TxStore)
// =============================================================================

// WithTx runs fn against a view that writes directly to the store while
// holding the lock. On error the pre-call snapshot is restored.
func (m *Memory) WithTx(_ context.Context, fn func(requisition.Store, ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	view := &txView{parent: m}
	if err := fn(view, view); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// txView is the lock-free view handed to WithTx callbacks.
type txView struct {
	parent *Memory
}

func (v *txView) Append(_ context.Context, tx ledger.StockTransaction) error {
	return v.parent.appendLocked([]ledger.StockTransaction{tx})
}

func (v *txView) AppendBatch(_ context.Context, txs []ledger.StockTransaction) error {
	return v.parent.appendLocked(txs)
}

func (v *txView) LoadByOwner(_ context.Context, owner ledger.OwnerID) ([]ledger.StockTransaction, error) {
	return v.parent.filterLocked(func(tx ledger.StockTransaction) bool { return tx.OwnerID == owner }), nil
}

func (v *txView) LoadByRequisition(_ context.Context, requisitionID string) ([]ledger.StockTransaction, error) {
	return v.parent.filterLocked(func(tx ledger.StockTransaction) bool { return tx.RelatedRequisitionID == requisitionID }), nil
}

func (v *txView) LoadAll(_ context.Context) ([]ledger.StockTransaction, error) {
	return v.parent.filterLocked(func(ledger.StockTransaction) bool { return true }), nil
}

func (v *txView) SaveRequisition(_ context.Context, r requisition.Requisition) error {
	v.parent.requisitions[r.ID] = r
	return nil
}

func (v *txView) GetRequisition(_ context.Context, id string) (*requisition.Requisition, error) {
	return v.parent.getRequisitionLocked(id), nil
}

func (v *txView) ListRequisitions(_ context.Context, f requisition.Filter) ([]requisition.Requisition, error) {
	return v.parent.listRequisitionsLocked(f), nil
}

func (v *txView) DeleteRequisition(_ context.Context, id string) error {
	delete(v.parent.requisitions, id)
	return nil
}

// Reset clears every collection.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = newState()
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func cloneProduct(p catalog.Product) catalog.Product {
	p.Variants = append([]string{}, p.Variants...)
	return p
}

func removeID[T comparable](ids []T, id T) []T {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
