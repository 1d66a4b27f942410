package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/supply-ledger/ledger"
)

// =============================================================================
// STOCK HANDLERS
// =============================================================================

// AddCentralStock records intake into the Authority warehouse.
// POST /api/stock/intake
func (h *Handler) AddCentralStock(w http.ResponseWriter, r *http.Request) {
	var req StockEntryRequest
	if !decode(w, r, &req) {
		return
	}
	tx, ok, err := h.Inventory.AddCentralStock(r.Context(), ledger.ProductID(req.ProductID), req.Variant, req.Quantity, req.Comment)
	writeStockEntry(w, tx, ok, err)
}

// RecordConsumption records usage by the calling organization.
// POST /api/stock/consumption
func (h *Handler) RecordConsumption(w http.ResponseWriter, r *http.Request) {
	var req StockEntryRequest
	if !decode(w, r, &req) {
		return
	}
	caller, _ := participantFrom(r.Context())
	tx, ok, err := h.Inventory.RecordConsumption(r.Context(), caller.Owner(), ledger.ProductID(req.ProductID), req.Variant, req.Quantity, req.Comment)
	writeStockEntry(w, tx, ok, err)
}

func writeStockEntry(w http.ResponseWriter, tx ledger.StockTransaction, ok bool, err error) {
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, StockEntryDTO{Recorded: false})
		return
	}
	writeJSON(w, http.StatusCreated, StockEntryDTO{Recorded: true, Transaction: &tx})
}

// GetWarehouse lists every product/variant with its current quantity for
// an owner. "me" is the caller's own ledger; other owners need the Authority.
// GET /api/stock/{owner}
func (h *Handler) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	owner, ok := resolveOwner(w, r)
	if !ok {
		return
	}
	balances, err := h.Inventory.Warehouse(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stock", err)
		return
	}
	if balances == nil {
		balances = []ledger.Balance{}
	}
	writeJSON(w, http.StatusOK, WarehouseDTO{Owner: owner, Balances: balances})
}

// GetStockTransactions returns an owner's stock log, oldest first.
// GET /api/stock/{owner}/transactions
func (h *Handler) GetStockTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := resolveOwner(w, r)
	if !ok {
		return
	}
	txs, err := h.Inventory.History(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load transactions", err)
		return
	}
	if txs == nil {
		txs = []ledger.StockTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func resolveOwner(w http.ResponseWriter, r *http.Request) (ledger.OwnerID, bool) {
	caller, _ := participantFrom(r.Context())
	param := chi.URLParam(r, "owner")
	if param == "" || param == "me" {
		return caller.Owner(), true
	}
	owner := ledger.OwnerID(param)
	if !caller.IsAuthority() && owner != caller.Owner() {
		writeError(w, http.StatusForbidden, "Authority access required", nil)
		return "", false
	}
	return owner, true
}
