package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/requisition"
)

// =============================================================================
// REQUISITION HANDLERS
// =============================================================================

// CreateRequisition submits a requisition for the calling organization.
// POST /api/requisitions
func (h *Handler) CreateRequisition(w http.ResponseWriter, r *http.Request) {
	var req CreateRequisitionRequest
	if !decode(w, r, &req) {
		return
	}
	caller, _ := participantFrom(r.Context())

	created, err := h.Requisitions.Create(r.Context(), caller, req.draft())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListRequisitions returns requisitions, newest first. Organizations only
// see their own; the Authority may filter with ?org=. Both may filter with
// ?status=.
// GET /api/requisitions
func (h *Handler) ListRequisitions(w http.ResponseWriter, r *http.Request) {
	caller, _ := participantFrom(r.Context())

	f := requisition.Filter{Status: requisition.Status(r.URL.Query().Get("status"))}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status filter", nil)
		return
	}
	if caller.IsAuthority() {
		f.RequesterID = r.URL.Query().Get("org")
	} else {
		f.RequesterID = caller.ID
	}

	list, err := h.Requisitions.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requisitions", err)
		return
	}
	if list == nil {
		list = []requisition.Requisition{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetRequisition returns one requisition. Organizations may only read
// their own.
// GET /api/requisitions/{id}
func (h *Handler) GetRequisition(w http.ResponseWriter, r *http.Request) {
	rq, ok := h.visibleRequisition(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rq)
}

// GetRequisitionTransactions returns the ledger entries a requisition produced.
// GET /api/requisitions/{id}/transactions
func (h *Handler) GetRequisitionTransactions(w http.ResponseWriter, r *http.Request) {
	rq, ok := h.visibleRequisition(w, r)
	if !ok {
		return
	}
	txs, err := h.Requisitions.Transactions(r.Context(), rq.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load transactions", err)
		return
	}
	if txs == nil {
		txs = []ledger.StockTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// EditRequisition applies an Authority correction.
// PUT /api/requisitions/{id}
func (h *Handler) EditRequisition(w http.ResponseWriter, r *http.Request) {
	var req EditRequisitionRequest
	if !decode(w, r, &req) {
		return
	}
	updated, err := h.Requisitions.Edit(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// SetRequisitionStatus approves, rejects or resets a requisition and
// returns the ledger entries the change produced.
// POST /api/requisitions/{id}/status
func (h *Handler) SetRequisitionStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decode(w, r, &req) {
		return
	}
	updated, txs, err := h.Requisitions.SetStatus(r.Context(), chi.URLParam(r, "id"), requisition.Status(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []ledger.StockTransaction{}
	}
	writeJSON(w, http.StatusOK, StatusChangeDTO{
		Requisition:  updated,
		Effect:       requisition.EffectOf(txs),
		Transactions: txs,
	})
}

// DeleteRequisition removes a requisition; its ledger entries stay.
// DELETE /api/requisitions/{id}
func (h *Handler) DeleteRequisition(w http.ResponseWriter, r *http.Request) {
	if err := h.Requisitions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) visibleRequisition(w http.ResponseWriter, r *http.Request) (requisition.Requisition, bool) {
	caller, _ := participantFrom(r.Context())
	rq, err := h.Requisitions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return requisition.Requisition{}, false
	}
	if !caller.IsAuthority() && rq.RequesterID != caller.ID {
		writeError(w, http.StatusNotFound, "Not found", nil)
		return requisition.Requisition{}, false
	}
	return rq, true
}
