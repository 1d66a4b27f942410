/*
handlers.go - HTTP API handlers for the supply ledger

PURPOSE:
  Exposes the catalog, requisition workflow, warehouse stock and reports
  over REST. Handles HTTP request/response and JSON serialization, and
  delegates to the domain services.

ENDPOINTS:
  Session:
    POST   /api/login                         Authenticate, returns participant
    GET    /api/me                            Current participant

  Catalog:
    GET    /api/products                      List products
    POST   /api/products                      Add product (authority)
    PUT    /api/products/{id}                 Update product (authority)
    DELETE /api/products/{id}                 Delete product (authority)

  Directory (authority):
    GET    /api/organizations                 List organizations
    POST   /api/organizations                 Add organization
    PUT    /api/organizations/{id}            Update organization
    DELETE /api/organizations/{id}            Delete organization

  Requisitions:           see requisitions.go
  Stock:                  see stock.go
  Reports and settings:   see reports.go

ACCESS:
  Every route except /api/login resolves the caller from the
  X-Participant-ID header (RequireParticipant). Authority-only routes add
  RequireAuthority.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, unknown variant, bad status
  - 401: Missing/unknown participant, bad credentials
  - 403: Wrong role
  - 404: Lookup miss
  - 409: Duplicate username, edit of an approved requisition
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Access checks, login rate limiting
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/inventory"
	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/report"
	"github.com/warp/supply-ledger/requisition"
	"github.com/warp/supply-ledger/validation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// TestSender delivers the settings "test message". notify.Telegram
// implements it.
type TestSender interface {
	SendTest(ctx context.Context, cfg catalog.NotifierConfig) error
}

// Resetter clears all stored data. Both stores implement it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Catalog      *catalog.Service
	Requisitions *requisition.Service
	Inventory    *inventory.Service
	Summarizer   report.Summarizer
	Telegram     TestSender
	Store        Resetter
	Authority    catalog.AuthoritySeed
	Log          logrus.FieldLogger

	CORSOrigins  []string
	LoginLimiter *RateLimiter

	// scenarioMu serializes scenario loads and resets and guards
	// currentScenario.
	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over the domain services. Optional
// collaborators (Summarizer, Telegram, Store) are set on the struct.
func NewHandler(cat *catalog.Service, reqs *requisition.Service, inv *inventory.Service) *Handler {
	return &Handler{
		Catalog:      cat,
		Requisitions: reqs,
		Inventory:    inv,
		Log:          logrus.StandardLogger(),
		LoginLimiter: NewRateLimiter(10),
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Login checks credentials and returns the participant. The client sends
// the returned id as X-Participant-ID afterwards.
// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.Catalog.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.Log.WithField("username", req.Username).Info("login rejected")
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantDTO(p))
}

// Me returns the calling participant.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := participantFrom(r.Context())
	writeJSON(w, http.StatusOK, toParticipantDTO(p))
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// CreateProduct adds a product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Catalog.AddProduct(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProduct rewrites a product. Existing requisitions keep their snapshots.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decode(w, r, &req) {
		return
	}
	id := ledger.ProductID(chi.URLParam(r, "id"))
	p, err := h.Catalog.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct removes a product. Requisitions and ledger rows stay.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := ledger.ProductID(chi.URLParam(r, "id"))
	if err := h.Catalog.DeleteProduct(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ORGANIZATION HANDLERS
// =============================================================================

// ListOrganizations returns every organization.
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Catalog.ListOrganizations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list organizations", err)
		return
	}
	dtos := make([]ParticipantDTO, len(orgs))
	for i, o := range orgs {
		dtos[i] = toParticipantDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateOrganization adds an organization account.
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req OrganizationRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Catalog.AddOrganization(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toParticipantDTO(p))
}

// UpdateOrganization changes name and credentials of an organization.
func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	var req OrganizationRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Catalog.UpdateOrganization(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantDTO(p))
}

// DeleteOrganization removes an organization. Its history stays.
func (h *Handler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteOrganization(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func participantFrom(ctx context.Context) (catalog.Participant, bool) {
	p, ok := ctx.Value(participantKey).(catalog.Participant)
	return p, ok
}

// decode reads the JSON body into dst, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	// an empty body is validated as the zero value
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := validation.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Validation failed",
		Details: err.Error(),
		Fields:  validation.Fields(err),
	})
}

// writeDomainError maps service errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	if validation.Fields(err) != nil {
		writeValidationError(w, err)
		return
	}

	switch {
	case errors.Is(err, catalog.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, requisition.ErrNotRequester),
		errors.Is(err, catalog.ErrAuthorityImmutable):
		writeError(w, http.StatusForbidden, "Not allowed", err)
	case requisition.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, catalog.ErrDuplicateUsername),
		errors.Is(err, requisition.ErrEditApproved),
		errors.Is(err, ledger.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, catalog.ErrUnknownVariant),
		errors.Is(err, requisition.ErrInvalidStatus),
		errors.Is(err, ledger.ErrInvalidEntry):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
