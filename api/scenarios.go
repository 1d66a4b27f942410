/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos. Each scenario goes through the domain services, so the
	ledger it produces is exactly what real usage would produce.

AVAILABLE SCENARIOS:

	fresh-install:    Seed catalog and the Authority account only
	regional-clinics: Three clinics, central intake, requisitions in every
	                  status, clinic consumption
	revert-approval:  An approval undone, showing the paired refund entries

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Install the seed catalog and the Authority account
 3. Create organizations
 4. Record central intake
 5. Submit requisitions and move them through statuses

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "regional-clinics"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler dependencies
  - catalog/seed.go: Seed data
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/requisition"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-install",
		Name:        "Fresh Install",
		Description: "Seed catalog and the central Authority account, no activity",
	},
	{
		ID:          "regional-clinics",
		Name:        "Regional Clinics",
		Description: "Three clinics with pending, approved and rejected requisitions and recorded consumption",
	},
	{
		ID:          "revert-approval",
		Name:        "Reverted Approval",
		Description: "An approved requisition moved back to pending, with refund and clawback entries",
	},
}

type ScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if !decode(w, r, &req) {
		return
	}

	var loader func(ctx context.Context) error
	switch req.ScenarioID {
	case "fresh-install":
		loader = func(context.Context) error { return nil }
	case "regional-clinics":
		loader = h.loadRegionalClinicsScenario
	case "revert-approval":
		loader = h.loadRevertApprovalScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	ctx := r.Context()
	if err := h.resetAndSeed(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	if err := loader(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Log.WithField("scenario", req.ScenarioID).Info("demo scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears everything and reinstalls the seed data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.resetAndSeed(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// resetAndSeed must be called with scenarioMu held.
func (h *Handler) resetAndSeed(ctx context.Context) error {
	if h.Store == nil {
		return fmt.Errorf("store does not support reset")
	}
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.currentScenario = ""
	return h.Catalog.EnsureSeed(ctx, h.Authority)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadRegionalClinicsScenario(ctx context.Context) error {
	clinics, err := h.addClinics(ctx,
		catalog.OrganizationInput{Name: "Shahar Klinik Shifoxonasi", Username: "klinika1", Password: "demo"},
		catalog.OrganizationInput{Name: "Viloyat Tug'ruq Majmuasi", Username: "tugruq", Password: "demo"},
		catalog.OrganizationInput{Name: "Tuman Tibbiyot Birlashmasi", Username: "tuman", Password: "demo"},
	)
	if err != nil {
		return err
	}

	if err := h.addIntake(ctx,
		intake{"p1", "0.200", 40},
		intake{"p1", "0.250", 25},
		intake{"p2", "0.263", 30},
		intake{"p5", "0.400", 12},
		intake{"p6", "", 50},
	); err != nil {
		return err
	}

	type step struct {
		clinic int
		draft  requisition.Draft
		status requisition.Status
	}
	steps := []step{
		{0, requisition.Draft{ProductID: "p1", Variant: "0.200", BloodGroup: "A(II)", Quantity: 6, Comment: "Reanimatsiya bo'limi"}, requisition.StatusApproved},
		{0, requisition.Draft{ProductID: "p6", Quantity: 10}, requisition.StatusApproved},
		{1, requisition.Draft{ProductID: "p2", Variant: "0.263", BloodGroup: "O(I)", Quantity: 4}, requisition.StatusApproved},
		{1, requisition.Draft{ProductID: "p5", Variant: "0.400", Quantity: 3, Comment: "Shoshilinch"}, requisition.StatusPending},
		{2, requisition.Draft{ProductID: "p1", Variant: "0.250", BloodGroup: "B(III)", Quantity: 50}, requisition.StatusRejected},
		{2, requisition.Draft{ProductID: "p1", Variant: "0.250", BloodGroup: "B(III)", Quantity: 5}, requisition.StatusPending},
	}
	for _, s := range steps {
		if err := h.submit(ctx, clinics[s.clinic], s.draft, s.status); err != nil {
			return err
		}
	}

	if _, _, err := h.Inventory.RecordConsumption(ctx, clinics[0].Owner(), "p1", "0.200", 2, ""); err != nil {
		return err
	}
	_, _, err = h.Inventory.RecordConsumption(ctx, clinics[1].Owner(), "p2", "0.263", 1, "Operatsiya")
	return err
}

func (h *Handler) loadRevertApprovalScenario(ctx context.Context) error {
	clinics, err := h.addClinics(ctx,
		catalog.OrganizationInput{Name: "Shahar Klinik Shifoxonasi", Username: "klinika1", Password: "demo"},
	)
	if err != nil {
		return err
	}
	if err := h.addIntake(ctx, intake{"p1", "0.200", 10}); err != nil {
		return err
	}

	r, err := h.Requisitions.Create(ctx, clinics[0], requisition.Draft{ProductID: "p1", Variant: "0.200", Quantity: 3})
	if err != nil {
		return err
	}
	for _, next := range []requisition.Status{requisition.StatusApproved, requisition.StatusPending} {
		if _, _, err := h.Requisitions.SetStatus(ctx, r.ID, next); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type intake struct {
	product  ledger.ProductID
	variant  string
	quantity int
}

func (h *Handler) addClinics(ctx context.Context, inputs ...catalog.OrganizationInput) ([]catalog.Participant, error) {
	out := make([]catalog.Participant, 0, len(inputs))
	for _, in := range inputs {
		p, err := h.Catalog.AddOrganization(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("add organization %s: %w", in.Username, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (h *Handler) addIntake(ctx context.Context, entries ...intake) error {
	for _, e := range entries {
		if _, _, err := h.Inventory.AddCentralStock(ctx, e.product, e.variant, e.quantity, "Boshlang'ich qoldiq"); err != nil {
			return fmt.Errorf("intake %s: %w", e.product, err)
		}
	}
	return nil
}

func (h *Handler) submit(ctx context.Context, org catalog.Participant, d requisition.Draft, status requisition.Status) error {
	r, err := h.Requisitions.Create(ctx, org, d)
	if err != nil {
		return err
	}
	if status == requisition.StatusPending {
		return nil
	}
	_, _, err = h.Requisitions.SetStatus(ctx, r.ID, status)
	return err
}
