package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/report"
	"github.com/warp/supply-ledger/requisition"
)

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReportSummary returns the statistics view. ?org= restricts it to one
// organization. Organizations always get their own figures.
// GET /api/reports/summary
func (h *Handler) GetReportSummary(w http.ResponseWriter, r *http.Request) {
	reqs, org, ok := h.reportInput(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Build(reqs, org))
}

// ExportReport streams approved requisitions as CSV.
// GET /api/reports/export.csv
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	reqs, org, ok := h.reportInput(w, r)
	if !ok {
		return
	}
	name := fmt.Sprintf("taminot_hisobot_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, report.Rows(reqs, org)); err != nil {
		h.Log.WithError(err).Warn("csv export interrupted")
	}
}

// AnalyzeReport asks the summarizer for a free-text analysis. Failures come
// back as a status text with 200; stored data is never touched.
// POST /api/reports/analysis
func (h *Handler) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	reqs, org, ok := h.reportInput(w, r)
	if !ok {
		return
	}
	if org != "" {
		reqs = filterByOrg(reqs, org)
	}
	text := report.Analysis(r.Context(), h.Summarizer, reqs, h.Log)
	writeJSON(w, http.StatusOK, AnalysisDTO{Text: text, GeneratedAt: time.Now().UTC()})
}

func (h *Handler) reportInput(w http.ResponseWriter, r *http.Request) ([]requisition.Requisition, string, bool) {
	caller, _ := participantFrom(r.Context())
	org := r.URL.Query().Get("org")
	if !caller.IsAuthority() {
		org = caller.ID
	}
	reqs, err := h.Requisitions.List(r.Context(), requisition.Filter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load requisitions", err)
		return nil, "", false
	}
	return reqs, org, true
}

func filterByOrg(reqs []requisition.Requisition, org string) []requisition.Requisition {
	var out []requisition.Requisition
	for _, r := range reqs {
		if r.RequesterID == org {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetNotifierSettings returns the chat-bot settings.
// GET /api/settings/notifier
func (h *Handler) GetNotifierSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Catalog.NotifierConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, NotifierSettingsDTO{BotToken: cfg.BotToken, ChatID: cfg.ChatID, Enabled: cfg.Enabled()})
}

// SaveNotifierSettings stores the chat-bot settings. Empty values disable
// notifications.
// PUT /api/settings/notifier
func (h *Handler) SaveNotifierSettings(w http.ResponseWriter, r *http.Request) {
	var req NotifierSettingsRequest
	if !decode(w, r, &req) {
		return
	}
	cfg := catalog.NotifierConfig{BotToken: req.BotToken, ChatID: req.ChatID}
	if err := h.Catalog.SaveNotifierConfig(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, NotifierSettingsDTO{BotToken: cfg.BotToken, ChatID: cfg.ChatID, Enabled: cfg.Enabled()})
}

// TestNotifierSettings sends a test message with the given (or stored)
// credentials. The result is reported, never stored.
// POST /api/settings/notifier/test
func (h *Handler) TestNotifierSettings(w http.ResponseWriter, r *http.Request) {
	var req NotifierSettingsRequest
	if !decode(w, r, &req) {
		return
	}
	cfg := catalog.NotifierConfig{BotToken: req.BotToken, ChatID: req.ChatID}
	if !cfg.Enabled() {
		stored, err := h.Catalog.NotifierConfig(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
			return
		}
		cfg = stored
	}
	if !cfg.Enabled() {
		writeError(w, http.StatusBadRequest, "Bot token and chat id are required", nil)
		return
	}
	if h.Telegram == nil {
		writeError(w, http.StatusServiceUnavailable, "Notifier not available", nil)
		return
	}
	if err := h.Telegram.SendTest(r.Context(), cfg); err != nil {
		writeError(w, http.StatusBadGateway, "Test message failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
