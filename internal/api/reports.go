package api

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/report"
)

// ReportsHandler serves the read-only stock reports.
type ReportsHandler struct {
	Reports *report.Engine
}

type expiryResponse struct {
	Cutoff   model.Date            `json:"cutoff"`
	Warnings []model.ExpiryWarning `json:"warnings"`
}

// LowStock handles GET /api/reports/low-stock.
func (h *ReportsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.Reports.LowStock(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Expiry handles GET /api/reports/expiry. The optional before parameter
// (YYYY-MM-DD) overrides the default warning window.
func (h *ReportsHandler) Expiry(w http.ResponseWriter, r *http.Request) {
	cutoff := h.Reports.DefaultCutoff()
	if raw := r.URL.Query().Get("before"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid before date")
			return
		}
		cutoff = d
	}

	warnings, err := h.Reports.ExpiryWarnings(r.Context(), cutoff)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, expiryResponse{Cutoff: cutoff, Warnings: warnings})
}

// Consumption handles GET /api/reports/consumption.
func (h *ReportsHandler) Consumption(w http.ResponseWriter, r *http.Request) {
	records, err := h.Reports.ConsumptionOverview(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, records)
}

// Consistency handles GET /api/reports/consistency.
func (h *ReportsHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	drift, err := h.Reports.Consistency(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, drift)
}

// Summary handles GET /api/reports/summary.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Reports.Summary(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sum)
}
