package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zishinew/Hearth-AI/internal/domain"
)

// GetReport returns a materialized report with its frozen gallery
// mapping.
func (a *App) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "report_id")
	rep, err := a.Reports.Get(reportID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "report_not_found", "report not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load report")
		return
	}
	a.json(w, http.StatusOK, rep)
}

// GetReportByAddress looks a report up in the durable archive by the
// property address it was filed under.
func (a *App) GetReportByAddress(w http.ResponseWriter, r *http.Request) {
	if a.Archive == nil {
		a.error(w, http.StatusNotImplemented, "archive_disabled", "report archive is not configured")
		return
	}
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "address query parameter required")
		return
	}
	rep, err := a.Archive.GetReportByAddress(r.Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "report_not_found", "no archived report for that address")
			return
		}
		a.Logger.Error().Err(err).Msg("archive lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load archived report")
		return
	}
	a.json(w, http.StatusOK, rep)
}
