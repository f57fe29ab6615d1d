package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zishinew/Hearth-AI/internal/domain"
)

type jobStatusResponse struct {
	*domain.Job
	ReportID string `json:"report_id,omitempty"`
}

// JobStatus returns a point-in-time snapshot of the job. Results always
// serialize as an array in batch-position order, never as a map, so
// client iteration order matches submission order. Once the job
// completes and the report is materialized, the response also carries
// the report id to generate against.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Registry.Get(jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job_not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	resp := jobStatusResponse{Job: job}
	if rep, err := a.Reports.GetByJobID(jobID); err == nil {
		resp.ReportID = rep.ID
	}
	a.json(w, http.StatusOK, resp)
}
