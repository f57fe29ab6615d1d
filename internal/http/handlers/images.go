package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zishinew/Hearth-AI/internal/domain"
	"github.com/zishinew/Hearth-AI/internal/providers/vision"
)

type analyzeImageRequest struct {
	ImageURL             string `json:"image_url"`
	WheelchairAccessible bool   `json:"wheelchair_accessible"`
}

type analyzeImageResponse struct {
	Audit    *domain.AuditData `json:"audit"`
	Eligible bool              `json:"eligible"`
}

// AnalyzeImage audits a single image synchronously, without a job. The
// batch submission path is preferred; this exists for quick one-off
// checks.
func (a *App) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyzeImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ImageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image_url required")
		return
	}

	data, err := a.Auditor.Audit(r.Context(), vision.AuditRequest{
		ImageURL:             req.ImageURL,
		WheelchairAccessible: req.WheelchairAccessible,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Str("image_url", req.ImageURL).Msg("single image audit failed")
		a.error(w, http.StatusBadGateway, "audit_failed", "image analysis failed")
		return
	}
	a.json(w, http.StatusOK, analyzeImageResponse{Audit: &data, Eligible: data.Eligible()})
}
