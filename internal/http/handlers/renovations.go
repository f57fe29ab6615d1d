package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zishinew/Hearth-AI/internal/domain"
	"github.com/zishinew/Hearth-AI/pkg/zip"
)

// statusClientClosedRequest mirrors nginx's 499: the request was
// superseded, not failed.
const statusClientClosedRequest = 499

type renovationResponse struct {
	Success        bool   `json:"success"`
	Cached         bool   `json:"cached"`
	RenovatedImage string `json:"renovated_image,omitempty"`
	OriginalURL    string `json:"original_url,omitempty"`
	StorageKey     string `json:"storage_key,omitempty"`
}

type renovationCancelledResponse struct {
	Success   bool `json:"success"`
	Cancelled bool `json:"cancelled"`
}

// RequestRenovation renders the "after" image for one gallery slot on
// demand. Repeats for the same slot are cheap: a finished render comes
// out of the cache with no external call, and a still-running render is
// superseded so only the newest request stays in flight.
func (a *App) RequestRenovation(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "report_id")
	galleryIndex, err := strconv.Atoi(chi.URLParam(r, "gallery_index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "gallery index must be an integer")
		return
	}

	result, err := a.Dispatcher.RequestGeneration(r.Context(), reportID, galleryIndex)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "report_not_found", "report not found")
		case errors.Is(err, domain.ErrIndexNotFound):
			a.error(w, http.StatusNotFound, "index_not_found", "gallery index out of range")
		case errors.Is(err, domain.ErrNotEligible):
			a.error(w, http.StatusUnprocessableEntity, "not_eligible", "no renovation prompts for this image")
		case errors.Is(err, domain.ErrCancelled):
			// Expected outcome of supersession; the newer request carries on.
			a.json(w, statusClientClosedRequest, renovationCancelledResponse{Cancelled: true})
		default:
			a.Logger.Error().Err(err).Str("report_id", reportID).Int("gallery_index", galleryIndex).Msg("renovation failed")
			a.error(w, http.StatusBadGateway, "generation_failed", "image generation failed; try again")
		}
		return
	}

	asset := result.Asset
	sourceURL := ""
	if rep, repErr := a.Reports.Get(reportID); repErr == nil {
		if res, posErr := rep.ResultAt(asset.ForPosition); posErr == nil {
			sourceURL = res.SourceURL
		}
	}
	a.json(w, http.StatusOK, renovationResponse{
		Success:        true,
		Cached:         result.Cached,
		RenovatedImage: dataURI(asset.Format, asset.Data),
		OriginalURL:    sourceURL,
		StorageKey:     asset.StorageKey,
	})
}

// DownloadRenovations bundles every renovation already rendered for the
// report into a zip. Slots that were never generated are absent from the
// archive; no generation is triggered here.
func (a *App) DownloadRenovations(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "report_id")
	rep, err := a.Reports.Get(reportID)
	if err != nil {
		a.error(w, http.StatusNotFound, "report_not_found", "report not found")
		return
	}

	var assets []zip.Asset
	for galleryIndex := range rep.GalleryIndex {
		cached := a.Dispatcher.CachedAsset(reportID, galleryIndex)
		if cached == nil {
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("renovation-%02d%s", galleryIndex, extensionForFormat(cached.Format)),
			MIME:     cached.Format,
			Data:     cached.Data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "no_renovations", "no renovations rendered for this report yet")
		return
	}

	archive := zip.ArchiveAssets(assets)
	if len(archive) == 0 {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "renovations-"+reportID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func extensionForFormat(format string) string {
	switch format {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func dataURI(format string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if format == "" {
		format = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", format, base64.StdEncoding.EncodeToString(data))
}
