package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/zishinew/Hearth-AI/internal/domain"
)

type submitAuditRequest struct {
	ListingURL           string   `json:"listing_url,omitempty"`
	ImageURLs            []string `json:"image_urls,omitempty"`
	MaxImages            int      `json:"max_images,omitempty"`
	WheelchairAccessible bool     `json:"wheelchair_accessible"`
}

type submitAuditResponse struct {
	JobID            string               `json:"job_id"`
	Status           domain.JobStatus     `json:"status"`
	TotalImagesFound int                  `json:"total_images_found"`
	ImagesQueued     int                  `json:"images_queued"`
	PropertyInfo     *domain.PropertyInfo `json:"property_info,omitempty"`
}

// SubmitAudit accepts either a listing URL to scrape or an explicit
// ordered list of image URLs, creates the job, and returns immediately
// with its id. The audit run and the report-materializing poll loop
// both continue in the background, bounded by the process context.
func (a *App) SubmitAudit(w http.ResponseWriter, r *http.Request) {
	var req submitAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ListingURL == "" && len(req.ImageURLs) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "listing_url or image_urls required")
		return
	}

	imageURLs := req.ImageURLs
	var info *domain.PropertyInfo
	totalFound := len(imageURLs)
	if req.ListingURL != "" {
		listing, err := a.Scraper.Scrape(r.Context(), req.ListingURL)
		if err != nil {
			a.Logger.Warn().Err(err).Str("listing_url", req.ListingURL).Msg("listing scrape failed")
			a.error(w, http.StatusBadGateway, "scrape_failed", "could not read the listing page")
			return
		}
		imageURLs = listing.PhotoURLs
		totalFound = len(imageURLs)
		if !propertyInfoEmpty(listing.PropertyInfo) {
			propertyInfo := listing.PropertyInfo
			info = &propertyInfo
		}
	}

	maxImages := req.MaxImages
	if maxImages <= 0 || maxImages > a.MaxImages {
		maxImages = a.MaxImages
	}
	if len(imageURLs) > maxImages {
		imageURLs = imageURLs[:maxImages]
	}
	imageURLs = dropBlankURLs(imageURLs)

	jobID := a.Registry.Create(imageURLs, info, req.WheelchairAccessible)

	bg := a.background()
	go func() {
		if err := a.Runner.Run(bg, jobID); err != nil && !errors.Is(err, bg.Err()) {
			a.Logger.Error().Err(err).Str("job_id", jobID).Msg("audit run aborted")
		}
	}()
	go func() {
		if _, err := a.Poller.Watch(bg, jobID); err != nil && !errors.Is(err, bg.Err()) {
			a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("job watch ended")
		}
	}()

	a.json(w, http.StatusAccepted, submitAuditResponse{
		JobID:            jobID,
		Status:           domain.JobStatusPending,
		TotalImagesFound: totalFound,
		ImagesQueued:     len(imageURLs),
		PropertyInfo:     info,
	})
}

func propertyInfoEmpty(info domain.PropertyInfo) bool {
	return info.Address == "" && info.Price == "" && info.Bedrooms == "" &&
		info.Bathrooms == "" && info.SquareFeet == "" && info.MLSNumber == "" &&
		info.Neighborhood == "" && info.Location == "" && len(info.Amenities) == 0
}

func dropBlankURLs(urls []string) []string {
	cleaned := urls[:0:len(urls)]
	for _, u := range urls {
		if strings.TrimSpace(u) != "" {
			cleaned = append(cleaned, u)
		}
	}
	return cleaned
}
