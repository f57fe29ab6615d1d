// Package scraper extracts photo URLs and listing metadata from real
// estate listing pages. The orchestration core treats it as an opaque
// collaborator behind the Scraper interface.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zishinew/Hearth-AI/internal/domain"
)

const (
	defaultTimeout  = 30 * time.Second
	maxListingBytes = 8 << 20
)

// Listing is the scrape result: ordered photo URLs plus best-effort
// property metadata.
type Listing struct {
	PhotoURLs    []string
	PropertyInfo domain.PropertyInfo
}

// Scraper resolves a listing URL into photos and metadata.
type Scraper interface {
	Scrape(ctx context.Context, listingURL string) (*Listing, error)
}

// RealtorScraper scrapes Realtor.ca listing pages with plain HTTP and
// pattern extraction. Photo order follows document order, which is the
// batch order audits are keyed by.
type RealtorScraper struct {
	client    *http.Client
	userAgent string
	titler    cases.Caser
}

// Options configures the Realtor scraper.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string
}

var (
	photoPattern        = regexp.MustCompile(`https://cdn\.realtor\.ca/listing[^"'\s]*/highres/[^"'\s]+`)
	jsonLDPattern       = regexp.MustCompile(`(?s)<script[^>]+type="application/ld\+json"[^>]*>(.*?)</script>`)
	pricePattern        = regexp.MustCompile(`\$[\d,]+`)
	bedroomsPattern     = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*Bed(?:room)?s?`)
	bathroomsPattern    = regexp.MustCompile(`(?i)(\d+)\s*Bath(?:room)?s?`)
	squareFeetPattern   = regexp.MustCompile(`(?i)([\d,]+)\s*(?:sq\.?\s*ft|Square Feet)`)
	mlsPattern          = regexp.MustCompile(`MLS[®#\s]*:?\s*([A-Z0-9]+)`)
	neighborhoodPattern = regexp.MustCompile(`(?i)(?:in|of) (?:the )?(.+?) (?:Community|Neighbourhood|Neighborhood)`)
	locationPattern     = regexp.MustCompile(`(?i)Location Description\s*\n\s*(.+)`)
	amenitiesPattern    = regexp.MustCompile(`(?i)(?:Amenities Nearby|Community Features)\s*\n\s*(.+)`)
	tagPattern          = regexp.MustCompile(`<[^>]*>`)
)

type jsonLDProduct struct {
	Type        string          `json:"@type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Offers      json.RawMessage `json:"offers"`
}

type jsonLDOffer struct {
	Price json.Number `json:"price"`
}

// NewRealtorScraper constructs a scraper with sane defaults.
func NewRealtorScraper(opts Options) *RealtorScraper {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; HearthAI/1.0)"
	}
	return &RealtorScraper{
		client:    client,
		userAgent: userAgent,
		titler:    cases.Title(language.English),
	}
}

// Scrape fetches the listing page and extracts photos plus metadata.
// Metadata extraction is best-effort; missing fields stay empty. An
// unreachable page or a page with no photos is the caller's signal that
// the submission cannot proceed.
func (s *RealtorScraper) Scrape(ctx context.Context, listingURL string) (*Listing, error) {
	if strings.TrimSpace(listingURL) == "" {
		return nil, errors.New("listing url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch listing: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return nil, fmt.Errorf("read listing body: %w", err)
	}

	html := string(body)
	listing := &Listing{PhotoURLs: extractPhotoURLs(html)}
	listing.PropertyInfo = s.extractPropertyInfo(html)
	return listing, nil
}

func extractPhotoURLs(html string) []string {
	matches := photoPattern.FindAllString(html, -1)
	seen := make(map[string]struct{}, len(matches))
	var urls []string
	for _, m := range matches {
		m = strings.TrimRight(m, `\`)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}

func (s *RealtorScraper) extractPropertyInfo(html string) domain.PropertyInfo {
	info := domain.PropertyInfo{}
	description := ""

	for _, match := range jsonLDPattern.FindAllStringSubmatch(html, -1) {
		var product jsonLDProduct
		if err := json.Unmarshal([]byte(match[1]), &product); err != nil {
			continue
		}
		if product.Type != "Product" {
			continue
		}
		if product.Name != "" {
			info.Address = s.titler.String(strings.ToLower(product.Name))
		}
		description = product.Description
		if price := extractOfferPrice(product.Offers); price != "" {
			info.Price = price
		}
	}

	text := tagPattern.ReplaceAllString(html, "\n")
	if info.Price == "" {
		info.Price = pricePattern.FindString(text)
	}
	if m := bedroomsPattern.FindStringSubmatch(text); m != nil {
		info.Bedrooms = m[1]
	}
	if m := bathroomsPattern.FindStringSubmatch(text); m != nil {
		info.Bathrooms = m[1]
	}
	if m := squareFeetPattern.FindStringSubmatch(text); m != nil {
		info.SquareFeet = m[1] + " sq ft"
	}
	if m := mlsPattern.FindStringSubmatch(text); m != nil {
		info.MLSNumber = m[1]
	}
	if m := neighborhoodPattern.FindStringSubmatch(description); m != nil {
		info.Neighborhood = strings.TrimSpace(m[1])
	}
	if m := locationPattern.FindStringSubmatch(text); m != nil {
		info.Location = strings.TrimSpace(m[1])
	}
	if m := amenitiesPattern.FindStringSubmatch(text); m != nil {
		for _, amenity := range strings.Split(m[1], ",") {
			amenity = strings.TrimSpace(amenity)
			if amenity != "" {
				info.Amenities = append(info.Amenities, amenity)
			}
		}
	}
	return info
}

func extractOfferPrice(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var offer jsonLDOffer
	if err := json.Unmarshal(raw, &offer); err == nil && offer.Price != "" {
		return "$" + offer.Price.String()
	}
	var offers []jsonLDOffer
	if err := json.Unmarshal(raw, &offers); err == nil && len(offers) > 0 && offers[0].Price != "" {
		return "$" + offers[0].Price.String()
	}
	return ""
}

var _ Scraper = (*RealtorScraper)(nil)
