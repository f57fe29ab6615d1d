package renovation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/zishinew/Hearth-AI/internal/providers/fetch"
)

const (
	stabilityDefaultTimeout = 120 * time.Second
	stabilityDefaultBaseURL = "https://api.stability.ai"
	stabilityEditPath       = "/v2beta/stable-image/edit/search-and-replace"
)

// StabilityOptions configures the Stability AI generator.
type StabilityOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// StabilityGenerator renders renovations through Stability AI's
// search-and-replace edit endpoint: the mask prompt selects the region,
// the prompt describes what replaces it.
type StabilityGenerator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type stabilityErrorResponse struct {
	Name   string   `json:"name,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// NewStabilityGenerator constructs a Stability-backed generator.
func NewStabilityGenerator(opts StabilityOptions) (*StabilityGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("stability api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = stabilityDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: stabilityDefaultTimeout}
	}
	return &StabilityGenerator{
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Generate posts the original image plus prompts as multipart form data
// and returns the raw edited image. The request is built with ctx, so
// cancelling the context aborts the upstream call.
func (s *StabilityGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	if req.Prompt == "" || req.MaskPrompt == "" {
		return nil, errors.New("prompt and mask prompt are required")
	}
	imageData, imageMIME := req.Image, req.ImageMIME
	if len(imageData) == 0 {
		if req.ImageURL == "" {
			return nil, errors.New("image bytes or url are required")
		}
		var err error
		imageData, imageMIME, err = fetch.Image(ctx, s.client, req.ImageURL)
		if err != nil {
			return nil, err
		}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", imageFilename(imageMIME))
	if err != nil {
		return nil, fmt.Errorf("build multipart image: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("write multipart image: %w", err)
	}
	fields := map[string]string{
		"prompt":        req.Prompt,
		"search_prompt": req.MaskPrompt,
		"output_format": "webp",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write multipart field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+stabilityEditPath, &body)
	if err != nil {
		return nil, fmt.Errorf("build stability request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Accept", "image/*")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stability call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, s.decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read stability response: %w", err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/webp"
	}
	return &Asset{Format: format, Data: data}, nil
}

func (s *StabilityGenerator) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr stabilityErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
		return fmt.Errorf("stability: status %d: %s", resp.StatusCode, strings.Join(apiErr.Errors, "; "))
	}
	return fmt.Errorf("stability: unexpected status %d", resp.StatusCode)
}

func imageFilename(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return "image.png"
	case "image/webp":
		return "image.webp"
	default:
		return "image.jpg"
	}
}

var _ Generator = (*StabilityGenerator)(nil)
