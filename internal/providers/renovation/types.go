package renovation

import "context"

// GenerateRequest describes one on-demand renovation render. Image holds
// the original photo bytes; Prompt describes what to paint into the
// region MaskPrompt describes.
type GenerateRequest struct {
	ImageURL   string
	Image      []byte
	ImageMIME  string
	Prompt     string
	MaskPrompt string
	RequestID  string
}

// Asset is a rendered renovation image.
type Asset struct {
	Format string
	Data   []byte
}

// Generator is the contract implemented by all renovation providers.
// Implementations must honor ctx cancellation: a superseded request has
// to stop consuming the external service as soon as its context is
// cancelled.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Asset, error)
}
