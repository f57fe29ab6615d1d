package generate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zishinew/Hearth-AI/internal/domain"
	"github.com/zishinew/Hearth-AI/internal/infra"
	"github.com/zishinew/Hearth-AI/internal/providers/renovation"
	"github.com/zishinew/Hearth-AI/internal/report"
	"github.com/zishinew/Hearth-AI/internal/storage"
)

type requestKey struct {
	reportID     string
	galleryIndex int
}

type inflightCall struct {
	cancel context.CancelFunc
}

// Dispatcher turns gallery indices into rendered renovation assets on
// demand. Per (report, gallery index) it keeps at most one external call
// outstanding: a newer request supersedes the old one by cancelling its
// context. Successful results are cached and returned without another
// external call; failures are never cached. Different indices generate
// concurrently without limit.
type Dispatcher struct {
	reports   *report.Store
	generator renovation.Generator
	assets    *storage.FileStore
	logger    infra.Logger

	mu       sync.Mutex
	inflight map[requestKey]*inflightCall
	cache    map[requestKey]*domain.GenerationAsset
}

// Result is a generation outcome; Cached reports whether the asset came
// from the cache without an external call.
type Result struct {
	Asset  *domain.GenerationAsset
	Cached bool
}

// NewDispatcher constructs a dispatcher. The asset store is optional;
// when present, successful renders are persisted through it.
func NewDispatcher(reports *report.Store, generator renovation.Generator, assets *storage.FileStore, logger infra.Logger) *Dispatcher {
	return &Dispatcher{
		reports:   reports,
		generator: generator,
		assets:    assets,
		logger:    logger.With().Str("component", "generation_dispatcher").Logger(),
		inflight:  make(map[requestKey]*inflightCall),
		cache:     make(map[requestKey]*domain.GenerationAsset),
	}
}

// RequestGeneration resolves the gallery index against the report's
// frozen mapping and renders the renovation for that image. Returns
// domain.ErrCancelled when a newer request for the same index superseded
// this one; callers treat that as an expected outcome, not a failure.
func (d *Dispatcher) RequestGeneration(ctx context.Context, reportID string, galleryIndex int) (*Result, error) {
	key := requestKey{reportID: reportID, galleryIndex: galleryIndex}

	if asset := d.cached(key); asset != nil {
		return &Result{Asset: asset, Cached: true}, nil
	}

	rep, err := d.reports.Get(reportID)
	if err != nil {
		return nil, err
	}
	position, err := rep.ResolveGalleryIndex(galleryIndex)
	if err != nil {
		return nil, err
	}
	result, err := rep.ResultAt(position)
	if err != nil {
		return nil, err
	}
	if result.Audit == nil || !result.Audit.Eligible() {
		return nil, domain.ErrNotEligible
	}

	genCtx, call, prior := d.begin(ctx, key)
	defer call.cancel()
	if prior != nil {
		d.logger.Info().
			Str("report_id", reportID).
			Int("gallery_index", galleryIndex).
			Msg("superseding in-flight generation")
	}

	asset, genErr := d.generator.Generate(genCtx, renovation.GenerateRequest{
		ImageURL:   result.SourceURL,
		Prompt:     result.Audit.GenerationPrompt,
		MaskPrompt: result.Audit.MaskPrompt,
		RequestID:  fmt.Sprintf("%s-%d", reportID, galleryIndex),
	})
	if genErr != nil {
		d.finish(key, call)
		if genCtx.Err() != nil {
			return nil, domain.ErrCancelled
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, genErr)
	}

	generated := &domain.GenerationAsset{
		ForPosition: position,
		Format:      asset.Format,
		Data:        asset.Data,
		GeneratedAt: time.Now(),
	}
	d.persist(genCtx, key, generated)

	if !d.commit(key, call, genCtx, generated) {
		return nil, domain.ErrCancelled
	}

	d.logger.Info().
		Str("report_id", reportID).
		Int("gallery_index", galleryIndex).
		Int("position", position).
		Msg("renovation generated")
	return &Result{Asset: generated}, nil
}

// CachedAsset returns the cached asset for the index, if any.
func (d *Dispatcher) CachedAsset(reportID string, galleryIndex int) *domain.GenerationAsset {
	return d.cached(requestKey{reportID: reportID, galleryIndex: galleryIndex})
}

func (d *Dispatcher) cached(key requestKey) *domain.GenerationAsset {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache[key]
}

// begin registers this request as the sole in-flight call for its key,
// cancelling any prior one first.
func (d *Dispatcher) begin(ctx context.Context, key requestKey) (context.Context, *inflightCall, *inflightCall) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prior := d.inflight[key]
	if prior != nil {
		prior.cancel()
	}
	genCtx, cancel := context.WithCancel(ctx)
	call := &inflightCall{cancel: cancel}
	d.inflight[key] = call
	return genCtx, call, prior
}

// finish deregisters the call unless a newer request already replaced it.
func (d *Dispatcher) finish(key requestKey, call *inflightCall) {
	d.mu.Lock()
	if d.inflight[key] == call {
		delete(d.inflight, key)
	}
	d.mu.Unlock()
}

// commit deregisters the call and publishes its render in one step.
// begin cancels the prior context under the same lock, so an uncancelled
// genCtx here means this is still the registered call; a cancelled one
// means a newer request superseded the render mid-flight, and its result
// must not reach the cache even though the generator returned it.
func (d *Dispatcher) commit(key requestKey, call *inflightCall, genCtx context.Context, asset *domain.GenerationAsset) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if genCtx.Err() != nil {
		if d.inflight[key] == call {
			delete(d.inflight, key)
		}
		return false
	}
	delete(d.inflight, key)
	d.cache[key] = asset
	return true
}

func (d *Dispatcher) persist(ctx context.Context, key requestKey, asset *domain.GenerationAsset) {
	if d.assets == nil || len(asset.Data) == 0 {
		return
	}
	storageKey := fmt.Sprintf("renovations/%s/%02d%s", key.reportID, key.galleryIndex, extensionForMIME(asset.Format))
	saved, err := d.assets.Write(ctx, storageKey, asset.Data)
	if err != nil {
		d.logger.Warn().Err(err).
			Str("report_id", key.reportID).
			Int("gallery_index", key.galleryIndex).
			Msg("persist renovation asset failed")
		return
	}
	asset.StorageKey = saved
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
