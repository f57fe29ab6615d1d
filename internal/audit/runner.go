package audit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zishinew/Hearth-AI/internal/domain"
	"github.com/zishinew/Hearth-AI/internal/infra"
	"github.com/zishinew/Hearth-AI/internal/providers/vision"
	"github.com/zishinew/Hearth-AI/internal/registry"
)

const (
	defaultMaxParallel = 3
	defaultCallTimeout = 90 * time.Second
)

// Options tunes a Runner. Zero values fall back to defaults.
type Options struct {
	// MaxParallel bounds concurrent audit calls per job.
	MaxParallel int
	// CallTimeout applies to each individual audit call.
	CallTimeout time.Duration
}

// Runner drives the audit collaborator over every slot of a job and
// reports progress through the registry. One Run call per job; the
// caller launches it on its own goroutine, decoupled from any request
// cycle.
type Runner struct {
	registry    *registry.Registry
	auditor     vision.Auditor
	logger      infra.Logger
	maxParallel int
	callTimeout time.Duration
}

// NewRunner constructs a runner bound to the shared registry.
func NewRunner(reg *registry.Registry, auditor vision.Auditor, logger infra.Logger, opts Options) *Runner {
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Runner{
		registry:    reg,
		auditor:     auditor,
		logger:      logger.With().Str("component", "audit_runner").Logger(),
		maxParallel: maxParallel,
		callTimeout: timeout,
	}
}

// Run audits every image of the job. A single image failure is recorded
// at its position and never aborts the job; only a batch that cannot
// proceed at all (no images) fails the whole job. Completions may land
// out of order under parallelism, so every write is keyed by position.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	job, err := r.registry.Get(jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	if job.TotalImages == 0 {
		if err := r.registry.MarkFailed(jobID, domain.ErrorKindJob, domain.ErrEmptyBatch.Error()); err != nil {
			return err
		}
		r.logger.Warn().Str("job_id", jobID).Msg("empty batch, job failed")
		return nil
	}

	if err := r.registry.MarkProcessing(jobID, fmt.Sprintf("Auditing image 1/%d", job.TotalImages)); err != nil {
		return err
	}

	total := job.TotalImages
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxParallel)
	for _, result := range job.Results {
		position := result.PositionInBatch
		sourceURL := result.SourceURL
		g.Go(func() error {
			r.auditOne(gctx, jobID, position, total, sourceURL, job.WheelchairAccessible)
			return nil
		})
	}
	// auditOne absorbs its own failures, so Wait never returns an error.
	// The derived gctx is always cancelled once Wait returns; only a
	// cancelled parent context stops the job short of completion.
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.registry.MarkCompleted(jobID); err != nil {
		return err
	}
	r.logger.Info().Str("job_id", jobID).Int("total_images", total).Msg("audit run completed")
	return nil
}

func (r *Runner) auditOne(ctx context.Context, jobID string, position, total int, sourceURL string, wheelchairAccessible bool) {
	_ = r.registry.SetStatusMessage(jobID, fmt.Sprintf("Auditing image %d/%d", position+1, total))

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	data, err := r.auditor.Audit(callCtx, vision.AuditRequest{
		ImageURL:             sourceURL,
		WheelchairAccessible: wheelchairAccessible,
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("job_id", jobID).Int("position", position).Msg("image audit failed")
		if recErr := r.registry.RecordItemFailure(jobID, position, err.Error()); recErr != nil {
			r.logger.Error().Err(recErr).Str("job_id", jobID).Int("position", position).Msg("record failure")
		}
		return
	}
	if err := r.registry.RecordAudit(jobID, position, data); err != nil {
		r.logger.Error().Err(err).Str("job_id", jobID).Int("position", position).Msg("record audit")
	}
}
