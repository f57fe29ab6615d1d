package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zishinew/Hearth-AI/internal/domain"
	"github.com/zishinew/Hearth-AI/internal/infra"
)

// Registry is the process-wide table of in-flight and completed jobs and
// the sole owner of job status transitions. The underlying map is never
// exposed; all mutation goes through Registry operations, and reads hand
// out deep copies so callers never observe a job mid-write. Nothing here
// touches I/O while the lock is held.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*domain.Job
	logger infra.Logger
	now    func() time.Time
}

// New constructs an empty registry. The registry lives for the whole
// process; entries are dropped only through Evict.
func New(logger infra.Logger) *Registry {
	return &Registry{
		jobs:   make(map[string]*domain.Job),
		logger: logger.With().Str("component", "registry").Logger(),
		now:    time.Now,
	}
}

// Create allocates a pending job with one empty result slot per source
// URL and returns its id. It never blocks on anything but the registry
// lock.
func (reg *Registry) Create(sourceURLs []string, info *domain.PropertyInfo, wheelchairAccessible bool) string {
	id := uuid.NewString()
	now := reg.now()

	results := make([]domain.AuditResult, len(sourceURLs))
	for i, url := range sourceURLs {
		results[i] = domain.AuditResult{PositionInBatch: i, SourceURL: url}
	}

	job := &domain.Job{
		ID:                   id,
		Status:               domain.JobStatusPending,
		StatusMessage:        "Queued",
		TotalImages:          len(sourceURLs),
		PropertyInfo:         info,
		Results:              results,
		WheelchairAccessible: wheelchairAccessible,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	reg.mu.Lock()
	reg.jobs[id] = job
	reg.mu.Unlock()

	reg.logger.Info().Str("job_id", id).Int("total_images", len(sourceURLs)).Msg("job created")
	return id
}

// Get returns a snapshot of the job or domain.ErrNotFound.
func (reg *Registry) Get(jobID string) (*domain.Job, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	job, ok := reg.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

// MarkProcessing moves a pending job into processing. Only the audit
// runner calls this, exactly once, before its first position write.
func (reg *Registry) MarkProcessing(jobID, message string) error {
	return reg.transition(jobID, domain.JobStatusProcessing, func(job *domain.Job) error {
		if job.Status != domain.JobStatusPending {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.Status, domain.JobStatusProcessing)
		}
		job.Status = domain.JobStatusProcessing
		if message != "" {
			job.StatusMessage = message
		}
		return nil
	})
}

// SetStatusMessage updates the observability message on a non-terminal
// job. Writes to terminal jobs are dropped.
func (reg *Registry) SetStatusMessage(jobID, message string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	job, ok := reg.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return nil
	}
	job.StatusMessage = message
	job.UpdatedAt = reg.now()
	return nil
}

// RecordAudit writes a successful audit at the given position.
func (reg *Registry) RecordAudit(jobID string, position int, audit domain.AuditData) error {
	return reg.record(jobID, position, func(slot *domain.AuditResult) {
		data := audit
		slot.Audit = &data
	})
}

// RecordItemFailure writes a per-image failure at the given position.
// Item failures are absorbed here; they never fail the job.
func (reg *Registry) RecordItemFailure(jobID string, position int, detail string) error {
	return reg.record(jobID, position, func(slot *domain.AuditResult) {
		kind := domain.ErrorKindAuditItem
		slot.Failure = &kind
		slot.FailureDetail = detail
	})
}

// record applies an idempotent-by-position write and recomputes audit
// progress. Writing to a position that already has a result is a no-op,
// which guards against duplicate completions from a misbehaving retry.
func (reg *Registry) record(jobID string, position int, write func(*domain.AuditResult)) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	job, ok := reg.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if position < 0 || position >= len(job.Results) {
		return fmt.Errorf("position %d out of range for job %s (total %d)", position, jobID, len(job.Results))
	}
	slot := &job.Results[position]
	if !slot.Pending() {
		reg.logger.Debug().Str("job_id", jobID).Int("position", position).Msg("duplicate position write ignored")
		return nil
	}
	write(slot)
	if job.TotalImages > 0 {
		job.AuditProgressPct = job.Completed() * 100 / job.TotalImages
	}
	job.UpdatedAt = reg.now()
	return nil
}

// MarkCompleted transitions processing -> completed.
func (reg *Registry) MarkCompleted(jobID string) error {
	return reg.transition(jobID, domain.JobStatusCompleted, func(job *domain.Job) error {
		if job.Status != domain.JobStatusProcessing {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.Status, domain.JobStatusCompleted)
		}
		job.Status = domain.JobStatusCompleted
		job.StatusMessage = "Audit complete"
		return nil
	})
}

// MarkFailed records a whole-job failure. Legal from pending as well as
// processing: a submission that cannot proceed at all (empty batch,
// unreadable source list) fails before any position is written.
func (reg *Registry) MarkFailed(jobID string, kind domain.ErrorKind, detail string) error {
	return reg.transition(jobID, domain.JobStatusFailed, func(job *domain.Job) error {
		if job.Status.Terminal() {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.Status, domain.JobStatusFailed)
		}
		job.Status = domain.JobStatusFailed
		job.TerminalError = &kind
		job.TerminalDetail = detail
		job.StatusMessage = "Audit failed"
		return nil
	})
}

func (reg *Registry) transition(jobID string, to domain.JobStatus, apply func(*domain.Job) error) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	job, ok := reg.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	from := job.Status
	if err := apply(job); err != nil {
		return err
	}
	job.UpdatedAt = reg.now()
	reg.logger.Info().Str("job_id", jobID).Str("from", string(from)).Str("to", string(to)).Msg("job transition")
	return nil
}

// Evict drops a job from the registry. Eviction policy is external to
// the registry; callers decide when a terminal job is no longer needed.
func (reg *Registry) Evict(jobID string) {
	reg.mu.Lock()
	delete(reg.jobs, jobID)
	reg.mu.Unlock()
}

// Len reports the number of tracked jobs.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.jobs)
}
