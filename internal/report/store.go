package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zishinew/Hearth-AI/internal/domain"
	"github.com/zishinew/Hearth-AI/internal/infra"
)

// Materialize snapshots a completed job into an immutable report with a
// frozen gallery mapping. Jobs in any other state are refused: deriving
// gallery indices from a job that is still being mutated drifts as
// earlier positions resolve, so the mapping may only ever be built from
// a terminal snapshot.
func Materialize(job *domain.Job) (*domain.Report, error) {
	if job.Status != domain.JobStatusCompleted {
		return nil, fmt.Errorf("%w: job %s is %s", domain.ErrJobNotCompleted, job.ID, job.Status)
	}
	snapshot := job.Clone()
	return &domain.Report{
		ID:                   uuid.NewString(),
		JobID:                snapshot.ID,
		PropertyInfo:         snapshot.PropertyInfo,
		Results:              snapshot.Results,
		GalleryIndex:         domain.BuildGalleryIndex(snapshot.Results),
		WheelchairAccessible: snapshot.WheelchairAccessible,
		CreatedAt:            time.Now(),
	}, nil
}

// Store keeps materialized reports in memory, keyed by report id.
// Reports are immutable once stored, so Get hands out the shared value.
type Store struct {
	mu      sync.RWMutex
	reports map[string]*domain.Report
	byJob   map[string]string
	logger  infra.Logger
}

// NewStore constructs an empty report store.
func NewStore(logger infra.Logger) *Store {
	return &Store{
		reports: make(map[string]*domain.Report),
		byJob:   make(map[string]string),
		logger:  logger.With().Str("component", "report_store").Logger(),
	}
}

// Put registers a materialized report.
func (s *Store) Put(report *domain.Report) {
	s.mu.Lock()
	s.reports[report.ID] = report
	s.byJob[report.JobID] = report.ID
	s.mu.Unlock()
	s.logger.Info().
		Str("report_id", report.ID).
		Str("job_id", report.JobID).
		Int("gallery_size", len(report.GalleryIndex)).
		Msg("report materialized")
}

// Get returns the report or domain.ErrNotFound.
func (s *Store) Get(reportID string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[reportID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return report, nil
}

// GetByJobID returns the report materialized from the given job, if any.
func (s *Store) GetByJobID(jobID string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byJob[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.reports[id], nil
}
