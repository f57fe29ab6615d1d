package poller

import (
	"context"
	"errors"
	"time"

	"github.com/zishinew/Hearth-AI/internal/domain"
	"github.com/zishinew/Hearth-AI/internal/infra"
	"github.com/zishinew/Hearth-AI/internal/report"
)

const defaultInterval = 3 * time.Second

// JobGetter is the read side of the job registry.
type JobGetter interface {
	Get(jobID string) (*domain.Job, error)
}

// Archiver persists a terminal report durably; the in-memory report
// store does not survive the process.
type Archiver interface {
	SaveReport(ctx context.Context, rep *domain.Report) error
}

// Outcome is the terminal observation of one polling loop.
type Outcome struct {
	Status domain.JobStatus
	Job    *domain.Job
	Report *domain.Report
}

// Poller watches a job at a fixed interval until it reaches a terminal
// state. On completion it snapshots the job exactly once, materializes
// the report with its frozen gallery mapping, and registers it; on
// failure it surfaces the terminal error and stops without retrying. A
// job evicted from the registry mid-poll yields domain.ErrNotFound
// rather than a crash.
type Poller struct {
	jobs     JobGetter
	reports  *report.Store
	archive  Archiver
	logger   infra.Logger
	interval time.Duration
}

// New constructs a poller. Archive may be nil.
func New(jobs JobGetter, reports *report.Store, archive Archiver, logger infra.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		jobs:     jobs,
		reports:  reports,
		archive:  archive,
		logger:   logger.With().Str("component", "poller").Logger(),
		interval: interval,
	}
}

// Watch polls until the job is terminal, the job disappears, or ctx is
// cancelled. The loop tears itself down on terminal states; there is no
// external stop signal beyond ctx.
func (p *Poller) Watch(ctx context.Context, jobID string) (*Outcome, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		job, err := p.jobs.Get(jobID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				p.logger.Warn().Str("job_id", jobID).Msg("job not found, stopping poll")
				return nil, domain.ErrNotFound
			}
			return nil, err
		}

		switch job.Status {
		case domain.JobStatusCompleted:
			return p.complete(ctx, job)
		case domain.JobStatusFailed:
			p.logger.Info().
				Str("job_id", jobID).
				Str("detail", job.TerminalDetail).
				Msg("job failed")
			return &Outcome{Status: domain.JobStatusFailed, Job: job}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) complete(ctx context.Context, job *domain.Job) (*Outcome, error) {
	rep, err := report.Materialize(job)
	if err != nil {
		return nil, err
	}
	p.reports.Put(rep)
	if p.archive != nil {
		if err := p.archive.SaveReport(ctx, rep); err != nil {
			p.logger.Warn().Err(err).Str("report_id", rep.ID).Msg("archive report failed")
		}
	}
	return &Outcome{Status: domain.JobStatusCompleted, Job: job, Report: rep}, nil
}
