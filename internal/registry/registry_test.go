package registry

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zishinew/Hearth-AI/internal/domain"
)

func newTestRegistry() *Registry {
	return New(zerolog.Nop())
}

func TestCreateAllocatesPendingSlots(t *testing.T) {
	reg := newTestRegistry()
	urls := []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.jpg",
		"https://cdn.example.com/c.jpg",
	}

	id := reg.Create(urls, &domain.PropertyInfo{Address: "123 Main St"}, true)
	job, err := reg.Get(id)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if job.Status != domain.JobStatusPending {
		t.Fatalf("Status = %s, want %s", job.Status, domain.JobStatusPending)
	}
	if job.TotalImages != 3 || len(job.Results) != 3 {
		t.Fatalf("TotalImages = %d, len(Results) = %d, want 3", job.TotalImages, len(job.Results))
	}
	for i, r := range job.Results {
		if r.PositionInBatch != i {
			t.Fatalf("Results[%d].PositionInBatch = %d", i, r.PositionInBatch)
		}
		if r.SourceURL != urls[i] {
			t.Fatalf("Results[%d].SourceURL = %q, want %q", i, r.SourceURL, urls[i])
		}
		if !r.Pending() {
			t.Fatalf("Results[%d] not pending at creation", i)
		}
	}
	if !job.WheelchairAccessible {
		t.Fatal("WheelchairAccessible not carried onto job")
	}
}

func TestGetUnknownJob(t *testing.T) {
	reg := newTestRegistry()
	if _, err := reg.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get() error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	reg := newTestRegistry()
	id := reg.Create([]string{"https://cdn.example.com/a.jpg"}, nil, false)

	snap, _ := reg.Get(id)
	snap.Results[0].Audit = &domain.AuditData{BarrierDescription: "mutated"}

	fresh, _ := reg.Get(id)
	if fresh.Results[0].Audit != nil {
		t.Fatal("mutating a snapshot leaked into the registry")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	reg := newTestRegistry()
	id := reg.Create([]string{"https://cdn.example.com/a.jpg"}, nil, false)

	if err := reg.MarkCompleted(id); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("MarkCompleted from pending error = %v, want %v", err, domain.ErrInvalidTransition)
	}
	if err := reg.MarkProcessing(id, "Auditing image 1/1"); err != nil {
		t.Fatalf("MarkProcessing() unexpected error: %v", err)
	}
	if err := reg.MarkProcessing(id, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second MarkProcessing error = %v, want %v", err, domain.ErrInvalidTransition)
	}
	if err := reg.MarkCompleted(id); err != nil {
		t.Fatalf("MarkCompleted() unexpected error: %v", err)
	}
	if err := reg.MarkFailed(id, domain.ErrorKindJob, "late failure"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("MarkFailed after completed error = %v, want %v", err, domain.ErrInvalidTransition)
	}

	job, _ := reg.Get(id)
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, want %s", job.Status, domain.JobStatusCompleted)
	}
}

func TestMarkFailedFromPending(t *testing.T) {
	reg := newTestRegistry()
	id := reg.Create(nil, nil, false)

	if err := reg.MarkFailed(id, domain.ErrorKindJob, "no images resolved from submission"); err != nil {
		t.Fatalf("MarkFailed() unexpected error: %v", err)
	}
	job, _ := reg.Get(id)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("Status = %s, want %s", job.Status, domain.JobStatusFailed)
	}
	if job.TerminalError == nil || *job.TerminalError != domain.ErrorKindJob {
		t.Fatalf("TerminalError = %v, want %s", job.TerminalError, domain.ErrorKindJob)
	}
	if job.TerminalDetail != "no images resolved from submission" {
		t.Fatalf("TerminalDetail = %q", job.TerminalDetail)
	}
}

func TestRecordAuditProgress(t *testing.T) {
	reg := newTestRegistry()
	urls := []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.jpg",
		"https://cdn.example.com/c.jpg",
	}
	id := reg.Create(urls, nil, false)
	if err := reg.MarkProcessing(id, ""); err != nil {
		t.Fatalf("MarkProcessing() unexpected error: %v", err)
	}

	if err := reg.RecordAudit(id, 0, domain.AuditData{BarrierDescription: "steps"}); err != nil {
		t.Fatalf("RecordAudit() unexpected error: %v", err)
	}
	job, _ := reg.Get(id)
	if job.AuditProgressPct != 33 {
		t.Fatalf("AuditProgressPct = %d, want 33", job.AuditProgressPct)
	}

	if err := reg.RecordItemFailure(id, 1, "model call timed out"); err != nil {
		t.Fatalf("RecordItemFailure() unexpected error: %v", err)
	}
	job, _ = reg.Get(id)
	if job.AuditProgressPct != 66 {
		t.Fatalf("AuditProgressPct = %d, want 66", job.AuditProgressPct)
	}
	if job.Results[1].Failure == nil || *job.Results[1].Failure != domain.ErrorKindAuditItem {
		t.Fatalf("Results[1].Failure = %v, want %s", job.Results[1].Failure, domain.ErrorKindAuditItem)
	}

	if err := reg.RecordAudit(id, 2, domain.AuditData{BarrierDescription: "narrow hall"}); err != nil {
		t.Fatalf("RecordAudit() unexpected error: %v", err)
	}
	job, _ = reg.Get(id)
	if job.AuditProgressPct != 100 {
		t.Fatalf("AuditProgressPct = %d, want 100", job.AuditProgressPct)
	}
	if job.Status != domain.JobStatusProcessing {
		t.Fatalf("Status = %s, progress writes must not complete the job", job.Status)
	}
}

func TestRecordIsIdempotentByPosition(t *testing.T) {
	reg := newTestRegistry()
	id := reg.Create([]string{"https://cdn.example.com/a.jpg"}, nil, false)
	if err := reg.MarkProcessing(id, ""); err != nil {
		t.Fatalf("MarkProcessing() unexpected error: %v", err)
	}

	if err := reg.RecordAudit(id, 0, domain.AuditData{BarrierDescription: "first"}); err != nil {
		t.Fatalf("RecordAudit() unexpected error: %v", err)
	}
	if err := reg.RecordItemFailure(id, 0, "should be dropped"); err != nil {
		t.Fatalf("duplicate RecordItemFailure() unexpected error: %v", err)
	}

	job, _ := reg.Get(id)
	if job.Results[0].Audit == nil || job.Results[0].Audit.BarrierDescription != "first" {
		t.Fatal("duplicate write overwrote the original result")
	}
	if job.Results[0].Failure != nil {
		t.Fatal("duplicate failure write landed on a settled slot")
	}
	if job.AuditProgressPct != 100 {
		t.Fatalf("AuditProgressPct = %d, want 100", job.AuditProgressPct)
	}
}

func TestRecordOutOfRange(t *testing.T) {
	reg := newTestRegistry()
	id := reg.Create([]string{"https://cdn.example.com/a.jpg"}, nil, false)
	if err := reg.RecordAudit(id, 5, domain.AuditData{}); err == nil {
		t.Fatal("RecordAudit() with out-of-range position did not error")
	}
}

func TestSetStatusMessageDroppedOnTerminal(t *testing.T) {
	reg := newTestRegistry()
	id := reg.Create([]string{"https://cdn.example.com/a.jpg"}, nil, false)
	_ = reg.MarkProcessing(id, "")
	_ = reg.MarkCompleted(id)

	if err := reg.SetStatusMessage(id, "late update"); err != nil {
		t.Fatalf("SetStatusMessage() unexpected error: %v", err)
	}
	job, _ := reg.Get(id)
	if job.StatusMessage != "Audit complete" {
		t.Fatalf("StatusMessage = %q, want %q", job.StatusMessage, "Audit complete")
	}
}

func TestEvict(t *testing.T) {
	reg := newTestRegistry()
	id := reg.Create([]string{"https://cdn.example.com/a.jpg"}, nil, false)
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
	reg.Evict(id)
	if reg.Len() != 0 {
		t.Fatalf("Len() = %d after evict, want 0", reg.Len())
	}
	if _, err := reg.Get(id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get() after evict error = %v, want %v", err, domain.ErrNotFound)
	}
}
