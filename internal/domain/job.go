package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks one audit run over a batch of images from submission to a
// terminal state. Results has length TotalImages from creation; entries
// are written in place as audits land and are never reordered or removed.
type Job struct {
	ID                    string        `json:"id"`
	Status                JobStatus     `json:"status"`
	AuditProgressPct      int           `json:"audit_progress_pct"`
	GenerationProgressPct int           `json:"generation_progress_pct"`
	StatusMessage         string        `json:"status_message"`
	TotalImages           int           `json:"total_images"`
	PropertyInfo          *PropertyInfo `json:"property_info,omitempty"`
	Results               []AuditResult `json:"results"`
	TerminalError         *ErrorKind    `json:"terminal_error,omitempty"`
	TerminalDetail        string        `json:"terminal_detail,omitempty"`
	WheelchairAccessible  bool          `json:"wheelchair_accessible"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// Completed returns the number of non-pending result slots.
func (j *Job) Completed() int {
	n := 0
	for _, r := range j.Results {
		if !r.Pending() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the job so concurrent readers never
// observe a torn write.
func (j *Job) Clone() *Job {
	cp := *j
	cp.Results = make([]AuditResult, len(j.Results))
	for i, r := range j.Results {
		cp.Results[i] = r
		if r.Audit != nil {
			audit := *r.Audit
			cp.Results[i].Audit = &audit
		}
		if r.Failure != nil {
			failure := *r.Failure
			cp.Results[i].Failure = &failure
		}
	}
	if j.PropertyInfo != nil {
		info := *j.PropertyInfo
		info.Amenities = append([]string(nil), j.PropertyInfo.Amenities...)
		cp.PropertyInfo = &info
	}
	if j.TerminalError != nil {
		kind := *j.TerminalError
		cp.TerminalError = &kind
	}
	return &cp
}
