package domain

// ErrorKind classifies failures recorded on audit results and jobs.
type ErrorKind string

const (
	// ErrorKindAuditItem marks a single image whose audit failed; the job
	// continues past it.
	ErrorKindAuditItem ErrorKind = "audit_item_failure"
	// ErrorKindJob marks a whole submission that could not proceed at all.
	ErrorKindJob ErrorKind = "job_failure"
)

// AuditData is the accessibility analysis produced for one image.
// GenerationPrompt and MaskPrompt are empty when the auditor found no
// barrier worth visualizing; such images are not eligible for generation.
type AuditData struct {
	BarrierDescription string `json:"barrier_description"`
	RecommendedFix     string `json:"recommended_fix"`
	CostEstimate       string `json:"cost_estimate"`
	ComplianceNotes    string `json:"compliance_notes"`
	AccessibilityScore int    `json:"accessibility_score"`
	GenerationPrompt   string `json:"generation_prompt,omitempty"`
	MaskPrompt         string `json:"mask_prompt,omitempty"`
}

// Eligible reports whether the image can be sent to the renovation
// generator.
func (d AuditData) Eligible() bool {
	return d.GenerationPrompt != "" && d.MaskPrompt != ""
}

// AuditResult is the slot for one submitted image. Exactly one of Audit
// and Failure is set once the item finishes; both are nil while pending.
// PositionInBatch is assigned at submission and never changes.
type AuditResult struct {
	PositionInBatch int        `json:"position_in_batch"`
	SourceURL       string     `json:"source_url"`
	Audit           *AuditData `json:"audit,omitempty"`
	Failure         *ErrorKind `json:"failure,omitempty"`
	FailureDetail   string     `json:"failure_detail,omitempty"`
}

// Pending reports whether the item has not finished processing yet.
func (r AuditResult) Pending() bool {
	return r.Audit == nil && r.Failure == nil
}

// PropertyInfo carries listing metadata scraped alongside the photos. All
// fields are best-effort; absent values stay empty.
type PropertyInfo struct {
	Address      string   `json:"address,omitempty"`
	Price        string   `json:"price,omitempty"`
	Bedrooms     string   `json:"bedrooms,omitempty"`
	Bathrooms    string   `json:"bathrooms,omitempty"`
	SquareFeet   string   `json:"square_feet,omitempty"`
	MLSNumber    string   `json:"mls_number,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Location     string   `json:"location,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}
