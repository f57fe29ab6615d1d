package domain

import "time"

// BuildGalleryIndex derives the dense renumbering from gallery order to
// batch order: element k holds the PositionInBatch of the k-th result
// without a failure. The mapping is only meaningful when computed from a
// stable snapshot; callers must not feed it a job that is still being
// mutated, or gallery indices drift as earlier positions resolve.
func BuildGalleryIndex(results []AuditResult) []int {
	positions := make([]int, 0, len(results))
	for _, r := range results {
		if r.Failure != nil {
			continue
		}
		positions = append(positions, r.PositionInBatch)
	}
	return positions
}

// Report is the immutable snapshot of a completed job handed to the
// generation side. GalleryIndex is frozen at materialization; gallery
// index k addresses Results[GalleryIndex[k]].
type Report struct {
	ID                   string        `json:"id"`
	JobID                string        `json:"job_id"`
	PropertyInfo         *PropertyInfo `json:"property_info,omitempty"`
	Results              []AuditResult `json:"results"`
	GalleryIndex         []int         `json:"gallery_index"`
	WheelchairAccessible bool          `json:"wheelchair_accessible"`
	CreatedAt            time.Time     `json:"created_at"`
}

// ResolveGalleryIndex translates a gallery index into the underlying
// batch position. Returns ErrIndexNotFound when out of range.
func (r *Report) ResolveGalleryIndex(galleryIndex int) (int, error) {
	if galleryIndex < 0 || galleryIndex >= len(r.GalleryIndex) {
		return 0, ErrIndexNotFound
	}
	return r.GalleryIndex[galleryIndex], nil
}

// ResultAt returns the audit result at the given batch position.
func (r *Report) ResultAt(position int) (AuditResult, error) {
	if position < 0 || position >= len(r.Results) {
		return AuditResult{}, ErrIndexNotFound
	}
	return r.Results[position], nil
}
