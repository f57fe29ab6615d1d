package domain

import "time"

// GenerationAsset is a rendered "after" image for one audited photo. It
// is never mutated after creation; a fresh successful generation for the
// same index replaces it wholesale.
type GenerationAsset struct {
	ForPosition int       `json:"for_position"`
	Format      string    `json:"format"`
	Data        []byte    `json:"-"`
	StorageKey  string    `json:"storage_key,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
