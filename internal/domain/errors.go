package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrIndexNotFound     = errors.New("gallery index not found")
	ErrNotEligible       = errors.New("image not eligible for generation")
	ErrGenerationFailed  = errors.New("generation failed")
	ErrCancelled         = errors.New("generation superseded")
	ErrEmptyBatch        = errors.New("no images resolved from submission")
	ErrJobNotCompleted   = errors.New("job is not completed")
)
