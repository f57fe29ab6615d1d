package vision

import (
	"context"

	"github.com/zishinew/Hearth-AI/internal/domain"
)

// AuditRequest describes a single image to analyze. The wheelchair flag
// is passed through verbatim into prompt construction; the orchestration
// core never interprets it.
type AuditRequest struct {
	ImageURL             string
	WheelchairAccessible bool
}

// Auditor is the contract implemented by all vision providers.
type Auditor interface {
	Audit(ctx context.Context, req AuditRequest) (domain.AuditData, error)
}
