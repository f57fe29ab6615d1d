package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zishinew/Hearth-AI/internal/audit"
	"github.com/zishinew/Hearth-AI/internal/domain"
	"github.com/zishinew/Hearth-AI/internal/generate"
	"github.com/zishinew/Hearth-AI/internal/infra"
	"github.com/zishinew/Hearth-AI/internal/poller"
	"github.com/zishinew/Hearth-AI/internal/providers/vision"
	"github.com/zishinew/Hearth-AI/internal/registry"
	"github.com/zishinew/Hearth-AI/internal/report"
	"github.com/zishinew/Hearth-AI/internal/scraper"
)

// ReportArchive is the durable side of report storage, satisfied by the
// Postgres archive. Nil when the deployment runs without a database.
type ReportArchive interface {
	SaveReport(ctx context.Context, rep *domain.Report) error
	GetReportByAddress(ctx context.Context, address string) (*domain.Report, error)
}

// App bundles the components the HTTP surface dispatches into.
type App struct {
	Logger     infra.Logger
	Registry   *registry.Registry
	Runner     *audit.Runner
	Reports    *report.Store
	Dispatcher *generate.Dispatcher
	Poller     *poller.Poller
	Scraper    scraper.Scraper
	Auditor    vision.Auditor
	Archive    ReportArchive
	MaxImages  int

	// BaseCtx bounds background work (audit runs, report polling) to
	// the process lifetime instead of the submitting request.
	BaseCtx context.Context
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorResponse{Error: kind, Message: message})
}

func (a *App) background() context.Context {
	if a.BaseCtx != nil {
		return a.BaseCtx
	}
	return context.Background()
}
