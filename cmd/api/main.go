package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zishinew/Hearth-AI/internal/archive"
	"github.com/zishinew/Hearth-AI/internal/audit"
	"github.com/zishinew/Hearth-AI/internal/generate"
	"github.com/zishinew/Hearth-AI/internal/http/handlers"
	"github.com/zishinew/Hearth-AI/internal/http/httpapi"
	"github.com/zishinew/Hearth-AI/internal/infra"
	"github.com/zishinew/Hearth-AI/internal/poller"
	"github.com/zishinew/Hearth-AI/internal/providers/renovation"
	"github.com/zishinew/Hearth-AI/internal/providers/vision"
	"github.com/zishinew/Hearth-AI/internal/registry"
	"github.com/zishinew/Hearth-AI/internal/report"
	"github.com/zishinew/Hearth-AI/internal/scraper"
	"github.com/zishinew/Hearth-AI/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditor, err := buildAuditor(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure vision auditor")
	}

	generator := buildGenerator(cfg, logger)

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	assetStore, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure asset storage")
	}

	var reportArchive handlers.ReportArchive
	var pollerArchive poller.Archiver
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		pg := archive.NewPostgresArchive(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare report archive")
		}
		reportArchive = pg
		pollerArchive = pg
	} else {
		logger.Warn().Msg("DATABASE_URL not set, reports are kept in memory only")
	}

	jobs := registry.New(logger)
	reports := report.NewStore(logger)
	runner := audit.NewRunner(jobs, auditor, logger, audit.Options{
		MaxParallel: cfg.AuditParallelism,
		CallTimeout: cfg.AuditCallTimeout,
	})
	dispatcher := generate.NewDispatcher(reports, generator, assetStore, logger)
	watch := poller.New(jobs, reports, pollerArchive, logger, cfg.PollInterval)

	app := &handlers.App{
		Logger:     logger,
		Registry:   jobs,
		Runner:     runner,
		Reports:    reports,
		Dispatcher: dispatcher,
		Poller:     watch,
		Scraper:    scraper.NewRealtorScraper(scraper.Options{}),
		Auditor:    auditor,
		Archive:    reportArchive,
		MaxImages:  cfg.MaxImages,
		BaseCtx:    ctx,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, cfg, logger))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildAuditor(cfg *infra.Config) (vision.Auditor, error) {
	switch cfg.VisionProvider {
	case "openai":
		return vision.NewOpenAIAuditor(vision.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Org:     cfg.OpenAIOrg,
		})
	default:
		return vision.NewGeminiAuditor(vision.GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
	}
}

func buildGenerator(cfg *infra.Config, logger infra.Logger) renovation.Generator {
	if cfg.StabilityAPIKey == "" {
		logger.Warn().Msg("STABILITY_API_KEY not set, using synthetic renovation renders")
		return renovation.NewSyntheticGenerator()
	}
	generator, err := renovation.NewStabilityGenerator(renovation.StabilityOptions{
		APIKey:  cfg.StabilityAPIKey,
		BaseURL: cfg.StabilityBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure stability generator")
	}
	return generator
}
