package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/caselight/caselight-api/internal/config"
	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/events"
	"github.com/caselight/caselight-api/internal/generation"
	"github.com/caselight/caselight-api/internal/orchestrator"
	"github.com/caselight/caselight-api/internal/platform/gemini"
	"github.com/caselight/caselight-api/internal/platform/openai"
	"github.com/caselight/caselight-api/internal/platform/postgres"
	"github.com/caselight/caselight-api/internal/platform/s3"
	"github.com/caselight/caselight-api/internal/platform/sqlite"
	"github.com/caselight/caselight-api/internal/service"
	"github.com/caselight/caselight-api/internal/store"
)

// application holds all the application-wide dependencies, wired once at
// startup and shared by the HTTP layer.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// cacheDB is the local sqlite artifact cache. Nil when caching is
	// disabled by configuration.
	cacheDB *sql.DB

	unitStore     store.UnitStore
	artifactStore store.ArtifactStore
	jobStore      store.GenerationJobStore

	eventEmitter events.Emitter

	studyService   service.StudyService
	contentService service.ContentService
}

// newApplication wires stores, generation backends and services on top of
// an established database connection.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.unitStore = postgres.NewPostgresUnitStore(db, logger)
	app.jobStore = postgres.NewPostgresJobStore(db, logger)

	artifacts, err := app.setupArtifactStore(cfg, logger, db)
	if err != nil {
		return nil, err
	}
	app.artifactStore = artifacts

	generator, err := app.setupGenerationRouter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app.eventEmitter = events.NewInMemoryEmitter(logger)

	studyService, err := service.NewStudyService(
		app.unitStore,
		app.artifactStore,
		app.jobStore,
		generator,
		app.eventEmitter,
		service.StudyConfig{
			Scheduler: orchestrator.SchedulerConfig{
				Concurrency: cfg.Orchestrator.Concurrency,
			},
			Poller: orchestrator.PollerConfig{
				Interval:    time.Duration(cfg.Orchestrator.PollIntervalSeconds) * time.Second,
				StallWindow: time.Duration(cfg.Orchestrator.StallWindowSeconds) * time.Second,
				MaxPolls:    cfg.Orchestrator.MaxPolls,
			},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize study service: %w", err)
	}
	app.studyService = studyService

	contentService, err := service.NewContentService(db, app.unitStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize content service: %w", err)
	}
	app.contentService = contentService

	logger.Info("Application initialized",
		"cache_enabled", app.cacheDB != nil,
		"concurrency", cfg.Orchestrator.Concurrency)
	return app, nil
}

// setupArtifactStore builds the primary Postgres artifact store and, when
// a cache directory is configured, wraps it in the sqlite read-through
// cache.
func (app *application) setupArtifactStore(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (store.ArtifactStore, error) {
	primary := postgres.NewPostgresArtifactStore(db, logger)
	if cfg.Cache.Dir == "" {
		return primary, nil
	}

	cacheDB, err := sqlite.Open(cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact cache: %w", err)
	}
	app.cacheDB = cacheDB

	cached, err := sqlite.NewCachedArtifactStore(cacheDB, primary, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact cache: %w", err)
	}

	logger.Info("Artifact cache enabled", "dir", cfg.Cache.Dir)
	return cached, nil
}

// setupGenerationRouter registers a backend per artifact kind. Summaries
// and chapters go to Gemini, questions to the queued job worker, and the
// media kinds to OpenAI when media generation is configured.
func (app *application) setupGenerationRouter(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (generation.Service, error) {
	router := generation.NewRouter()

	textService, err := gemini.NewTextService(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize text generation service: %w", err)
	}
	router.Register(domain.KindSummary, textService)
	router.Register(domain.KindChapter, textService)

	queuedService, err := generation.NewQueuedService(app.jobStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queued generation service: %w", err)
	}
	router.Register(domain.KindQuestions, queuedService)

	if cfg.Media.OpenAIAPIKey != "" && cfg.Blob.Bucket != "" {
		blobStore, err := s3.NewBlobStore(ctx, logger, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize blob store: %w", err)
		}

		mediaService, err := openai.NewMediaService(logger, cfg.Media, blobStore)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize media generation service: %w", err)
		}
		router.Register(domain.KindNarration, mediaService)
		router.Register(domain.KindCover, mediaService)
	} else {
		logger.Info("Media generation disabled",
			"openai_key_present", cfg.Media.OpenAIAPIKey != "",
			"blob_bucket_present", cfg.Blob.Bucket != "")
	}

	return router, nil
}

// cleanup releases application resources in reverse order of setup. It
// drains every open study session before closing database handles.
func (app *application) cleanup() {
	if app.studyService != nil {
		app.studyService.CloseAll()
	}

	if app.cacheDB != nil {
		if err := app.cacheDB.Close(); err != nil {
			app.logger.Error("Failed to close artifact cache", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}
