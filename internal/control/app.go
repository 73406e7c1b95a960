// Package control wires configuration, providers, storage, and workers
// into the running application.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/castforge/castforge/internal/acquire"
	"github.com/castforge/castforge/internal/core/config"
	"github.com/castforge/castforge/internal/health"
	"github.com/castforge/castforge/internal/infra/audio"
	redisclient "github.com/castforge/castforge/internal/infra/redis"
	"github.com/castforge/castforge/internal/infra/storage"
	"github.com/castforge/castforge/internal/infra/storage/memory"
	"github.com/castforge/castforge/internal/infra/storage/postgres"
	"github.com/castforge/castforge/internal/jobs"
	"github.com/castforge/castforge/internal/provider/llm"
	"github.com/castforge/castforge/internal/provider/scrape"
	"github.com/castforge/castforge/internal/provider/tts"
	"github.com/castforge/castforge/internal/resilience"
	"github.com/castforge/castforge/internal/synth"
)

// App is the main application struct that manages the service lifecycle.
type App struct {
	cfg       config.AppConfig
	worker    *jobs.Worker
	pruner    *jobs.Pruner
	monitor   *health.Monitor
	apiServer *health.Server
	db        *postgres.DB
	redis     *redisclient.Client
	log       *slog.Logger
}

// NewApp creates a new App instance with all dependencies initialized.
func NewApp(cfg config.AppConfig) (*App, error) {
	// 1. Storage
	var (
		episodes storage.EpisodeRepository
		events   storage.ErrorEventRepository
		db       *postgres.DB
		dbHealth health.Pinger
	)

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		episodes = postgres.NewEpisodeRepo(db)
		events = postgres.NewErrorEventRepo(db)
		dbHealth = db
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewStorage()
		episodes = memory.NewEpisodeRepo(store)
		events = memory.NewErrorEventRepo(store)
		slog.Info("Using Memory storage")
	}

	artifacts, err := storage.NewArtifactStore(cfg.Media.Dir)
	if err != nil {
		return nil, err
	}

	// 2. Resilience core
	errorLog := resilience.NewErrorLog(0)
	classifier := resilience.NewClassifier(errorLog)
	retrier := resilience.NewRetrier(classifier)
	executor := resilience.NewExecutor(retrier)

	policy := resilience.DefaultRetryPolicy()
	if cfg.Retry.MaxRetries > 0 {
		policy.MaxRetries = cfg.Retry.MaxRetries
	}
	if cfg.Retry.BaseDelay > 0 {
		policy.BaseDelay = cfg.Retry.BaseDelay
	}
	if cfg.Retry.MaxDelay > 0 {
		policy.MaxDelay = cfg.Retry.MaxDelay
	}
	policy.ExponentialBackoff = cfg.Retry.BackoffEnabled()

	// 3. Providers, constructed in chain order
	synthesizers, err := buildSynthesizers(cfg.Providers)
	if err != nil {
		return nil, err
	}
	generators, err := buildGenerators(cfg.Providers)
	if err != nil {
		return nil, err
	}
	fetchers, err := buildFetchers(cfg.Providers)
	if err != nil {
		return nil, err
	}

	// 4. Pipeline and acquisition
	var enhancer synth.Enhancer
	if cfg.Audio.EnhanceEnabled() {
		enhancer = audio.NewEnhancer(cfg.Audio.FFmpegBinary, cfg.Audio.FilterGraph)
	}
	pipeline := synth.NewPipeline(executor, synthesizers, enhancer, policy, cfg.Chunking.FineMaxLen)
	generator := acquire.NewGenerator(executor, generators, policy)
	scraper := acquire.NewScraper(executor, fetchers, policy)

	// 5. Redis queue and worker
	if cfg.Redis.URL == "" {
		return nil, fmt.Errorf("redis url is required for the job queue")
	}
	redisClient, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	worker := jobs.NewWorker(
		jobs.DefaultConfig(),
		redisClient,
		episodes,
		events,
		artifacts,
		scraper,
		generator,
		pipeline,
	)

	pruner := jobs.NewPruner(cfg.Media.Retention, episodes, artifacts)

	// 6. Health monitor and API server
	monitor := health.NewMonitor(errorLog, dbHealth, redisClient, redisClient)
	apiServer := health.NewServer(
		monitor,
		episodes,
		events,
		artifacts,
		redisClient,
		cfg.Audio.EnhanceEnabled(),
		cfg.Server.Port,
	)

	return &App{
		cfg:       cfg,
		worker:    worker,
		pruner:    pruner,
		monitor:   monitor,
		apiServer: apiServer,
		db:        db,
		redis:     redisClient,
		log:       slog.Default(),
	}, nil
}

// Start starts the app and all its components.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.apiServer.Start(); err != nil {
			a.log.Error("API server failed", "error", err)
		}
	}()

	go func() {
		if err := a.worker.Run(ctx); err != nil {
			a.log.Error("Synthesis worker failed", "error", err)
		}
	}()

	go a.pruner.Start(ctx)

	a.log.Info("castforge started", "port", a.cfg.Server.Port)
	return nil
}

// Stop stops the app.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping castforge...")

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.apiServer.Stop(ctx)
}

func buildSynthesizers(cfg config.ProvidersConfig) ([]tts.Synthesizer, error) {
	out := make([]tts.Synthesizer, 0, len(cfg.Synthesis.Order))
	for _, name := range cfg.Synthesis.Order {
		switch name {
		case "elevenlabs":
			out = append(out, tts.NewElevenLabs(cfg.ElevenLabsAPIKey, cfg.Synthesis.Timeout))
		case "openai":
			out = append(out, tts.NewOpenAI(cfg.OpenAIAPIKey, cfg.Synthesis.Timeout))
		default:
			return nil, fmt.Errorf("unknown synthesis provider %q", name)
		}
	}
	return out, nil
}

func buildGenerators(cfg config.ProvidersConfig) ([]llm.Generator, error) {
	out := make([]llm.Generator, 0, len(cfg.Generation.Order))
	for _, name := range cfg.Generation.Order {
		switch name {
		case "openai":
			out = append(out, llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Generation.Timeout))
		case "openrouter":
			out = append(out, llm.NewOpenRouter(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.Generation.Timeout))
		default:
			return nil, fmt.Errorf("unknown generation provider %q", name)
		}
	}
	return out, nil
}

func buildFetchers(cfg config.ProvidersConfig) ([]scrape.Fetcher, error) {
	out := make([]scrape.Fetcher, 0, len(cfg.Scrape.Order))
	for _, name := range cfg.Scrape.Order {
		switch name {
		case "readability":
			out = append(out, scrape.NewReadability(cfg.Scrape.Timeout))
		case "goquery":
			out = append(out, scrape.NewGoquery(cfg.Scrape.Timeout))
		default:
			return nil, fmt.Errorf("unknown scrape provider %q", name)
		}
	}
	return out, nil
}
