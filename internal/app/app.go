package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/agenty/agenty-backend/internal/ai/executor"
	"github.com/agenty/agenty-backend/internal/ai/flows"
	"github.com/agenty/agenty-backend/internal/ai/router"
	"github.com/agenty/agenty-backend/internal/config"
	apphttp "github.com/agenty/agenty-backend/internal/http"
	httpH "github.com/agenty/agenty-backend/internal/http/handlers"
	"github.com/agenty/agenty-backend/internal/knowledgehub"
	"github.com/agenty/agenty-backend/internal/observability"
	"github.com/agenty/agenty-backend/internal/platform/logger"
)

// initOTel is swapped in tests.
var initOTel = observability.InitOTel

type App struct {
	Log    *logger.Logger
	Config *config.Config
	Flows  *flows.Service

	server   *apphttp.Server
	closers  []func() error
	shutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := initOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Observability.Version,
	})
	a := &App{Log: log, Config: cfg, shutdown: otelShutdown}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(reg)
	}

	route, err := router.New(ctx, cfg.AI.Engine)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	log.Info("Generative engine ready", "engine", route.EngineType, "model", route.Model)

	store, err := a.openStore(cfg.Hub)
	if err != nil {
		return nil, err
	}

	ex := executor.New(route.Engine, executor.ConfigFrom(route, cfg.AI), log, metrics)
	a.Flows = flows.NewService(ex, store, log, metrics, flows.Options{
		MaxInsightCards: cfg.AI.MaxInsightCards,
		MaxSuggestions:  cfg.AI.MaxSuggestions,
		SessionTTL:      cfg.AI.SessionTTL.Duration,
	})

	a.server = apphttp.NewServer(cfg.HTTP, apphttp.RouterConfig{
		ServiceName:     cfg.Observability.ServiceName,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		MaxRequestBytes: cfg.HTTP.MaxRequestBytes,
		Log:             log,
		Metrics:         metrics,
		AIHandler:       httpH.NewAIHandler(a.Flows),
		HealthHandler:   httpH.NewHealthHandler(),
	})
	return a, nil
}

func (a *App) openStore(cfg config.HubConfig) (knowledgehub.Store, error) {
	switch cfg.Store {
	case "postgres":
		s, err := knowledgehub.OpenPostgres(cfg.PostgresDSN, cfg.AutoMigrate, a.Log)
		if err != nil {
			return nil, fmt.Errorf("init knowledge hub store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		return knowledgehub.NewMemoryStore(a.Log), nil
	}
}

// Run serves HTTP until ctx is cancelled and then releases resources.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Run(gctx)
	})
	err := g.Wait()
	a.Close()
	return err
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.Log.Warn("close failed", "error", err)
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
