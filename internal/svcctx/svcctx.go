// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/booklet/internal/booklet"
	"github.com/jackzampolin/booklet/internal/config"
	"github.com/jackzampolin/booklet/internal/fetch"
	"github.com/jackzampolin/booklet/internal/grayscale"
	"github.com/jackzampolin/booklet/internal/holidays"
	"github.com/jackzampolin/booklet/internal/home"
	"github.com/jackzampolin/booklet/internal/metrics"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Engine        *booklet.Engine
	Grayscale     *grayscale.Client // nil when no remote converter is configured
	Metrics       *metrics.Recorder
	ConfigManager *config.Manager
	Config        *config.Config
	Logger        *slog.Logger
	Home          *home.Dir
}

// New wires the engine and its collaborators from cfg for serving remote
// requests: fragment URLs must be http(s). The recorder is shared so that
// metrics survive a config reload.
func New(cfg *config.Config, recorder *metrics.Recorder, logger *slog.Logger) *Services {
	return newServices(cfg, recorder, logger, false)
}

// NewLocal wires services for the local CLI, where file:// fragment URLs
// name files the invoking user can already read.
func NewLocal(cfg *config.Config, logger *slog.Logger) *Services {
	return newServices(cfg, nil, logger, true)
}

func newServices(cfg *config.Config, recorder *metrics.Recorder, logger *slog.Logger, allowFile bool) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder(0)
	}

	strategies := map[string]grayscale.Converter{
		grayscale.StrategyLocal: grayscale.NewLocal(logger),
	}
	var remote *grayscale.Client
	if cfg.Grayscale.URL != "" {
		remote = grayscale.NewClient(cfg.GrayscaleClientConfig(logger))
		strategies[grayscale.StrategyRemote] = remote
	} else if cfg.Grayscale.DefaultStrategy == grayscale.StrategyRemote {
		logger.Warn("remote grayscale strategy selected but no url configured")
	}

	fetchCfg := cfg.FetchConfig(logger)
	fetchCfg.AllowFile = allowFile

	engine := booklet.New(booklet.Config{
		Fetcher:    fetch.New(fetchCfg),
		Grayscaler: grayscale.NewSelector(cfg.Grayscale.DefaultStrategy, strategies),
		Holidays:   holidays.NewClient(cfg.HolidaysClientConfig(logger)),
		Observer:   recorder,
		Settings:   cfg.EngineSettings(),
		Logger:     logger,
	})

	return &Services{
		Engine:    engine,
		Grayscale: remote,
		Metrics:   recorder,
		Config:    cfg,
		Logger:    logger,
	}
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// EngineFrom extracts the booklet engine from context.
func EngineFrom(ctx context.Context) *booklet.Engine {
	if s := ServicesFrom(ctx); s != nil {
		return s.Engine
	}
	return nil
}

// GrayscaleFrom extracts the remote grayscale client from context.
func GrayscaleFrom(ctx context.Context) *grayscale.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Grayscale
	}
	return nil
}

// MetricsFrom extracts the metrics recorder from context.
func MetricsFrom(ctx context.Context) *metrics.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Metrics
	}
	return nil
}

// ConfigFrom extracts the current configuration from context. The config
// manager's value wins over the snapshot the services were built from.
func ConfigFrom(ctx context.Context) *config.Config {
	s := ServicesFrom(ctx)
	if s == nil {
		return nil
	}
	if s.ConfigManager != nil {
		return s.ConfigManager.Get()
	}
	return s.Config
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
