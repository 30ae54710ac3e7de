package app

import (
	"context"
	"fmt"

	"github.com/kapu/competitor-intel-go/internal/config"
	"github.com/kapu/competitor-intel-go/internal/layout"
	"github.com/kapu/competitor-intel-go/internal/server"
	"github.com/kapu/competitor-intel-go/internal/service"
	"github.com/kapu/competitor-intel-go/internal/service/cache"
	"go.uber.org/zap"
)

// Container bundles assembled services for constructing the HTTP server.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Cache   *cache.CacheService
	Reports *service.ReportService
	Jobs    *server.JobManager

	closers []func()
}

// NewServer creates the HTTP server over the pre-built dependency graph.
func (c *Container) NewServer() (*server.Server, error) {
	if c == nil || c.Jobs == nil {
		return nil, fmt.Errorf("server dependencies not initialized")
	}
	addr := fmt.Sprintf("%s:%d", c.Config.Server.Host, c.Config.Server.Port)
	return server.New(addr, c.Jobs, c.Cache, c.Logger), nil
}

// Close releases infrastructure resources in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles all infrastructure services. Heavy-weight initialization
// (Redis, AI clients) happens here so the server stays focused on transport.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		CompetitorTTL: cfg.Report.CacheTTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}
	closers = append(closers, func() {
		_ = cacheSvc.Close()
	})

	scraper := service.NewScraperService(service.ScraperOptions{
		Timeout:        cfg.Scraper.Timeout,
		RequestsPerSec: cfg.Scraper.RequestsPerSec,
		UserAgent:      cfg.Scraper.UserAgent,
		RespectRobots:  cfg.Scraper.RespectRobots,
	}, logger)

	var primary, fallback service.TextProvider
	if cfg.Gemini.APIKey != "" {
		gemini, gerr := service.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if gerr != nil {
			return nil, fmt.Errorf("failed to create gemini provider: %w", gerr)
		}
		primary = gemini
	}

	if openAI := service.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger); openAI != nil {
		if primary == nil {
			primary = openAI
		} else if cfg.OpenAI.EnableFallback {
			fallback = openAI
		}
	}
	if primary == nil {
		return nil, fmt.Errorf("no narrative provider configured")
	}
	logger.Info("Narrative providers ready",
		zap.String("primary", primary.Name()),
		zap.Bool("fallback", fallback != nil))

	narrative := service.NewNarrativeService(primary, fallback, logger)
	engine := layout.NewEngine(logger)

	reports := service.NewReportService(cacheSvc, scraper, narrative, engine, cfg.Report.Concurrency, logger)
	jobs := server.NewJobManager(reports, logger)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Cache:   cacheSvc,
		Reports: reports,
		Jobs:    jobs,
		closers: closers,
	}, nil
}
