// Package app wires configuration, storage, fetchers and the LLM
// stages into a runnable collection pipeline.
package app

import (
	"context"
	"fmt"

	"github.com/datacube/aihub/internal/collector"
	"github.com/datacube/aihub/internal/config"
	"github.com/datacube/aihub/internal/fetch"
	"github.com/datacube/aihub/internal/llm"
	"github.com/datacube/aihub/internal/logger"
	"github.com/datacube/aihub/internal/ratelimit"
	"github.com/datacube/aihub/internal/retry"
	"github.com/datacube/aihub/internal/sources"
	"github.com/datacube/aihub/internal/storage"
)

// Modes accepted by Run.
const (
	ModeFetch   = "fetch"
	ModeProcess = "process"
	ModeCollect = "collect"
)

// hnMaxEnhance bounds the content+comments enhancement pass.
const hnMaxEnhance = 30

// Run executes one pipeline invocation: fetch only, process only, or
// the full collection. An empty periodID means the current week.
func Run(ctx context.Context, mode, periodID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Debug)

	catalog, err := sources.Load(cfg.SourcesConfigPath)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	var store *storage.Store
	err = retry.Do(ctx, retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay}, func() error {
		var connErr error
		store, connErr = storage.New(cfg.DatabaseURL)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}
	defer store.Close()

	budget := ratelimit.NewBudget(cfg.MaxLLMRequests)
	c := buildCollector(cfg, catalog, store, budget)

	switch mode {
	case ModeFetch:
		stats, err := c.RunFetchOnly(ctx, periodID)
		if err != nil {
			return err
		}
		logger.Info("fetch finished", "period", stats.PeriodID,
			"articles", stats.Articles, "videos", stats.Videos)
		return nil
	case ModeProcess:
		if err := c.RunProcessOnly(ctx, periodID); err != nil {
			return err
		}
		logger.Info("processing finished", "llm_requests", budget.Used())
		return nil
	case ModeCollect:
		if err := c.RunFullCollection(ctx, periodID); err != nil {
			return err
		}
		logger.Info("collection finished", "llm_requests", budget.Used())
		return nil
	default:
		return fmt.Errorf("unknown mode %q (want %s, %s or %s)", mode, ModeFetch, ModeProcess, ModeCollect)
	}
}

func buildCollector(cfg *config.Config, catalog sources.Catalog, store *storage.Store, budget *ratelimit.Budget) *collector.Collector {
	hn := fetch.NewHNFetcher(fetch.HNConfig{
		MinPoints:      cfg.HNMinPoints,
		Limit:          cfg.HNLimit,
		LookbackDays:   cfg.LookbackDays,
		Workers:        cfg.HNMaxWorkers,
		EnhanceWorkers: cfg.EnhanceMaxWorkers,
		MaxEnhance:     hnMaxEnhance,
		Timeout:        cfg.HNTimeout,
	})
	rss := fetch.NewRSSFetcher(catalog, cfg.RSSTimeout, cfg.RSSMaxWorkers)
	yt := fetch.NewYouTubeFetcher(fetch.YouTubeConfig{
		APIKey:       cfg.YouTubeAPIKey,
		MaxResults:   int64(cfg.YouTubeMaxResults),
		MinViews:     cfg.YouTubeMinViews,
		LookbackDays: cfg.LookbackDays,
		Timeout:      cfg.RSSTimeout,
	})

	// All enrichment tasks draw from one request budget, but each gets
	// its own client handle.
	factory := func(ctx context.Context) (collector.Enricher, func(), error) {
		client, err := llm.NewClient(ctx, cfg.GeminiAPIKey, budget, cfg.LLMTimeout)
		if err != nil {
			return nil, nil, err
		}
		return llm.NewProcessor(client, cfg.ClassifierModel, cfg.ProcessorModel), client.Close, nil
	}

	// HN before the RSS catalog: its enhanced summaries win dedup ties.
	return collector.New(cfg, store,
		[]collector.ArticleFetcher{hn, rss}, yt, factory)
}
