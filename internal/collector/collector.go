// Package collector orchestrates the collection pipeline: fetch and
// stage raw content, classify, enrich in parallel, and persist the
// composed feeds. Each stage degrades independently; a run with empty
// sections is preferred over an aborted run.
package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/datacube/aihub/internal/config"
	"github.com/datacube/aihub/internal/llm"
	"github.com/datacube/aihub/internal/logger"
	"github.com/datacube/aihub/internal/metrics"
	"github.com/datacube/aihub/internal/model"
	"github.com/datacube/aihub/internal/period"
)

// ArticleFetcher is a source adapter producing articles; empty output
// on failure, never an error.
type ArticleFetcher interface {
	Fetch(ctx context.Context) []model.RawArticle
}

// VideoFetcher is the video source adapter.
type VideoFetcher interface {
	Fetch(ctx context.Context) []model.RawVideo
}

// Enricher runs the LLM stages. Implementations are not required to
// be safe for concurrent use; the collector obtains one per task.
type Enricher interface {
	ClassifyArticles(ctx context.Context, articles []model.RawArticle) []model.RawArticle
	ProcessTechArticles(ctx context.Context, articles []model.RawArticle, count int) (model.Bilingual[model.TechItem], error)
	ProcessInvestmentArticles(ctx context.Context, articles []model.RawArticle, count int) (model.InvestmentResult, error)
	ProcessTipsArticles(ctx context.Context, articles []model.RawArticle, count int) (model.Bilingual[model.TipItem], error)
	ProcessVideos(ctx context.Context, videos []model.RawVideo, count int) (model.Bilingual[model.VideoItem], error)
	GenerateTrends(ctx context.Context, tech model.Bilingual[model.TechItem], investment model.InvestmentResult) (model.TrendsResult, error)
}

// EnricherFactory builds a fresh Enricher plus its cleanup func. Each
// concurrent enrichment task calls it once, so no client handle is
// ever shared across tasks.
type EnricherFactory func(ctx context.Context) (Enricher, func(), error)

// Store is the persistence surface the collector drives.
type Store interface {
	EnsurePeriod(ctx context.Context, p model.Period) error
	ClearRawData(ctx context.Context, periodID string) error
	SaveRawArticles(ctx context.Context, periodID string, articles []model.RawArticle) error
	SaveRawVideos(ctx context.Context, periodID string, videos []model.RawVideo) error
	LoadRawArticles(ctx context.Context, periodID string) ([]model.RawArticle, error)
	LoadRawVideos(ctx context.Context, periodID string) ([]model.RawVideo, error)
	UpdateClassification(ctx context.Context, articles []model.RawArticle) error
	ReplacePeriodFeeds(ctx context.Context, periodID string, results model.ProcessedResults, rawVideos []model.RawVideo) (int, error)
}

// Collector wires fetchers, the LLM stages and the store into the
// four-stage pipeline.
type Collector struct {
	cfg         *config.Config
	store       Store
	articles    []ArticleFetcher
	videos      VideoFetcher
	newEnricher EnricherFactory
}

func New(cfg *config.Config, store Store, articleFetchers []ArticleFetcher, videoFetcher VideoFetcher, factory EnricherFactory) *Collector {
	return &Collector{
		cfg:         cfg,
		store:       store,
		articles:    articleFetchers,
		videos:      videoFetcher,
		newEnricher: factory,
	}
}

// resolvePeriod defaults an empty id to the current week.
func (c *Collector) resolvePeriod(id string) (model.Period, error) {
	if id == "" {
		id = period.CurrentWeekID(c.cfg.Location())
	}
	return period.Describe(id)
}

// FetchStats summarizes a stage 1 run.
type FetchStats struct {
	PeriodID string
	Articles int
	Videos   int
}

// RunFetchOnly executes stage 1: fetch all sources and stage the raw
// rows for the period.
func (c *Collector) RunFetchOnly(ctx context.Context, periodID string) (FetchStats, error) {
	p, err := c.resolvePeriod(periodID)
	if err != nil {
		return FetchStats{}, err
	}
	return c.stageFetch(ctx, p)
}

// RunProcessOnly executes stages 2-4 against previously staged raw
// data. It fails when the period has nothing staged.
func (c *Collector) RunProcessOnly(ctx context.Context, periodID string) error {
	p, err := c.resolvePeriod(periodID)
	if err != nil {
		return err
	}

	articles, err := c.store.LoadRawArticles(ctx, p.ID)
	if err != nil {
		return err
	}
	videos, err := c.store.LoadRawVideos(ctx, p.ID)
	if err != nil {
		return err
	}
	if len(articles) == 0 && len(videos) == 0 {
		return fmt.Errorf("no raw data staged for %s, run a fetch first", p.ID)
	}

	return c.processAndSave(ctx, p)
}

// RunFullCollection executes all four stages for the period.
func (c *Collector) RunFullCollection(ctx context.Context, periodID string) error {
	started := time.Now()
	p, err := c.resolvePeriod(periodID)
	if err != nil {
		return err
	}
	logger.Info("starting full collection", "period", p.ID)

	if _, err := c.stageFetch(ctx, p); err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}
	if err := c.processAndSave(ctx, p); err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	metrics.Global.SetLastRun(p.ID, time.Since(started))
	logger.Info("full collection done", "period", p.ID, "duration", time.Since(started))
	return nil
}

func (c *Collector) processAndSave(ctx context.Context, p model.Period) error {
	if err := c.stageClassify(ctx, p.ID); err != nil {
		return err
	}
	results, rawVideos, err := c.stageEnrich(ctx, p.ID)
	if err != nil {
		return err
	}
	_, err = c.store.ReplacePeriodFeeds(ctx, p.ID, results, rawVideos)
	return err
}

// stageFetch runs the three source adapters concurrently, filters the
// merged articles into the period window and stages everything.
func (c *Collector) stageFetch(ctx context.Context, p model.Period) (FetchStats, error) {
	start, end, err := period.Resolve(p.ID)
	if err != nil {
		return FetchStats{}, err
	}
	logger.Info("fetch stage", "period", p.ID,
		"window_start", start.Format("2006-01-02"), "window_end", end.Format("2006-01-02"))

	if err := c.store.EnsurePeriod(ctx, p); err != nil {
		return FetchStats{}, err
	}
	if err := c.store.ClearRawData(ctx, p.ID); err != nil {
		return FetchStats{}, err
	}

	results := make([][]model.RawArticle, len(c.articles))
	var videos []model.RawVideo

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range c.articles {
		g.Go(func() error {
			results[i] = f.Fetch(gctx)
			return nil
		})
	}
	if c.videos != nil {
		g.Go(func() error {
			videos = c.videos.Fetch(gctx)
			return nil
		})
	}
	g.Wait()

	// Source order, not completion order, decides dedup priority.
	var merged []model.RawArticle
	for _, r := range results {
		merged = append(merged, r...)
	}
	merged = DedupArticles(FilterByPeriod(merged, start, end))

	if err := c.store.SaveRawArticles(ctx, p.ID, merged); err != nil {
		return FetchStats{}, err
	}
	if err := c.store.SaveRawVideos(ctx, p.ID, videos); err != nil {
		return FetchStats{}, err
	}

	stats := FetchStats{PeriodID: p.ID, Articles: len(merged), Videos: len(videos)}
	logger.Info("fetch stage done", "articles", stats.Articles, "videos", stats.Videos)
	return stats, nil
}

// stageClassify assigns sections. Articles from tips-hinted sources
// bypass the model entirely: their origin already guarantees fit.
func (c *Collector) stageClassify(ctx context.Context, periodID string) error {
	articles, err := c.store.LoadRawArticles(ctx, periodID)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		logger.Warn("no staged articles to classify", "period", periodID)
		return nil
	}

	var tips, toClassify []model.RawArticle
	for _, a := range articles {
		if a.OriginalSection == "tips" {
			a.Section = "tips"
			a.Relevance = 0.8
			tips = append(tips, a)
		} else {
			toClassify = append(toClassify, a)
		}
	}

	var classified []model.RawArticle
	if len(toClassify) > 0 {
		enricher, closeEnricher, err := c.newEnricher(ctx)
		if err != nil {
			return fmt.Errorf("classification client: %w", err)
		}
		classified = enricher.ClassifyArticles(ctx, toClassify)
		closeEnricher()
	}

	logger.Info("classification done", "tips", len(tips), "classified", len(classified))
	return c.store.UpdateClassification(ctx, append(tips, classified...))
}

// stageEnrich runs the four enrichment tasks under a bounded pool,
// each with its own client handle, then derives trends from the tech
// and investment output.
func (c *Collector) stageEnrich(ctx context.Context, periodID string) (model.ProcessedResults, []model.RawVideo, error) {
	articles, err := c.store.LoadRawArticles(ctx, periodID)
	if err != nil {
		return model.ProcessedResults{}, nil, err
	}
	rawVideos, err := c.store.LoadRawVideos(ctx, periodID)
	if err != nil {
		return model.ProcessedResults{}, nil, err
	}

	bySection := map[string][]model.RawArticle{}
	for _, a := range articles {
		bySection[a.Section] = append(bySection[a.Section], a)
	}
	for _, section := range bySection {
		sort.SliceStable(section, func(i, j int) bool {
			return section[i].Relevance > section[j].Relevance
		})
	}
	logger.Info("enrichment stage",
		"tech", len(bySection["tech"]), "investment", len(bySection["investment"]),
		"tips", len(bySection["tips"]), "videos", len(rawVideos))

	results := model.ProcessedResults{
		Tech:       model.Bilingual[model.TechItem]{DE: []model.TechItem{}, EN: []model.TechItem{}},
		Investment: llm.EmptyInvestmentResult(),
		Tips:       model.Bilingual[model.TipItem]{DE: []model.TipItem{}, EN: []model.TipItem{}},
		Videos:     model.Bilingual[model.VideoItem]{DE: []model.VideoItem{}, EN: []model.VideoItem{}},
		Trends:     model.TrendsResult{Trends: model.Bilingual[model.TrendTopic]{DE: []model.TrendTopic{}, EN: []model.TrendTopic{}}},
	}

	// Each task owns its fallback: an erroring task leaves its section
	// typed-empty and never disturbs the siblings.
	run := func(name string, task func(Enricher) error) func() error {
		return func() error {
			enricher, closeEnricher, err := c.newEnricher(ctx)
			if err != nil {
				logger.Error("enrichment client failed", "task", name, "error", err)
				metrics.Global.IncrementEnrichmentFallback()
				return nil
			}
			defer closeEnricher()
			if err := task(enricher); err != nil {
				logger.Error("enrichment task failed", "task", name, "error", err)
				metrics.Global.IncrementEnrichmentFallback()
			} else {
				logger.Info("enrichment task done", "task", name)
			}
			return nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.LLMMaxWorkers)
	g.Go(run("tech", func(e Enricher) error {
		out, err := e.ProcessTechArticles(gctx, bySection["tech"], c.cfg.TechOutputCount)
		if err != nil {
			return err
		}
		results.Tech = out
		return nil
	}))
	g.Go(run("investment", func(e Enricher) error {
		out, err := e.ProcessInvestmentArticles(gctx, bySection["investment"], c.cfg.InvestmentOutputCount)
		if err != nil {
			return err
		}
		results.Investment = out
		return nil
	}))
	g.Go(run("tips", func(e Enricher) error {
		out, err := e.ProcessTipsArticles(gctx, bySection["tips"], c.cfg.TipsOutputCount)
		if err != nil {
			return err
		}
		results.Tips = out
		return nil
	}))
	g.Go(run("videos", func(e Enricher) error {
		out, err := e.ProcessVideos(gctx, rawVideos, c.cfg.VideoOutputCount)
		if err != nil {
			return err
		}
		results.Videos = out
		return nil
	}))
	g.Wait()

	// Trends read the tech and investment output, so they run after
	// the pool has fully joined.
	enricher, closeEnricher, err := c.newEnricher(ctx)
	if err != nil {
		logger.Error("trend client failed", "error", err)
		return results, rawVideos, nil
	}
	defer closeEnricher()
	trends, err := enricher.GenerateTrends(ctx, results.Tech, results.Investment)
	if err != nil {
		logger.Error("trend generation failed", "error", err)
	} else {
		results.Trends = trends
	}
	return results, rawVideos, nil
}
