// Package fetch contains the source adapters: RSS feeds, the Hacker
// News search API and YouTube. Each adapter normalizes its results
// into model.RawArticle / model.RawVideo and degrades to an empty
// result on failure.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/datacube/aihub/internal/logger"
	"github.com/datacube/aihub/internal/metrics"
	"github.com/datacube/aihub/internal/model"
	"github.com/datacube/aihub/internal/sources"
)

// RSSFetcher pulls every non-enhanced feed in the catalog.
type RSSFetcher struct {
	catalog sources.Catalog
	timeout time.Duration
	workers int
}

func NewRSSFetcher(catalog sources.Catalog, timeout time.Duration, workers int) *RSSFetcher {
	if workers < 1 {
		workers = 1
	}
	return &RSSFetcher{catalog: catalog, timeout: timeout, workers: workers}
}

// Fetch downloads all feeds concurrently and returns their merged
// items, tagged with source name and section hint. Feeds that fail are
// logged and skipped. Items are deduplicated by link, first seen wins.
func (f *RSSFetcher) Fetch(ctx context.Context) []model.RawArticle {
	type feedJob struct {
		section string
		src     sources.Source
	}

	var jobs []feedJob
	for section, feeds := range f.catalog {
		for _, src := range feeds {
			if src.Enhanced {
				// Covered by the search fetcher with full content.
				continue
			}
			jobs = append(jobs, feedJob{section: section, src: src})
		}
	}

	var (
		mu       sync.Mutex
		articles []model.RawArticle
		okCount  int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, job := range jobs {
		g.Go(func() error {
			items, err := f.fetchFeed(ctx, job.src.URL)
			if err != nil {
				logger.Warn("RSS feed failed", "source", job.src.Name, "error", err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			okCount++
			for _, item := range items {
				articles = append(articles, model.RawArticle{
					Title:           item.Title,
					Link:            item.Link,
					Summary:         itemSummary(item),
					Published:       item.Published,
					Source:          job.src.Name,
					OriginalSection: job.section,
					Raw:             map[string]any{"lang": job.src.Lang},
				})
			}
			return nil
		})
	}
	g.Wait()

	articles = dedupByLink(articles)
	metrics.Global.AddArticlesFetched(len(articles))
	logger.Info("RSS fetch done", "feeds_ok", okCount, "feeds_total", len(jobs), "articles", len(articles))
	return articles
}

func (f *RSSFetcher) fetchFeed(ctx context.Context, url string) ([]*gofeed.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}
	return feed.Items, nil
}

func itemSummary(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// dedupByLink keeps the first article per link. Articles without a
// link are always kept.
func dedupByLink(articles []model.RawArticle) []model.RawArticle {
	seen := make(map[string]bool, len(articles))
	out := articles[:0]
	for _, a := range articles {
		if a.Link != "" {
			if seen[a.Link] {
				metrics.Global.AddDuplicatesFiltered(1)
				continue
			}
			seen[a.Link] = true
		}
		out = append(out, a)
	}
	return out
}
