package collector

import (
	"time"

	"github.com/datacube/aihub/internal/fetch"
	"github.com/datacube/aihub/internal/metrics"
	"github.com/datacube/aihub/internal/model"
)

// FilterByPeriod keeps articles published within [start, end). An
// article whose date cannot be parsed is always kept: for sparse feeds
// a false positive costs less than losing a real story. The filter is
// idempotent.
func FilterByPeriod(articles []model.RawArticle, start, end time.Time) []model.RawArticle {
	kept := make([]model.RawArticle, 0, len(articles))
	dropped := 0
	for _, a := range articles {
		published, ok := fetch.ParsePublished(a.Published)
		if ok && (published.Before(start) || !published.Before(end)) {
			dropped++
			continue
		}
		kept = append(kept, a)
	}
	metrics.Global.AddArticlesFiltered(dropped)
	return kept
}

// DedupArticles drops repeated links across sources, first seen wins.
// Articles without a link always survive.
func DedupArticles(articles []model.RawArticle) []model.RawArticle {
	seen := make(map[string]bool, len(articles))
	kept := make([]model.RawArticle, 0, len(articles))
	for _, a := range articles {
		if a.Link != "" {
			if seen[a.Link] {
				metrics.Global.AddDuplicatesFiltered(1)
				continue
			}
			seen[a.Link] = true
		}
		kept = append(kept, a)
	}
	return kept
}
