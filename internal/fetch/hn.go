package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/datacube/aihub/internal/logger"
	"github.com/datacube/aihub/internal/metrics"
	"github.com/datacube/aihub/internal/model"
	"github.com/datacube/aihub/internal/retry"
	"github.com/datacube/aihub/internal/scraper"
)

// defaultHNQueries targets business-oriented AI coverage.
var defaultHNQueries = []string{
	"AI",
	"LLM",
	"generative AI",
	"ChatGPT",
	"Claude",
	"Gemini",
	"OpenAI",
	"Anthropic",
	"Perplexity",
	"DeepSeek",
	"Grok",
	"Sora",
	"Midjourney",
	"Stable Diffusion",
	"AI startup",
	"AI funding",
	"AI acquisition",
	"AI enterprise",
}

const maxComments = 3

// HNConfig tunes the Hacker News search fetcher.
type HNConfig struct {
	BaseURL        string // Algolia API base, overridable for tests
	MinPoints      int
	Limit          int
	LookbackDays   int
	Workers        int // concurrent keyword searches
	EnhanceWorkers int // concurrent enhancement fetches
	MaxEnhance     int // top stories that get content + comments
	Timeout        time.Duration
	Queries        []string
}

// HNFetcher queries the Algolia Hacker News API once per keyword and
// merges the results.
type HNFetcher struct {
	cfg     HNConfig
	client  *http.Client
	scraper *scraper.Scraper
	tr      *TranscriptFetcher
}

func NewHNFetcher(cfg HNConfig) *HNFetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://hn.algolia.com/api/v1"
	}
	if len(cfg.Queries) == 0 {
		cfg.Queries = defaultHNQueries
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.EnhanceWorkers < 1 {
		cfg.EnhanceWorkers = cfg.Workers
	}
	return &HNFetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		scraper: scraper.New(cfg.Timeout),
		tr:      NewTranscriptFetcher(cfg.Timeout),
	}
}

type hnStory struct {
	ID          string
	Title       string
	Link        string
	HNURL       string
	Points      int
	NumComments int
	Published   string
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"`
}

type algoliaResponse struct {
	Hits []algoliaHit `json:"hits"`
}

// Fetch runs all configured queries concurrently, deduplicates by
// story id, sorts by points descending and enhances the top stories
// with article content and discussion replies.
func (f *HNFetcher) Fetch(ctx context.Context) []model.RawArticle {
	var (
		mu      sync.Mutex
		stories []hnStory
		seen    = map[string]bool{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Workers)
	for _, query := range f.cfg.Queries {
		g.Go(func() error {
			var hits []hnStory
			err := retry.Do(gctx, retry.Config{MaxAttempts: 2, Delay: time.Second}, func() error {
				var searchErr error
				hits, searchErr = f.search(gctx, query)
				return searchErr
			})
			if err != nil {
				logger.Warn("HN query failed", "query", query, "error", err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, s := range hits {
				if seen[s.ID] {
					continue
				}
				seen[s.ID] = true
				stories = append(stories, s)
			}
			return nil
		})
	}
	g.Wait()

	sort.SliceStable(stories, func(i, j int) bool {
		return stories[i].Points > stories[j].Points
	})
	if len(stories) > f.cfg.Limit {
		stories = stories[:f.cfg.Limit]
	}
	logger.Info("HN search done", "queries", len(f.cfg.Queries), "stories", len(stories))

	articles := f.enhance(ctx, stories)
	metrics.Global.AddArticlesFetched(len(articles))
	return articles
}

func (f *HNFetcher) search(ctx context.Context, query string) ([]hnStory, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("numericFilters", fmt.Sprintf("points>%d", f.cfg.MinPoints))
	params.Set("hitsPerPage", fmt.Sprintf("%d", f.cfg.Limit*2))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		f.cfg.BaseURL+"/search_by_date?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var data algoliaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -f.cfg.LookbackDays)
	var stories []hnStory
	for _, hit := range data.Hits {
		if hit.CreatedAtI > 0 && time.Unix(hit.CreatedAtI, 0).Before(cutoff) {
			continue
		}
		stories = append(stories, hnStory{
			ID:          hit.ObjectID,
			Title:       hit.Title,
			Link:        hit.URL,
			HNURL:       fmt.Sprintf("https://news.ycombinator.com/item?id=%s", hit.ObjectID),
			Points:      hit.Points,
			NumComments: hit.NumComments,
			Published:   time.Unix(hit.CreatedAtI, 0).UTC().Format(time.RFC3339),
		})
		if len(stories) >= f.cfg.Limit {
			break
		}
	}
	return stories, nil
}

// enhance attaches article content and top discussion replies to the
// top stories. Failures degrade to a title-only summary.
func (f *HNFetcher) enhance(ctx context.Context, stories []hnStory) []model.RawArticle {
	n := len(stories)
	if f.cfg.MaxEnhance > 0 && n > f.cfg.MaxEnhance {
		n = f.cfg.MaxEnhance
	}

	articles := make([]model.RawArticle, len(stories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.EnhanceWorkers)
	for i, story := range stories {
		g.Go(func() error {
			articles[i] = f.enhanceStory(gctx, story, i < n)
			return nil
		})
	}
	g.Wait()
	return articles
}

func (f *HNFetcher) enhanceStory(ctx context.Context, story hnStory, full bool) model.RawArticle {
	article := model.RawArticle{
		Title:           story.Title,
		Link:            story.Link,
		Summary:         story.Title,
		Published:       story.Published,
		Source:          "Hacker News",
		OriginalSection: "tech",
		Raw: map[string]any{
			"hn_id":        story.ID,
			"hn_url":       story.HNURL,
			"points":       story.Points,
			"num_comments": story.NumComments,
		},
	}
	if article.Link == "" {
		// Ask HN and similar text posts live on the discussion page.
		article.Link = story.HNURL
	}
	if !full {
		return article
	}

	contentType := DetectContentType(story.Link)
	article.Raw["content_type"] = contentType

	var content string
	switch contentType {
	case "youtube":
		if id, ok := ExtractVideoID(story.Link); ok {
			if text, err := f.tr.Fetch(ctx, id); err == nil {
				content = text
			}
		}
	case "webpage":
		if extracted, err := f.scraper.Extract(ctx, story.Link); err == nil {
			content = extracted.Content
		} else {
			logger.Debug("HN content extraction failed", "url", story.Link, "error", err)
		}
	}

	comments := f.fetchComments(ctx, story.ID)

	var parts []string
	if content != "" {
		parts = append(parts, "[Article Content]\n"+content)
	}
	if len(comments) > 0 {
		parts = append(parts, "[HN Discussion Highlights]\n"+strings.Join(comments, "\n---\n"))
	}
	if len(parts) > 0 {
		article.Summary = strings.Join(parts, "\n\n")
	}
	article.Raw["has_full_content"] = content != ""
	return article
}

// DetectContentType classifies an outbound link so enhancement knows
// whether to scrape, pull a transcript, or skip.
func DetectContentType(rawURL string) string {
	if rawURL == "" {
		return "empty"
	}
	lower := strings.ToLower(rawURL)

	switch {
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"):
		return "youtube"
	case strings.HasSuffix(lower, ".pdf"):
		return "pdf"
	case strings.Contains(lower, "spotify.com/episode"),
		strings.Contains(lower, "podcasts.apple.com"),
		strings.Contains(lower, "anchor.fm"):
		return "podcast"
	case strings.Contains(lower, "twitter.com"), strings.Contains(lower, "x.com"):
		return "twitter"
	}
	return "webpage"
}

type hnItem struct {
	Children []struct {
		Text string `json:"text"`
	} `json:"children"`
}

// fetchComments returns up to maxComments substantial top-level
// replies, HTML stripped and capped at 500 characters each.
func (f *HNFetcher) fetchComments(ctx context.Context, storyID string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		f.cfg.BaseURL+"/items/"+storyID, nil)
	if err != nil {
		return nil
	}

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Debug("HN comments fetch failed", "story", storyID, "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var item hnItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil
	}

	var comments []string
	for _, child := range item.Children {
		if len(comments) >= maxComments {
			break
		}
		if len(child.Text) <= 50 {
			continue
		}
		comments = append(comments, truncate(stripHTML(child.Text), 500))
	}
	return comments
}

func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
