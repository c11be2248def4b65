package fetch

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/datacube/aihub/internal/logger"
	"github.com/datacube/aihub/internal/metrics"
	"github.com/datacube/aihub/internal/model"
)

// defaultYouTubeQueries mirrors the editorial focus of the RSS
// catalog: news, tool tutorials and workplace productivity, plus
// German-language coverage.
var defaultYouTubeQueries = []string{
	"AI news this week",
	"AI business news",
	"ChatGPT tutorial",
	"ChatGPT for business",
	"Claude AI tutorial",
	"Gemini tutorial",
	"Perplexity AI tutorial",
	"NotebookLM tutorial",
	"AI productivity tips",
	"AI tools for work",
	"best AI tools",
	"AI automation workflow",
	"prompt engineering guide",
	"Midjourney tips",
	"AI image generation",
	"AI in finance",
	"AI strategy business",
	"KI News deutsch",
	"ChatGPT Tutorial deutsch",
	"KI Tools deutsch",
}

const (
	minVideoSeconds = 60
	maxVideoSeconds = 3600
	transcriptTopN  = 15
)

// YouTubeConfig tunes the video fetcher.
type YouTubeConfig struct {
	APIKey       string
	MaxResults   int64 // per query
	MinViews     int64
	LookbackDays int
	Queries      []string
	Timeout      time.Duration
}

// YouTubeFetcher searches the Data API v3 for recent AI videos.
type YouTubeFetcher struct {
	cfg YouTubeConfig
	tr  *TranscriptFetcher
}

func NewYouTubeFetcher(cfg YouTubeConfig) *YouTubeFetcher {
	if len(cfg.Queries) == 0 {
		cfg.Queries = defaultYouTubeQueries
	}
	return &YouTubeFetcher{cfg: cfg, tr: NewTranscriptFetcher(cfg.Timeout)}
}

// Fetch runs one search per query, merges unique results, filters by
// view count and duration, and attaches transcripts to the top-ranked
// videos. Without an API key it returns nil.
func (f *YouTubeFetcher) Fetch(ctx context.Context) []model.RawVideo {
	if f.cfg.APIKey == "" {
		logger.Warn("YouTube API key not configured, skipping video fetch")
		return nil
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(f.cfg.APIKey))
	if err != nil {
		logger.Error("YouTube client init failed", "error", err)
		return nil
	}

	publishedAfter := time.Now().UTC().AddDate(0, 0, -f.cfg.LookbackDays).Format(time.RFC3339)
	seen := map[string]bool{}
	var videos []model.RawVideo

	for _, query := range f.cfg.Queries {
		found, err := f.searchQuery(ctx, svc, query, publishedAfter, seen)
		if err != nil {
			logger.Warn("YouTube query failed", "query", query, "error", err)
			continue
		}
		videos = append(videos, found...)
	}

	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].ViewCount > videos[j].ViewCount
	})

	f.attachTranscripts(ctx, videos)

	metrics.Global.AddVideosFetched(len(videos))
	logger.Info("YouTube fetch done", "queries", len(f.cfg.Queries), "videos", len(videos))
	return videos
}

func (f *YouTubeFetcher) searchQuery(ctx context.Context, svc *youtube.Service, query, publishedAfter string, seen map[string]bool) ([]model.RawVideo, error) {
	search, err := svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		Order("viewCount").
		PublishedAfter(publishedAfter).
		MaxResults(f.cfg.MaxResults).
		RelevanceLanguage("en").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var ids []string
	for _, item := range search.Items {
		if item.Id != nil && item.Id.VideoId != "" && !seen[item.Id.VideoId] {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	details, err := svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("video details: %w", err)
	}

	var videos []model.RawVideo
	for _, v := range details.Items {
		if seen[v.Id] || v.Snippet == nil || v.ContentDetails == nil {
			continue
		}

		var viewCount, likeCount int64
		if v.Statistics != nil {
			viewCount = int64(v.Statistics.ViewCount)
			likeCount = int64(v.Statistics.LikeCount)
		}
		if viewCount < f.cfg.MinViews {
			continue
		}

		durationSeconds, durationFormatted := ParseDuration(v.ContentDetails.Duration)
		if durationSeconds < minVideoSeconds || durationSeconds > maxVideoSeconds {
			continue
		}

		seen[v.Id] = true
		thumbnail := ""
		if v.Snippet.Thumbnails != nil && v.Snippet.Thumbnails.High != nil {
			thumbnail = v.Snippet.Thumbnails.High.Url
		}

		videos = append(videos, model.RawVideo{
			VideoID:            v.Id,
			Title:              v.Snippet.Title,
			Description:        truncate(v.Snippet.Description, 500),
			ChannelName:        v.Snippet.ChannelTitle,
			ChannelID:          v.Snippet.ChannelId,
			ThumbnailURL:       thumbnail,
			PublishedAt:        v.Snippet.PublishedAt,
			DurationSeconds:    durationSeconds,
			DurationFormatted:  durationFormatted,
			ViewCount:          viewCount,
			ViewCountFormatted: FormatViewCount(viewCount),
			LikeCount:          likeCount,
			Raw:                map[string]any{"tags": v.Snippet.Tags},
		})
	}
	return videos, nil
}

// attachTranscripts fetches captions for the top videos with per-video
// try/skip semantics.
func (f *YouTubeFetcher) attachTranscripts(ctx context.Context, videos []model.RawVideo) {
	n := len(videos)
	if n > transcriptTopN {
		n = transcriptTopN
	}
	for i := 0; i < n; i++ {
		text, err := f.tr.Fetch(ctx, videos[i].VideoID)
		if err != nil {
			logger.Debug("no transcript", "video", videos[i].VideoID)
			continue
		}
		videos[i].Transcript = text
	}
}

var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration converts an ISO 8601 duration like "PT12M34S" into
// total seconds and a display string like "12:34".
func ParseDuration(duration string) (int, string) {
	m := durationRe.FindStringSubmatch(duration)
	if m == nil {
		return 0, "0:00"
	}
	hours, _ := strconv.Atoi(zeroDefault(m[1]))
	minutes, _ := strconv.Atoi(zeroDefault(m[2]))
	seconds, _ := strconv.Atoi(zeroDefault(m[3]))

	total := hours*3600 + minutes*60 + seconds
	if hours > 0 {
		return total, fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return total, fmt.Sprintf("%d:%02d", minutes, seconds)
}

func zeroDefault(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// FormatViewCount renders a view count for display ("1.2M", "500.0K").
func FormatViewCount(count int64) string {
	switch {
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(count)/1_000_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fK", float64(count)/1_000)
	default:
		return strconv.FormatInt(count, 10)
	}
}
