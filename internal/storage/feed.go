package storage

import (
	"github.com/datacube/aihub/internal/model"
)

// Video cards land at 1-indexed slots 3, 8, 13, ... of the tech feed.
const (
	videoInterval = 5
	videoStart    = 3
)

// IntersperseVideos merges video cards into the regular post sequence
// at fixed slots. Once either list runs out the other is drained in
// order. The index of the merged sequence becomes the display order.
func IntersperseVideos(posts, videos []model.TechPost) []model.TechPost {
	result := make([]model.TechPost, 0, len(posts)+len(videos))
	videoIdx, postIdx := 0, 0

	for i := 0; i < len(posts)+len(videos); i++ {
		videoSlot := i == videoStart-1 || (i > videoStart-1 && (i-videoStart+1)%videoInterval == 0)
		switch {
		case videoIdx < len(videos) && videoSlot:
			result = append(result, videos[videoIdx])
			videoIdx++
		case postIdx < len(posts):
			result = append(result, posts[postIdx])
			postIdx++
		case videoIdx < len(videos):
			result = append(result, videos[videoIdx])
			videoIdx++
		}
	}

	for i := range result {
		result[i].DisplayOrder = i
	}
	return result
}

// videoRow is one video admitted into a period's feed.
type videoRow struct {
	VideoID  string
	DE, EN   model.VideoItem
	Meta     model.RawVideo
	Category string
}

// composeVideoRows pairs the bilingual video output and applies the
// cross-period ownership rule: a video id the owned callback reports
// as taken stays with the period that first claimed it and is skipped
// here. Pairs without an id on either side are dropped silently.
func composeVideoRows(videos model.Bilingual[model.VideoItem], lookup map[string]model.RawVideo, owned func(videoID string) (bool, error)) ([]videoRow, int, error) {
	var rows []videoRow
	skipped := 0
	for i := 0; i < pairCount(videos); i++ {
		de, en := videos.DE[i], videos.EN[i]
		vid := de.VideoID
		if vid == "" {
			vid = en.VideoID
			de.VideoID = vid
		}
		if vid == "" {
			continue
		}

		taken, err := owned(vid)
		if err != nil {
			return nil, 0, err
		}
		if taken {
			skipped++
			continue
		}

		category := de.Category
		if category == "" {
			category = en.Category
		}
		rows = append(rows, videoRow{VideoID: vid, DE: de, EN: en, Meta: lookup[vid], Category: category})
	}
	return rows, skipped, nil
}

// buildTechPost pairs the German and English variants of one enriched
// post into a feed row.
func buildTechPost(periodID string, de, en model.TechItem) model.TechPost {
	author := de.Author
	if author.Name == "" {
		author = model.Author{Name: "Unknown", Handle: "@unknown", Avatar: "??"}
	}
	iconType := de.IconType
	if iconType == "" {
		iconType = "Brain"
	}
	impact := de.Impact
	if impact == "" {
		impact = "medium"
	}
	return model.TechPost{
		PeriodID:   periodID,
		ContentDE:  de.Content,
		ContentEN:  en.Content,
		CategoryDE: de.Category,
		CategoryEN: en.Category,
		Author:     author,
		TagsDE:     de.Tags,
		TagsEN:     en.Tags,
		IconType:   iconType,
		Impact:     impact,
		Timestamp:  de.Timestamp,
		Source:     de.Source,
		SourceURL:  de.SourceURL,
		Metrics:    de.Metrics,
	}
}

// buildVideoPost turns an enriched video summary plus its raw metadata
// into a video card for the tech feed.
func buildVideoPost(periodID string, de, en model.VideoItem, meta model.RawVideo) model.TechPost {
	channel := meta.ChannelName
	if channel == "" {
		channel = "YouTube"
	}
	categoryDE := de.Category
	if categoryDE == "" {
		categoryDE = "Video"
	}
	categoryEN := en.Category
	if categoryEN == "" {
		categoryEN = "Video"
	}
	timestamp := meta.PublishedAt
	if len(timestamp) > 10 {
		timestamp = timestamp[:10]
	}
	views := meta.ViewCountFormatted
	if views == "" {
		views = "0"
	}
	return model.TechPost{
		PeriodID:   periodID,
		ContentDE:  de.Summary,
		ContentEN:  en.Summary,
		CategoryDE: categoryDE,
		CategoryEN: categoryEN,
		Author:     model.Author{Name: channel, Handle: "@youtube", Avatar: "YT", Verified: true},
		TagsDE:     []string{"Video", "YouTube"},
		TagsEN:     []string{"Video", "YouTube"},
		IconType:   "Zap",
		Impact:     "medium",
		Timestamp:  timestamp,
		Source:     channel,
		SourceURL:  "https://www.youtube.com/watch?v=" + de.VideoID,
		Metrics: model.PostMetrics{
			Likes: int(meta.LikeCount),
			Views: views,
		},
		IsVideo:           true,
		VideoID:           de.VideoID,
		VideoDuration:     meta.DurationFormatted,
		VideoViews:        meta.ViewCountFormatted,
		VideoThumbnailURL: meta.ThumbnailURL,
	}
}

// pairCount returns the number of usable de/en pairs; the shorter
// language list bounds it.
func pairCount[T any](b model.Bilingual[T]) int {
	if len(b.DE) < len(b.EN) {
		return len(b.DE)
	}
	return len(b.EN)
}
