// Package model holds the shared data types that flow through the
// collection pipeline: periods, raw fetched content and the enriched
// feed items produced by the LLM stages.
package model

import "time"

// Period types.
const (
	PeriodWeek = "week"
	PeriodDay  = "day"
)

// Period is a week ("2026-kw07") or day ("2026-02-07") of content.
// It is the unit of collection and persistence.
type Period struct {
	ID        string
	Label     string // "KW 07" or "07.02."
	Year      int
	WeekNum   int // 0 for day periods
	DateRange string
	IsCurrent bool
	Type      string // PeriodWeek or PeriodDay
	SortDate  time.Time
	ParentID  string // parent week for day periods, "" otherwise
}

// RawArticle is a fetched article before LLM processing. Link is the
// dedup key across sources. Section stays empty until classification.
type RawArticle struct {
	ID              int64
	PeriodID        string
	Source          string
	Title           string
	Link            string
	Summary         string
	Published       string // free-text date as delivered by the source
	OriginalSection string // heuristic hint from source config
	Section         string // classifier output
	Relevance       float64
	Raw             map[string]any // source-specific extras (points, comment counts, ...)
	CreatedAt       time.Time
}

// RawVideo is a fetched video before LLM processing. VideoID is only
// globally unique at persistence time, not at this stage.
type RawVideo struct {
	ID                 int64
	PeriodID           string
	VideoID            string
	Title              string
	ChannelName        string
	ChannelID          string
	Description        string
	Transcript         string
	ThumbnailURL       string
	PublishedAt        string
	DurationSeconds    int
	DurationFormatted  string
	ViewCount          int64
	ViewCountFormatted string
	LikeCount          int64
	Raw                map[string]any
	CreatedAt          time.Time
}
