package model

import (
	"bytes"
	"encoding/json"
)

// Bilingual is a language-keyed pair of item lists, matching the
// {"de": [...], "en": [...]} shape the enrichment prompts request.
type Bilingual[T any] struct {
	DE []T `json:"de"`
	EN []T `json:"en"`
}

// Empty reports whether both language lists are empty.
func (b Bilingual[T]) Empty() bool {
	return len(b.DE) == 0 && len(b.EN) == 0
}

// Author is the display author attached to a feed post.
type Author struct {
	Name     string `json:"name"`
	Handle   string `json:"handle"`
	Avatar   string `json:"avatar"`
	Verified bool   `json:"verified"`
}

// PostMetrics carries engagement numbers. Views stays a string because
// sources hand it over pre-formatted ("1.2M").
type PostMetrics struct {
	Comments int    `json:"comments"`
	Retweets int    `json:"retweets"`
	Likes    int    `json:"likes"`
	Views    string `json:"views"`
}

// UnmarshalJSON tolerates models emitting views as a bare number.
func (m *PostMetrics) UnmarshalJSON(data []byte) error {
	type alias struct {
		Comments int             `json:"comments"`
		Retweets int             `json:"retweets"`
		Likes    int             `json:"likes"`
		Views    json.RawMessage `json:"views"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.Comments = a.Comments
	m.Retweets = a.Retweets
	m.Likes = a.Likes
	m.Views = ""
	if len(a.Views) > 0 {
		trimmed := bytes.TrimSpace(a.Views)
		if len(trimmed) > 0 && trimmed[0] == '"' {
			var s string
			if err := json.Unmarshal(trimmed, &s); err == nil {
				m.Views = s
			}
		} else {
			m.Views = string(trimmed)
		}
	}
	return nil
}

// TechItem is one enriched tech-news post.
type TechItem struct {
	ID        int         `json:"id"`
	Author    Author      `json:"author"`
	Content   string      `json:"content"`
	Tags      []string    `json:"tags"`
	Category  string      `json:"category"`
	IconType  string      `json:"iconType"`
	Impact    string      `json:"impact"`
	Timestamp string      `json:"timestamp"`
	Metrics   PostMetrics `json:"metrics"`
	Source    string      `json:"source"`
	SourceURL string      `json:"sourceUrl"`
}

// VideoItem is one enriched video summary.
type VideoItem struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// FundingItem is one primary-market (funding round) post.
type FundingItem struct {
	ID            int         `json:"id"`
	Company       string      `json:"company"`
	Amount        string      `json:"amount"`
	Round         string      `json:"round"`
	RoundCategory string      `json:"roundCategory"`
	Investors     []string    `json:"investors"`
	Valuation     string      `json:"valuation"`
	Content       string      `json:"content"`
	Author        Author      `json:"author"`
	Timestamp     string      `json:"timestamp"`
	SourceURL     string      `json:"sourceUrl"`
	Metrics       PostMetrics `json:"metrics"`
}

// SecondaryItem is one secondary-market (public company) post. Price,
// change and market cap come from a real-time quote API at serving
// time, so only ticker and content are persisted from enrichment.
type SecondaryItem struct {
	ID        int         `json:"id"`
	Ticker    string      `json:"ticker"`
	Price     string      `json:"price"`
	Change    string      `json:"change"`
	Direction string      `json:"direction"`
	MarketCap string      `json:"marketCap"`
	Content   string      `json:"content"`
	Author    Author      `json:"author"`
	Timestamp string      `json:"timestamp"`
	SourceURL string      `json:"sourceUrl"`
	Metrics   PostMetrics `json:"metrics"`
}

// MAItem is one mergers-and-acquisitions post.
type MAItem struct {
	ID        int         `json:"id"`
	Acquirer  string      `json:"acquirer"`
	Target    string      `json:"target"`
	DealValue string      `json:"dealValue"`
	DealType  string      `json:"dealType"`
	Industry  string      `json:"industry"`
	Content   string      `json:"content"`
	Author    Author      `json:"author"`
	Timestamp string      `json:"timestamp"`
	SourceURL string      `json:"sourceUrl"`
	Metrics   PostMetrics `json:"metrics"`
}

// TipItem is one practical AI tip.
type TipItem struct {
	ID         int         `json:"id"`
	Content    string      `json:"content"`
	Tip        string      `json:"tip"`
	Category   string      `json:"category"`
	Platform   string      `json:"platform"`
	Difficulty string      `json:"difficulty"`
	Author     Author      `json:"author"`
	Timestamp  string      `json:"timestamp"`
	SourceURL  string      `json:"sourceUrl"`
	Metrics    PostMetrics `json:"metrics"`
}

// TrendTopic is a derived trending topic, never fetched directly.
type TrendTopic struct {
	Category string `json:"category"`
	Title    string `json:"title"`
}

// InvestmentResult is the three-way split the investment enrichment
// task produces.
type InvestmentResult struct {
	PrimaryMarket   Bilingual[FundingItem]   `json:"primaryMarket"`
	SecondaryMarket Bilingual[SecondaryItem] `json:"secondaryMarket"`
	MA              Bilingual[MAItem]        `json:"ma"`
}

// TrendsResult wraps the trend generator output.
type TrendsResult struct {
	Trends Bilingual[TrendTopic] `json:"trends"`
}

// ProcessedResults collects the output of all enrichment tasks for one
// period. Each field is independently replaceable by its typed-empty
// fallback when the producing task fails.
type ProcessedResults struct {
	Tech       Bilingual[TechItem]
	Investment InvestmentResult
	Tips       Bilingual[TipItem]
	Videos     Bilingual[VideoItem]
	Trends     TrendsResult
}

// TechPost is the durable tech-feed row: either a regular enriched
// post or a video card merged into the feed by the composer.
type TechPost struct {
	PeriodID          string
	ContentDE         string
	ContentEN         string
	CategoryDE        string
	CategoryEN        string
	Author            Author
	TagsDE            []string
	TagsEN            []string
	IconType          string
	Impact            string
	Timestamp         string
	Source            string
	SourceURL         string
	Metrics           PostMetrics
	IsVideo           bool
	VideoID           string
	VideoDuration     string
	VideoViews        string
	VideoThumbnailURL string
	DisplayOrder      int
}
