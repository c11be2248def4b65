// Package storage persists periods, raw fetched content and the
// processed feed rows in PostgreSQL. The writer replaces a period's
// feed rows transactionally: either the whole period is swapped or
// nothing changes.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/datacube/aihub/internal/logger"
	"github.com/datacube/aihub/internal/metrics"
	"github.com/datacube/aihub/internal/model"
	"github.com/datacube/aihub/internal/period"
)

// feedTables are the per-period feed row tables, cleared together
// before each re-collection.
var feedTables = []string{
	"tech_posts",
	"videos",
	"primary_market_posts",
	"secondary_market_posts",
	"ma_posts",
	"tip_posts",
	"trends",
}

// Store is the PostgreSQL-backed persistence layer.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// New connects, pings and initializes the schema.
func New(connectionString string) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info("database connected, schema ready")
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsurePeriod creates the period row if missing and marks it as the
// current one. For day periods the parent week row is created first so
// the foreign key holds.
func (s *Store) EnsurePeriod(ctx context.Context, p model.Period) error {
	if p.ParentID != "" {
		parent, err := period.Describe(p.ParentID)
		if err != nil {
			return fmt.Errorf("describe parent period: %w", err)
		}
		if err := s.ensurePeriodRow(ctx, parent, false); err != nil {
			return err
		}
	}
	return s.ensurePeriodRow(ctx, p, true)
}

func (s *Store) ensurePeriodRow(ctx context.Context, p model.Period, current bool) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM periods WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check period: %w", err)
	}
	if exists {
		if !current {
			return nil
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE periods SET is_current = (id = $1)`, p.ID); err != nil {
			return fmt.Errorf("mark current period: %w", err)
		}
		return nil
	}

	if current {
		if _, err := s.db.ExecContext(ctx, `UPDATE periods SET is_current = FALSE`); err != nil {
			return fmt.Errorf("reset current period: %w", err)
		}
	}

	_, err := s.sb.Insert("periods").
		Columns("id", "label", "year", "week_num", "date_range", "is_current", "period_type", "sort_date", "parent_period_id").
		Values(p.ID, p.Label, p.Year, nullIfZero(p.WeekNum), p.DateRange, current, p.Type, p.SortDate, nullIfEmpty(p.ParentID)).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert period %s: %w", p.ID, err)
	}
	logger.Info("created period", "period", p.ID, "type", p.Type)
	return nil
}

// ClearRawData drops the staged raw rows for a period before a fresh
// fetch.
func (s *Store) ClearRawData(ctx context.Context, periodID string) error {
	for _, table := range []string{"raw_articles", "raw_videos"} {
		if _, err := s.sb.Delete(table).Where(sq.Eq{"period_id": periodID}).
			RunWith(s.db).ExecContext(ctx); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SaveRawArticles stages fetched articles for later processing.
func (s *Store) SaveRawArticles(ctx context.Context, periodID string, articles []model.RawArticle) error {
	if len(articles) == 0 {
		return nil
	}
	insert := s.sb.Insert("raw_articles").
		Columns("period_id", "source", "title", "link", "summary", "published", "original_section", "section", "relevance", "raw_data")
	for _, a := range articles {
		insert = insert.Values(periodID, a.Source, a.Title, a.Link, a.Summary, a.Published,
			a.OriginalSection, nullIfEmpty(a.Section), nullFloat(a.Relevance), jsonb(a.Raw))
	}
	if _, err := insert.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("insert raw articles: %w", err)
	}
	return nil
}

// SaveRawVideos stages fetched videos for later processing.
func (s *Store) SaveRawVideos(ctx context.Context, periodID string, videos []model.RawVideo) error {
	if len(videos) == 0 {
		return nil
	}
	insert := s.sb.Insert("raw_videos").
		Columns("period_id", "video_id", "title", "channel_name", "channel_id", "description",
			"transcript", "thumbnail_url", "published_at", "duration_seconds", "duration_formatted",
			"view_count", "like_count", "raw_data")
	for _, v := range videos {
		// Formatted counts ride along in raw_data so a later process
		// run can rebuild the display strings without refetching.
		raw := map[string]any{"view_count_formatted": v.ViewCountFormatted}
		for k, val := range v.Raw {
			raw[k] = val
		}
		insert = insert.Values(periodID, v.VideoID, v.Title, v.ChannelName, nullIfEmpty(v.ChannelID),
			v.Description, nullIfEmpty(v.Transcript), v.ThumbnailURL, v.PublishedAt,
			v.DurationSeconds, v.DurationFormatted, v.ViewCount, v.LikeCount, jsonb(raw))
	}
	if _, err := insert.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("insert raw videos: %w", err)
	}
	return nil
}

// LoadRawArticles returns the staged articles for a period.
func (s *Store) LoadRawArticles(ctx context.Context, periodID string) ([]model.RawArticle, error) {
	rows, err := s.sb.Select("id", "source", "title", "link", "summary", "published",
		"original_section", "COALESCE(section, '')", "COALESCE(relevance, 0)", "raw_data").
		From("raw_articles").
		Where(sq.Eq{"period_id": periodID}).
		OrderBy("id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("load raw articles: %w", err)
	}
	defer rows.Close()

	var articles []model.RawArticle
	for rows.Next() {
		a := model.RawArticle{PeriodID: periodID}
		var rawData []byte
		if err := rows.Scan(&a.ID, &a.Source, &a.Title, &a.Link, &a.Summary, &a.Published,
			&a.OriginalSection, &a.Section, &a.Relevance, &rawData); err != nil {
			return nil, fmt.Errorf("scan raw article: %w", err)
		}
		if len(rawData) > 0 {
			_ = json.Unmarshal(rawData, &a.Raw)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// LoadRawVideos returns the staged videos for a period.
func (s *Store) LoadRawVideos(ctx context.Context, periodID string) ([]model.RawVideo, error) {
	rows, err := s.sb.Select("id", "video_id", "title", "channel_name", "COALESCE(channel_id, '')",
		"COALESCE(description, '')", "COALESCE(transcript, '')", "COALESCE(thumbnail_url, '')",
		"COALESCE(published_at, '')", "COALESCE(duration_seconds, 0)", "COALESCE(duration_formatted, '')",
		"COALESCE(view_count, 0)", "COALESCE(like_count, 0)", "raw_data").
		From("raw_videos").
		Where(sq.Eq{"period_id": periodID}).
		OrderBy("view_count DESC").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("load raw videos: %w", err)
	}
	defer rows.Close()

	var videos []model.RawVideo
	for rows.Next() {
		v := model.RawVideo{PeriodID: periodID}
		var rawData []byte
		if err := rows.Scan(&v.ID, &v.VideoID, &v.Title, &v.ChannelName, &v.ChannelID,
			&v.Description, &v.Transcript, &v.ThumbnailURL, &v.PublishedAt,
			&v.DurationSeconds, &v.DurationFormatted, &v.ViewCount, &v.LikeCount, &rawData); err != nil {
			return nil, fmt.Errorf("scan raw video: %w", err)
		}
		if len(rawData) > 0 {
			_ = json.Unmarshal(rawData, &v.Raw)
		}
		if v.ViewCountFormatted == "" && v.Raw != nil {
			if s, ok := v.Raw["view_count_formatted"].(string); ok {
				v.ViewCountFormatted = s
			}
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// UpdateClassification writes the classifier's section and relevance
// back to the staged rows.
func (s *Store) UpdateClassification(ctx context.Context, articles []model.RawArticle) error {
	for _, a := range articles {
		if a.ID == 0 {
			continue
		}
		if _, err := s.sb.Update("raw_articles").
			Set("section", a.Section).
			Set("relevance", a.Relevance).
			Where(sq.Eq{"id": a.ID}).
			RunWith(s.db).ExecContext(ctx); err != nil {
			return fmt.Errorf("update classification for article %d: %w", a.ID, err)
		}
	}
	return nil
}

// ReplacePeriodFeeds swaps the period's feed rows for the processed
// results in one transaction. Videos already owned by another period
// are skipped, counted, and excluded from the composed tech feed.
func (s *Store) ReplacePeriodFeeds(ctx context.Context, periodID string, results model.ProcessedResults, rawVideos []model.RawVideo) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range feedTables {
		if _, err := s.sb.Delete(table).Where(sq.Eq{"period_id": periodID}).
			RunWith(tx).ExecContext(ctx); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	videoLookup := make(map[string]model.RawVideo, len(rawVideos))
	for _, v := range rawVideos {
		videoLookup[v.VideoID] = v
	}

	inserted := 0

	// Videos first: skips here decide which cards enter the feed.
	rows, skippedVideos, err := composeVideoRows(results.Videos, videoLookup, func(vid string) (bool, error) {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM videos WHERE video_id = $1)`, vid).Scan(&exists); err != nil {
			return false, fmt.Errorf("check video %s: %w", vid, err)
		}
		return exists, nil
	})
	if err != nil {
		return 0, err
	}

	var videoPosts []model.TechPost
	for _, row := range rows {
		meta := row.Meta
		if _, err := s.sb.Insert("videos").
			Columns("period_id", "video_id", "title_de", "title_en", "summary_de", "summary_en",
				"original_title", "channel_name", "channel_id", "thumbnail_url", "published_at",
				"duration_seconds", "duration_formatted", "view_count", "like_count", "transcript", "category").
			Values(periodID, row.VideoID, row.DE.Title, row.EN.Title, row.DE.Summary, row.EN.Summary,
				meta.Title, meta.ChannelName, nullIfEmpty(meta.ChannelID), meta.ThumbnailURL, meta.PublishedAt,
				meta.DurationSeconds, meta.DurationFormatted, meta.ViewCount, meta.LikeCount,
				nullIfEmpty(meta.Transcript), nullIfEmpty(row.Category)).
			RunWith(tx).ExecContext(ctx); err != nil {
			return 0, fmt.Errorf("insert video %s: %w", row.VideoID, err)
		}
		inserted++
		videoPosts = append(videoPosts, buildVideoPost(periodID, row.DE, row.EN, meta))
	}
	if skippedVideos > 0 {
		logger.Info("skipped videos already owned by other periods", "count", skippedVideos)
	}
	metrics.Global.AddVideosSkipped(skippedVideos)

	var regularPosts []model.TechPost
	for i := 0; i < pairCount(results.Tech); i++ {
		regularPosts = append(regularPosts, buildTechPost(periodID, results.Tech.DE[i], results.Tech.EN[i]))
	}

	for _, post := range IntersperseVideos(regularPosts, videoPosts) {
		if err := insertTechPost(ctx, s.sb, tx, post); err != nil {
			return 0, err
		}
		inserted++
	}

	n, err := s.insertInvestment(ctx, tx, periodID, results.Investment)
	if err != nil {
		return 0, err
	}
	inserted += n

	for i := 0; i < pairCount(results.Tips); i++ {
		de, en := results.Tips.DE[i], results.Tips.EN[i]
		if _, err := s.sb.Insert("tip_posts").
			Columns("period_id", "content_de", "content_en", "tip_de", "tip_en",
				"category_de", "category_en", "platform", "difficulty_de", "difficulty_en",
				"author", "timestamp", "source_url", "metrics").
			Values(periodID, de.Content, en.Content, de.Tip, en.Tip,
				de.Category, en.Category, defaultStr(de.Platform, "X"), de.Difficulty, en.Difficulty,
				jsonb(de.Author), de.Timestamp, nullIfEmpty(de.SourceURL), jsonb(de.Metrics)).
			RunWith(tx).ExecContext(ctx); err != nil {
			return 0, fmt.Errorf("insert tip post: %w", err)
		}
		inserted++
	}

	for i := 0; i < pairCount(results.Trends.Trends); i++ {
		de, en := results.Trends.Trends.DE[i], results.Trends.Trends.EN[i]
		if _, err := s.sb.Insert("trends").
			Columns("period_id", "category_de", "category_en", "title_de", "title_en").
			Values(periodID, de.Category, en.Category, de.Title, en.Title).
			RunWith(tx).ExecContext(ctx); err != nil {
			return 0, fmt.Errorf("insert trend: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit period %s: %w", periodID, err)
	}

	metrics.Global.AddRowsWritten(inserted)
	logger.Info("period feeds replaced", "period", periodID, "rows", inserted, "videos_skipped", skippedVideos)
	return inserted, nil
}

func insertTechPost(ctx context.Context, sb sq.StatementBuilderType, tx *sql.Tx, post model.TechPost) error {
	_, err := sb.Insert("tech_posts").
		Columns("period_id", "content_de", "content_en", "category_de", "category_en",
			"author", "tags_de", "tags_en", "icon_type", "impact", "timestamp", "source",
			"source_url", "metrics", "is_video", "video_id", "video_duration",
			"video_view_count", "video_thumbnail_url", "display_order").
		Values(post.PeriodID, post.ContentDE, post.ContentEN, post.CategoryDE, post.CategoryEN,
			jsonb(post.Author), pq.Array(post.TagsDE), pq.Array(post.TagsEN),
			post.IconType, post.Impact, post.Timestamp, post.Source,
			nullIfEmpty(post.SourceURL), jsonb(post.Metrics), post.IsVideo,
			nullIfEmpty(post.VideoID), nullIfEmpty(post.VideoDuration),
			nullIfEmpty(post.VideoViews), nullIfEmpty(post.VideoThumbnailURL), post.DisplayOrder).
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert tech post: %w", err)
	}
	return nil
}

func (s *Store) insertInvestment(ctx context.Context, tx *sql.Tx, periodID string, inv model.InvestmentResult) (int, error) {
	inserted := 0

	for i := 0; i < pairCount(inv.PrimaryMarket); i++ {
		de, en := inv.PrimaryMarket.DE[i], inv.PrimaryMarket.EN[i]
		roundCategory := de.RoundCategory
		if roundCategory == "" {
			roundCategory = en.RoundCategory
		}
		if _, err := s.sb.Insert("primary_market_posts").
			Columns("period_id", "content_de", "content_en", "company", "amount_de", "amount_en",
				"round", "round_category", "investors", "valuation_de", "valuation_en",
				"author", "timestamp", "source_url", "metrics").
			Values(periodID, de.Content, en.Content, de.Company,
				defaultStr(de.Amount, "N/A"), defaultStr(en.Amount, "N/A"),
				de.Round, nullIfEmpty(roundCategory), pq.Array(de.Investors),
				nullIfEmpty(de.Valuation), nullIfEmpty(en.Valuation),
				jsonb(de.Author), de.Timestamp, nullIfEmpty(de.SourceURL), jsonb(de.Metrics)).
			RunWith(tx).ExecContext(ctx); err != nil {
			return 0, fmt.Errorf("insert primary market post: %w", err)
		}
		inserted++
	}

	// Price, change and market cap are served from a real-time quote
	// API; only ticker and content survive enrichment.
	for i := 0; i < pairCount(inv.SecondaryMarket); i++ {
		de, en := inv.SecondaryMarket.DE[i], inv.SecondaryMarket.EN[i]
		if _, err := s.sb.Insert("secondary_market_posts").
			Columns("period_id", "content_de", "content_en", "ticker", "price", "change",
				"direction", "market_cap_de", "market_cap_en", "author", "timestamp", "source_url", "metrics").
			Values(periodID, de.Content, en.Content, de.Ticker, "", "",
				"up", nil, nil, jsonb(de.Author), de.Timestamp, nullIfEmpty(de.SourceURL), jsonb(de.Metrics)).
			RunWith(tx).ExecContext(ctx); err != nil {
			return 0, fmt.Errorf("insert secondary market post: %w", err)
		}
		inserted++
	}

	for i := 0; i < pairCount(inv.MA); i++ {
		de, en := inv.MA.DE[i], inv.MA.EN[i]
		industry := de.Industry
		if industry == "" {
			industry = en.Industry
		}
		if _, err := s.sb.Insert("ma_posts").
			Columns("period_id", "content_de", "content_en", "acquirer", "target",
				"deal_value_de", "deal_value_en", "deal_type_de", "deal_type_en", "industry",
				"author", "timestamp", "source_url", "metrics").
			Values(periodID, de.Content, en.Content, de.Acquirer, de.Target,
				nullIfEmpty(de.DealValue), nullIfEmpty(en.DealValue), de.DealType, en.DealType,
				nullIfEmpty(industry), jsonb(de.Author), de.Timestamp,
				nullIfEmpty(de.SourceURL), jsonb(de.Metrics)).
			RunWith(tx).ExecContext(ctx); err != nil {
			return 0, fmt.Errorf("insert M&A post: %w", err)
		}
		inserted++
	}

	return inserted, nil
}

// CountPeriodRows returns the total feed row count for a period,
// exposed for monitoring.
func (s *Store) CountPeriodRows(ctx context.Context, periodID string) (int, error) {
	total := 0
	for _, table := range feedTables {
		var n int
		if err := s.sb.Select("COUNT(*)").From(table).Where(sq.Eq{"period_id": periodID}).
			RunWith(s.db).QueryRowContext(ctx).Scan(&n); err != nil {
			return 0, fmt.Errorf("count %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}

func jsonb(v any) []byte {
	if v == nil {
		return []byte("{}")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
