package storage

// schema mirrors the feed data model: one periods table, raw staging
// tables, and one table per feed section. videos.video_id carries the
// global uniqueness constraint the writer's skip logic depends on.
const schema = `
CREATE TABLE IF NOT EXISTS periods (
	id VARCHAR(10) PRIMARY KEY,
	label VARCHAR(20) NOT NULL,
	year INTEGER NOT NULL,
	week_num INTEGER,
	date_range VARCHAR(20) NOT NULL,
	is_current BOOLEAN NOT NULL DEFAULT FALSE,
	period_type VARCHAR(10) NOT NULL DEFAULT 'week',
	sort_date DATE NOT NULL,
	parent_period_id VARCHAR(10) REFERENCES periods(id)
);

CREATE TABLE IF NOT EXISTS raw_articles (
	id SERIAL PRIMARY KEY,
	period_id VARCHAR(10) NOT NULL REFERENCES periods(id),
	source VARCHAR(200) NOT NULL,
	title TEXT NOT NULL,
	link TEXT NOT NULL,
	summary TEXT NOT NULL,
	published VARCHAR(40) NOT NULL,
	original_section VARCHAR(20) NOT NULL,
	section VARCHAR(20),
	relevance DOUBLE PRECISION,
	raw_data JSONB,
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_raw_articles_period ON raw_articles(period_id);

CREATE TABLE IF NOT EXISTS raw_videos (
	id SERIAL PRIMARY KEY,
	period_id VARCHAR(10) NOT NULL REFERENCES periods(id),
	video_id VARCHAR(20) NOT NULL,
	title TEXT NOT NULL,
	channel_name VARCHAR(200) NOT NULL,
	channel_id VARCHAR(50),
	description TEXT,
	transcript TEXT,
	thumbnail_url TEXT,
	published_at VARCHAR(30),
	duration_seconds INTEGER,
	duration_formatted VARCHAR(20),
	view_count BIGINT,
	like_count BIGINT,
	raw_data JSONB,
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_raw_videos_period ON raw_videos(period_id);

CREATE TABLE IF NOT EXISTS tech_posts (
	id SERIAL PRIMARY KEY,
	period_id VARCHAR(10) NOT NULL REFERENCES periods(id),
	content_de TEXT NOT NULL,
	content_en TEXT NOT NULL,
	category_de VARCHAR(100) NOT NULL,
	category_en VARCHAR(100) NOT NULL,
	author JSONB NOT NULL,
	tags_de TEXT[] NOT NULL DEFAULT '{}',
	tags_en TEXT[] NOT NULL DEFAULT '{}',
	icon_type VARCHAR(20) NOT NULL,
	impact VARCHAR(20) NOT NULL,
	timestamp VARCHAR(20) NOT NULL,
	source VARCHAR(200) NOT NULL,
	source_url TEXT,
	metrics JSONB NOT NULL DEFAULT '{}',
	is_video BOOLEAN NOT NULL DEFAULT FALSE,
	video_id VARCHAR(20),
	video_duration VARCHAR(20),
	video_view_count VARCHAR(30),
	video_thumbnail_url TEXT,
	display_order INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tech_posts_period ON tech_posts(period_id);

CREATE TABLE IF NOT EXISTS videos (
	id SERIAL PRIMARY KEY,
	period_id VARCHAR(10) NOT NULL REFERENCES periods(id),
	video_id VARCHAR(20) UNIQUE NOT NULL,
	title_de TEXT NOT NULL,
	title_en TEXT NOT NULL,
	summary_de TEXT NOT NULL,
	summary_en TEXT NOT NULL,
	original_title TEXT NOT NULL,
	channel_name VARCHAR(200) NOT NULL,
	channel_id VARCHAR(50),
	thumbnail_url TEXT NOT NULL,
	published_at VARCHAR(30) NOT NULL,
	duration_seconds INTEGER NOT NULL,
	duration_formatted VARCHAR(20) NOT NULL,
	view_count BIGINT NOT NULL DEFAULT 0,
	like_count BIGINT NOT NULL DEFAULT 0,
	transcript TEXT,
	category VARCHAR(100)
);
CREATE INDEX IF NOT EXISTS idx_videos_period ON videos(period_id);

CREATE TABLE IF NOT EXISTS primary_market_posts (
	id SERIAL PRIMARY KEY,
	period_id VARCHAR(10) NOT NULL REFERENCES periods(id),
	content_de TEXT NOT NULL,
	content_en TEXT NOT NULL,
	company VARCHAR(200) NOT NULL,
	amount_de VARCHAR(50) NOT NULL,
	amount_en VARCHAR(50) NOT NULL,
	round VARCHAR(50) NOT NULL,
	round_category VARCHAR(20),
	investors TEXT[] NOT NULL DEFAULT '{}',
	valuation_de VARCHAR(50),
	valuation_en VARCHAR(50),
	author JSONB NOT NULL,
	timestamp VARCHAR(20) NOT NULL,
	source_url TEXT,
	metrics JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_primary_market_posts_period ON primary_market_posts(period_id);

CREATE TABLE IF NOT EXISTS secondary_market_posts (
	id SERIAL PRIMARY KEY,
	period_id VARCHAR(10) NOT NULL REFERENCES periods(id),
	content_de TEXT NOT NULL,
	content_en TEXT NOT NULL,
	ticker VARCHAR(100) NOT NULL,
	price VARCHAR(100) NOT NULL DEFAULT '',
	change VARCHAR(100) NOT NULL DEFAULT '',
	direction VARCHAR(20) NOT NULL DEFAULT 'up',
	market_cap_de VARCHAR(100),
	market_cap_en VARCHAR(100),
	author JSONB NOT NULL,
	timestamp VARCHAR(20) NOT NULL,
	source_url TEXT,
	metrics JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_secondary_market_posts_period ON secondary_market_posts(period_id);

CREATE TABLE IF NOT EXISTS ma_posts (
	id SERIAL PRIMARY KEY,
	period_id VARCHAR(10) NOT NULL REFERENCES periods(id),
	content_de TEXT NOT NULL,
	content_en TEXT NOT NULL,
	acquirer VARCHAR(200) NOT NULL,
	target VARCHAR(200) NOT NULL,
	deal_value_de TEXT,
	deal_value_en TEXT,
	deal_type_de VARCHAR(50) NOT NULL,
	deal_type_en VARCHAR(50) NOT NULL,
	industry VARCHAR(20),
	author JSONB NOT NULL,
	timestamp VARCHAR(20) NOT NULL,
	source_url TEXT,
	metrics JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_ma_posts_period ON ma_posts(period_id);

CREATE TABLE IF NOT EXISTS tip_posts (
	id SERIAL PRIMARY KEY,
	period_id VARCHAR(10) NOT NULL REFERENCES periods(id),
	content_de TEXT NOT NULL,
	content_en TEXT NOT NULL,
	tip_de TEXT NOT NULL,
	tip_en TEXT NOT NULL,
	category_de VARCHAR(100) NOT NULL,
	category_en VARCHAR(100) NOT NULL,
	platform VARCHAR(20) NOT NULL,
	difficulty_de VARCHAR(30) NOT NULL,
	difficulty_en VARCHAR(30) NOT NULL,
	author JSONB NOT NULL,
	timestamp VARCHAR(20) NOT NULL,
	source_url TEXT,
	metrics JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_tip_posts_period ON tip_posts(period_id);

CREATE TABLE IF NOT EXISTS trends (
	id SERIAL PRIMARY KEY,
	period_id VARCHAR(10) NOT NULL REFERENCES periods(id),
	category_de VARCHAR(50) NOT NULL,
	category_en VARCHAR(50) NOT NULL,
	title_de VARCHAR(200) NOT NULL,
	title_en VARCHAR(200) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trends_period ON trends(period_id);
`
