package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Sites table: one row per onboarded content source
CREATE TABLE IF NOT EXISTS sites (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    domain TEXT,

    -- Crawl source descriptor
    source_org TEXT,
    source_repo TEXT,
    source_url TEXT,

    -- Cached after each crawl
    page_count INTEGER NOT NULL DEFAULT 0,
    last_crawled TEXT,

    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Pages table: crawled pages plus classification columns
CREATE TABLE IF NOT EXISTS pages (
    path TEXT PRIMARY KEY,
    site_id TEXT REFERENCES sites(id),
    title TEXT,

    -- Classification (written by the analyzer, never by the crawler)
    content_type TEXT CHECK (content_type IN ('adventure', 'article', 'landing', 'listing', 'support')),
    primary_topic TEXT,
    funnel_stage TEXT CHECK (funnel_stage IN ('awareness', 'consideration', 'decision')),
    summary TEXT,
    word_count INTEGER,

    -- Crawl data
    raw_html TEXT,
    live_url TEXT,
    last_crawled TEXT,
    analyzed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_pages_site ON pages(site_id);
CREATE INDEX IF NOT EXISTS idx_pages_topic_stage ON pages(primary_topic, funnel_stage);
CREATE INDEX IF NOT EXISTS idx_pages_content_type ON pages(content_type);

-- Topic associations; exactly one is_primary row matches pages.primary_topic
CREATE TABLE IF NOT EXISTS page_topics (
    page_path TEXT NOT NULL REFERENCES pages(path) ON DELETE CASCADE,
    topic TEXT NOT NULL,
    is_primary INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (page_path, topic)
);

CREATE INDEX IF NOT EXISTS idx_page_topics_topic ON page_topics(topic);

CREATE TABLE IF NOT EXISTS entities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS page_entities (
    page_path TEXT NOT NULL REFERENCES pages(path) ON DELETE CASCADE,
    entity_id INTEGER NOT NULL REFERENCES entities(id),
    PRIMARY KEY (page_path, entity_id)
);

CREATE TABLE IF NOT EXISTS page_audiences (
    page_path TEXT NOT NULL REFERENCES pages(path) ON DELETE CASCADE,
    audience TEXT NOT NULL,
    PRIMARY KEY (page_path, audience)
);

CREATE INDEX IF NOT EXISTS idx_page_audiences_audience ON page_audiences(audience);

CREATE TABLE IF NOT EXISTS page_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_path TEXT NOT NULL REFERENCES pages(path) ON DELETE CASCADE,
    message TEXT NOT NULL
);

-- Daily performance samples, upserted per (page, date)
CREATE TABLE IF NOT EXISTS page_performance (
    page_path TEXT NOT NULL,
    date TEXT NOT NULL,
    pageviews INTEGER NOT NULL DEFAULT 0,
    visits INTEGER NOT NULL DEFAULT 0,
    avg_lcp REAL NOT NULL DEFAULT 0,
    avg_cls REAL NOT NULL DEFAULT 0,
    avg_inp REAL NOT NULL DEFAULT 0,
    bounce_rate REAL NOT NULL DEFAULT 0,
    avg_engagement_time REAL NOT NULL DEFAULT 0,
    conversion_rate REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (page_path, date)
);

-- Derived scores, replaced wholesale by the scoring job
CREATE TABLE IF NOT EXISTS page_scores (
    page_path TEXT PRIMARY KEY,
    performance_score REAL NOT NULL,
    engagement_score REAL NOT NULL,
    conversion_score REAL NOT NULL,
    overall_score REAL NOT NULL,
    last_calculated TEXT NOT NULL
);

-- Aggregate patterns, replaced wholesale by the scoring job
CREATE TABLE IF NOT EXISTS performance_patterns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    pattern_type TEXT NOT NULL,
    pattern_value TEXT,
    avg_performance REAL NOT NULL,
    sample_size INTEGER NOT NULL,
    insight TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_patterns_type ON performance_patterns(pattern_type);

CREATE TABLE IF NOT EXISTS crawl_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    started_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at TEXT,
    pages_crawled INTEGER NOT NULL DEFAULT 0,
    errors TEXT,
    status TEXT NOT NULL DEFAULT 'running'
);

-- Assistant tool usage tracking
CREATE TABLE IF NOT EXISTS skill_usage_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id TEXT NOT NULL UNIQUE,
    user_id_hash TEXT NOT NULL,
    tool_name TEXT NOT NULL,
    tool_category TEXT NOT NULL,
    duration_ms INTEGER,
    status TEXT NOT NULL,
    error_type TEXT,
    error_message TEXT,
    metadata TEXT,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_usage_tool ON skill_usage_events(tool_name);
`
