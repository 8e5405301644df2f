package storage

const schemaSQL = `
-- One row per archive job; progress columns are refreshed as the job runs
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY NOT NULL,
    seed_url TEXT NOT NULL,
    output_root TEXT NOT NULL,
    max_depth INTEGER NOT NULL,
    download_assets INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'starting' CHECK (status IN ('starting', 'running', 'completed', 'failed')),
    progress REAL NOT NULL DEFAULT 0,
    files_downloaded INTEGER NOT NULL DEFAULT 0,
    total_bytes INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    finished_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs(created_at);

-- Files written under a job's output root
CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    path TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('page', 'asset', 'placeholder')),
    status_code INTEGER,
    content_type TEXT,
    size_bytes INTEGER NOT NULL,
    ttfb_ms INTEGER,
    download_time_ms INTEGER,
    saved_at TEXT NOT NULL,
    UNIQUE(job_id, url)
);

CREATE INDEX IF NOT EXISTS idx_files_job ON files(job_id);
CREATE INDEX IF NOT EXISTS idx_files_kind ON files(job_id, kind);

-- Error messages in the order they were reported
CREATE TABLE IF NOT EXISTS job_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    message TEXT NOT NULL,
    occurred_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_job_errors_job ON job_errors(job_id);

-- Summary view used by reports
CREATE VIEW IF NOT EXISTS job_file_stats AS
SELECT
    job_id,
    kind,
    COUNT(*) AS count,
    SUM(size_bytes) AS bytes
FROM files
GROUP BY job_id, kind;
`
