package sqlite

const schema = `
-- Cached issues table, one row per (repo, upstream id)
CREATE TABLE IF NOT EXISTS issues (
    repo TEXT NOT NULL,
    id INTEGER NOT NULL,
    number INTEGER NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    PRIMARY KEY (repo, id)
);

CREATE INDEX IF NOT EXISTS idx_issues_repo_created_at ON issues(repo, created_at);

-- Scan metadata table, one row per repo
CREATE TABLE IF NOT EXISTS scan_state (
    repo TEXT PRIMARY KEY,
    last_scanned_at DATETIME NOT NULL,
    total_issues INTEGER NOT NULL DEFAULT 0
);
`
