package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
    file_path            TEXT NOT NULL REFERENCES file_tracker(file_path) ON DELETE CASCADE,
    row_index            INTEGER NOT NULL,
    date                 TEXT NOT NULL,
    casual               INTEGER NOT NULL,
    registered           INTEGER NOT NULL,
    cnt                  INTEGER NOT NULL,
    season               TEXT NOT NULL,
    weather              TEXT NOT NULL,
    temp                 REAL NOT NULL,
    humidity             REAL NOT NULL,
    windspeed            REAL NOT NULL,
    PRIMARY KEY (file_path, row_index)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    row_errors           INTEGER NOT NULL DEFAULT 0,
    inconsistent         INTEGER NOT NULL DEFAULT 0,
    extra_columns        INTEGER NOT NULL DEFAULT 0,
    parsed_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_date ON records(date);
`
