package cache

// ResponseCacheSchema defines the persistent tier table.
// stored_at is Unix milliseconds so TTL comparisons stay exact across drivers.
const ResponseCacheSchema = `
CREATE TABLE IF NOT EXISTS response_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data BLOB NOT NULL,
	stored_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_response_cache_stored_at ON response_cache(stored_at);
`
