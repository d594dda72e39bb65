package sqlite

// Schema is the complete SQLite schema for the feedback store. The
// events table is append-only; stats and suppressions are derived.
const Schema = `
CREATE TABLE IF NOT EXISTS feedback_events (
	id          TEXT PRIMARY KEY,
	entity      TEXT NOT NULL,
	source_note TEXT NOT NULL,
	origin      TEXT NOT NULL,
	accepted    INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_events_entity
	ON feedback_events(entity);

CREATE TABLE IF NOT EXISTS feedback_stats (
	entity         TEXT NOT NULL,
	source_note    TEXT NOT NULL,
	positive_count INTEGER NOT NULL DEFAULT 0,
	negative_count INTEGER NOT NULL DEFAULT 0,
	updated_at     TIMESTAMP NOT NULL,
	PRIMARY KEY (entity, source_note)
);

CREATE TABLE IF NOT EXISTS suppressions (
	entity      TEXT NOT NULL,
	source_note TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (entity, source_note)
);
`
