package postgres

// Schema is the complete PostgreSQL schema for the feedback store.
// All statements are idempotent so the schema can be re-applied on
// every startup.
const Schema = `
CREATE TABLE IF NOT EXISTS feedback_events (
	id          TEXT PRIMARY KEY,
	entity      TEXT NOT NULL,
	source_note TEXT NOT NULL,
	origin      TEXT NOT NULL,
	accepted    BOOLEAN NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_events_entity
	ON feedback_events(entity);

CREATE TABLE IF NOT EXISTS feedback_stats (
	entity         TEXT NOT NULL,
	source_note    TEXT NOT NULL,
	positive_count INTEGER NOT NULL DEFAULT 0,
	negative_count INTEGER NOT NULL DEFAULT 0,
	updated_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (entity, source_note)
);

CREATE TABLE IF NOT EXISTS suppressions (
	entity      TEXT NOT NULL,
	source_note TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (entity, source_note)
);
`
