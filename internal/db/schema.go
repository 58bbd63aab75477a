package db

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS annotations (
    id UUID PRIMARY KEY,
    owner_type TEXT NOT NULL CHECK (owner_type IN ('story', 'derivation')),
    owner_id UUID NOT NULL,
    section_key TEXT NOT NULL,
    start_offset INTEGER NOT NULL,
    end_offset INTEGER NOT NULL,
    annotated_text TEXT NOT NULL DEFAULT '',
    style TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT 'yellow',
    note TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_annotations_owner ON annotations(owner_type, owner_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS annotations (
    id TEXT PRIMARY KEY,
    owner_type TEXT NOT NULL CHECK (owner_type IN ('story', 'derivation')),
    owner_id TEXT NOT NULL,
    section_key TEXT NOT NULL,
    start_offset INTEGER NOT NULL,
    end_offset INTEGER NOT NULL,
    annotated_text TEXT NOT NULL DEFAULT '',
    style TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT 'yellow',
    note TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_annotations_owner ON annotations(owner_type, owner_id)`,
}

func schemaFor(d Dialect) []string {
	if d == SQLite {
		return sqliteSchema
	}
	return postgresSchema
}
