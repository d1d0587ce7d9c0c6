package cache

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS work_items (
	user       TEXT NOT NULL,
	id         INTEGER NOT NULL,
	rev        INTEGER NOT NULL DEFAULT 0,
	parent_id  INTEGER NOT NULL DEFAULT -1,
	fields     TEXT NOT NULL DEFAULT '{}',
	fetched_at DATETIME NOT NULL,
	PRIMARY KEY (user, id)
);

CREATE INDEX IF NOT EXISTS idx_work_items_user ON work_items(user);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
