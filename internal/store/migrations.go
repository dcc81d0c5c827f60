package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create history and active sessions",
		SQL: `
			CREATE TABLE history (
				seq         INTEGER PRIMARY KEY AUTOINCREMENT,
				msg_id      TEXT NOT NULL UNIQUE,
				user_id     TEXT NOT NULL,
				role        TEXT NOT NULL,
				text        TEXT NOT NULL,
				timestamp   TEXT NOT NULL DEFAULT (datetime('now')),
				intent      TEXT NOT NULL DEFAULT '',
				confidence  REAL,
				cards       TEXT,
				status      TEXT NOT NULL DEFAULT 'sent'
			);

			CREATE INDEX idx_history_user ON history (user_id, seq);

			CREATE TABLE active_sessions (
				user_id     TEXT PRIMARY KEY,
				session_id  TEXT NOT NULL,
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
}
