package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Visits table - one row per arrival in front of the kiosk
		`CREATE TABLE IF NOT EXISTS visits (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			known INTEGER NOT NULL DEFAULT 0,
			distance REAL NOT NULL DEFAULT 0,
			seen_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Hook runs table - outcome of each arrival hook invocation
		`CREATE TABLE IF NOT EXISTS hook_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visit_id TEXT NOT NULL REFERENCES visits(id) ON DELETE CASCADE,
			plugin_name TEXT NOT NULL,
			success INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_visits_seen_at ON visits(seen_at)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_name ON visits(name)`,
		`CREATE INDEX IF NOT EXISTS idx_hook_runs_visit_id ON hook_runs(visit_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
