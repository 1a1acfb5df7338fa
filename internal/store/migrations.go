package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Events table - stores stabilized recognition events
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			recognized_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Bindings table - maps a gesture label to a command to execute
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL UNIQUE,
			command TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_events_label ON events(label)`,
		`CREATE INDEX IF NOT EXISTS idx_events_recognized_at ON events(recognized_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
