package config

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database
// configuration. The schema is a single-row config table created on first
// open, which keeps deployments editable with any sqlite client.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			listen_addr TEXT NOT NULL DEFAULT '',
			http_port INTEGER NOT NULL DEFAULT 0,
			connection_string TEXT NOT NULL DEFAULT '',
			auto_migrate INTEGER NOT NULL DEFAULT 0,
			weather_query_timeout_seconds INTEGER NOT NULL DEFAULT 0
		)`); err != nil {
		return nil, fmt.Errorf("failed to create config schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	row := s.db.QueryRow(`
		SELECT listen_addr, http_port, connection_string, auto_migrate, weather_query_timeout_seconds
		FROM config WHERE id = 1`)

	var autoMigrate int
	err := row.Scan(
		&config.HTTP.ListenAddr,
		&config.HTTP.Port,
		&config.Database.ConnectionString,
		&autoMigrate,
		&config.Weather.QueryTimeoutSeconds,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no configuration row found in %s", s.dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.Database.AutoMigrate = autoMigrate != 0

	if config.Database.ConnectionString == "" {
		return nil, fmt.Errorf("database connection_string is not configured in %s", s.dbPath)
	}

	return config, nil
}

// IsReadOnly returns false; SQLite configuration can be edited in place
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the underlying database handle
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
