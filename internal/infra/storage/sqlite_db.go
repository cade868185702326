package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// MemoryPath keeps the journal in memory for the life of the process.
const MemoryPath = ":memory:"

// InitSQLite opens the shift journal database and creates its schema. An
// empty path or MemoryPath keeps everything in memory.
func InitSQLite(dbPath string) (*sql.DB, error) {
	memory := dbPath == "" || dbPath == MemoryPath
	if memory {
		dbPath = MemoryPath
	} else {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Each connection to :memory: is its own database, and SQLite has a
	// single writer either way.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS shifts (
			session_id TEXT PRIMARY KEY,
			preset TEXT NOT NULL DEFAULT '',
			night INTEGER NOT NULL DEFAULT 1,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			outcome TEXT NOT NULL DEFAULT 'IN_PROGRESS',
			reason TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			event_type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			night INTEGER NOT NULL,
			clock_time REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_actor_id ON events(actor_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
