package database

import (
	"fmt"
	"os"
	"path/filepath"

	"mcpswitch-go/internal/config"
	"mcpswitch-go/internal/engine"
)

// databaseFileName is the SQLite file inside the configured data
// directory.
const databaseFileName = "mcpswitch.db"

// NewStoreFromConfig creates a store based on the database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig, clock engine.Clock) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, databaseFileName), clock)
	case "memory":
		return NewSQLiteStore(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
