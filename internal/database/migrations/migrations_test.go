package migrations_test

import (
	"testing"

	"mcpswitch-go/internal/database"
	"mcpswitch-go/internal/database/migrations"
)

func TestMigrateUp(t *testing.T) {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	// Core tables exist and the settings singleton is seeded.
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&count); err != nil {
		t.Fatalf("querying settings: %v", err)
	}
	if count != 1 {
		t.Errorf("settings rows = %d, want 1", count)
	}

	for _, table := range []string{"profiles", "configurations", "operations"} {
		if _, err := db.Exec("SELECT COUNT(*) FROM " + table); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		t.Fatalf("first MigrateUp() error = %v", err)
	}
	if err := migrations.MigrateUp(db); err != nil {
		t.Errorf("second MigrateUp() error = %v", err)
	}
}

func TestCheckStatus(t *testing.T) {
	t.Run("fails before migration", func(t *testing.T) {
		db, err := database.OpenConnection(":memory:")
		if err != nil {
			t.Fatalf("opening database: %v", err)
		}
		defer db.Close()

		if err := migrations.CheckStatus(db); err == nil {
			t.Error("CheckStatus() = nil, want error for unmigrated database")
		}
	})

	t.Run("passes after migration", func(t *testing.T) {
		db, err := database.OpenConnection(":memory:")
		if err != nil {
			t.Fatalf("opening database: %v", err)
		}
		defer db.Close()

		if err := migrations.MigrateUp(db); err != nil {
			t.Fatalf("MigrateUp() error = %v", err)
		}
		if err := migrations.CheckStatus(db); err != nil {
			t.Errorf("CheckStatus() error = %v", err)
		}
	})
}
