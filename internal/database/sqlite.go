// Package database implements the engine's Store interface on SQLite.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"mcpswitch-go/internal/database/migrations"
	"mcpswitch-go/internal/engine"
	"mcpswitch-go/internal/model"
)

// SQLiteStore implements engine.Store using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	clock engine.Clock
	path  string
}

// NewSQLiteStore opens a SQLite database at path and wraps it as a
// store. path can be a file path or ":memory:" for an in-memory
// database. The schema is not migrated here; see migrations.MigrateUp.
func NewSQLiteStore(path string, clock engine.Clock) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStoreFromDB(db, clock, path), nil
}

// NewSQLiteStoreFromDB wraps an existing connection. The caller is
// responsible for the connection's PRAGMA configuration.
func NewSQLiteStoreFromDB(db *sql.DB, clock engine.Clock, path string) *SQLiteStore {
	if clock == nil {
		clock = engine.RealClock{}
	}
	return &SQLiteStore{db: db, clock: clock, path: path}
}

// OpenConnection opens and configures a SQLite connection. Foreign keys
// are enabled so profile deletion cascades to snapshots.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return db, nil
}

// CheckMigrations verifies the schema is at the latest version.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// MigrateUp brings the schema to the latest version.
func (s *SQLiteStore) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// Profile operations

func (s *SQLiteStore) CreateProfile(name, configPath, backupPath, clientPath string) (int64, error) {
	now := s.clock.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO profiles (name, config_path, backup_path, client_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		name, configPath, backupPath, clientPath, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &engine.DuplicateNameError{Name: name}
		}
		return 0, fmt.Errorf("inserting profile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted profile id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetProfile(id int64) (*model.Profile, error) {
	row := s.db.QueryRow(
		`SELECT id, name, config_path, backup_path, client_path, created_at, updated_at
		 FROM profiles WHERE id = ?`, id)
	return scanProfile(row)
}

func (s *SQLiteStore) GetProfileByName(name string) (*model.Profile, error) {
	row := s.db.QueryRow(
		`SELECT id, name, config_path, backup_path, client_path, created_at, updated_at
		 FROM profiles WHERE name = ?`, name)
	return scanProfile(row)
}

func (s *SQLiteStore) ListProfiles() ([]*model.Profile, error) {
	rows, err := s.db.Query(
		`SELECT id, name, config_path, backup_path, client_path, created_at, updated_at
		 FROM profiles ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (s *SQLiteStore) FindProfilesByConfigPath(configPath string) ([]*model.Profile, error) {
	rows, err := s.db.Query(
		`SELECT id, name, config_path, backup_path, client_path, created_at, updated_at
		 FROM profiles WHERE config_path = ? ORDER BY updated_at DESC, id DESC`, configPath)
	if err != nil {
		return nil, fmt.Errorf("finding profiles by config path: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (s *SQLiteStore) CountProfiles() (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting profiles: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) DeleteProfile(id int64) error {
	// Snapshots go with the profile via ON DELETE CASCADE. A missing
	// profile deletes zero rows, which keeps deletion idempotent.
	if _, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateProfilePaths(id int64, configPath, backupPath, clientPath string) error {
	now := s.clock.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE profiles SET config_path = ?, backup_path = ?, client_path = ?, updated_at = ?
		 WHERE id = ?`,
		configPath, backupPath, clientPath, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating profile paths: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %d not found", id)
	}
	return nil
}

// Configuration snapshot operations

func (s *SQLiteStore) SaveConfiguration(profileID int64, content string) (int64, error) {
	now := s.clock.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO configurations (profile_id, content, created_at) VALUES (?, ?, ?)`,
		profileID, content, now,
	)
	if err != nil {
		return 0, fmt.Errorf("appending configuration snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted snapshot id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetLatestConfiguration(profileID int64) (*model.Configuration, error) {
	// The id is the tiebreak for snapshots appended within the same
	// second; insertion order wins.
	row := s.db.QueryRow(
		`SELECT id, profile_id, content, created_at FROM configurations
		 WHERE profile_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, profileID)

	var c model.Configuration
	if err := row.Scan(&c.ID, &c.ProfileID, &c.Content, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading latest configuration: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) ListConfigurations(profileID int64, limit int) ([]*model.Configuration, error) {
	query := `SELECT id, profile_id, content, created_at FROM configurations
		 WHERE profile_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{profileID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing configurations: %w", err)
	}
	defer rows.Close()

	var configs []*model.Configuration
	for rows.Next() {
		var c model.Configuration
		if err := rows.Scan(&c.ID, &c.ProfileID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning configuration: %w", err)
		}
		configs = append(configs, &c)
	}
	return configs, rows.Err()
}

// Settings pointer operations

func (s *SQLiteStore) GetSettings() (*model.Settings, error) {
	var settings model.Settings
	err := s.db.QueryRow(
		`SELECT config_path, backup_path, client_path FROM settings WHERE id = 1`,
	).Scan(&settings.ConfigPath, &settings.BackupPath, &settings.ClientPath)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return &settings, nil
}

func (s *SQLiteStore) UpdateSettings(u model.SettingsUpdate) error {
	var sets []string
	var args []any
	if u.ConfigPath != nil {
		sets = append(sets, "config_path = ?")
		args = append(args, *u.ConfigPath)
	}
	if u.BackupPath != nil {
		sets = append(sets, "backup_path = ?")
		args = append(args, *u.BackupPath)
	}
	if u.ClientPath != nil {
		sets = append(sets, "client_path = ?")
		args = append(args, *u.ClientPath)
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE settings SET %s WHERE id = 1", strings.Join(sets, ", "))
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	return nil
}

// Operation audit log

func (s *SQLiteStore) CreateOperation(op *model.Operation) error {
	_, err := s.db.Exec(
		`INSERT INTO operations (id, name, detail, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		op.ID, op.Name, op.Detail, op.Status, op.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting operation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FinishOperation(id string, status string) error {
	now := s.clock.Now().UTC()
	if _, err := s.db.Exec(
		`UPDATE operations SET status = ?, finished_at = ? WHERE id = ?`,
		status, now, id,
	); err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListOperations(limit int) ([]*model.Operation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, name, detail, status, created_at, finished_at FROM operations
		 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.Operation
	for rows.Next() {
		var op model.Operation
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.Name, &op.Detail, &op.Status, &op.CreatedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			op.FinishedAt = &t
		}
		ops = append(ops, &op)
	}
	return ops, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.Name, &p.ConfigPath, &p.BackupPath, &p.ClientPath, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	return &p, nil
}

func collectProfiles(rows *sql.Rows) ([]*model.Profile, error) {
	var profiles []*model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Compile-time check that SQLiteStore implements the Store interface.
var _ engine.Store = (*SQLiteStore)(nil)
