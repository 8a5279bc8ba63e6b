// Package app wires configuration, storage, filesystem, and the
// synchronization engine into the operations the CLI exposes.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"

	"mcpswitch-go/internal/config"
	"mcpswitch-go/internal/database"
	"mcpswitch-go/internal/engine"
	"mcpswitch-go/internal/fs"
	"mcpswitch-go/internal/model"
)

// App is the application layer between the CLI and the SyncEngine.
// It constructs all dependencies from config, exposes high-level
// operations that accept profile names, and manages the store
// lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	engine  *engine.SyncEngine
	logger  *slog.Logger
	logFile *os.File

	opID      string
	opName    string
	persisted bool
	status    string
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "SwitchProfile"). The
// caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	fsmgr := fs.NewOSFilesystemManager()
	clock := engine.RealClock{}

	store, err := database.NewStoreFromConfig(cfg.Database, clock)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if err := store.MigrateUp(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	opID := uuid.New().String()
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	backup := engine.NewBackupManager(store, fsmgr, clock, cfg.Defaults.BackupDir)
	eng := engine.NewSyncEngine(store, fsmgr, backup, &slogAdapter{l: logger}, clock)

	if _, err := eng.Bootstrap(cfg.Defaults.ConfigPath, cfg.Defaults.BackupDir); err != nil {
		logFile.Close()
		store.Close()
		return nil, fmt.Errorf("bootstrapping store: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   store,
		engine:  eng,
		logger:  logger,
		logFile: logFile,
		opID:    opID,
		opName:  operation,
		status:  model.OperationSuccess,
	}, nil
}

// Engine exposes the engine for collaborators such as the watcher.
func (a *App) Engine() *engine.SyncEngine { return a.engine }

// Logger exposes the engine-facing logger for collaborators that log
// through the same sink.
func (a *App) Logger() engine.Logger { return &slogAdapter{l: a.logger} }

// persistOperation records the start of a mutating operation in the
// audit log. Read-only commands never call this.
func (a *App) persistOperation(detail string) error {
	if a.persisted {
		return nil
	}
	op := &model.Operation{
		ID:        a.opID,
		Name:      a.opName,
		Detail:    detail,
		Status:    model.OperationStarted,
		CreatedAt: engine.RealClock{}.Now().UTC(),
	}
	if err := a.store.CreateOperation(op); err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.persisted = true
	return nil
}

// Fail marks the current operation as failed for the audit record.
func (a *App) Fail() {
	a.status = model.OperationFailed
}

// resolveProfile finds a profile by name, falling back to a numeric ID.
// Returns nil when no profile matches.
func (a *App) resolveProfile(ref string) (*model.Profile, error) {
	p, err := a.store.GetProfileByName(ref)
	if err != nil {
		return nil, fmt.Errorf("looking up profile %q: %w", ref, err)
	}
	if p != nil {
		return p, nil
	}
	id, convErr := strconv.ParseInt(ref, 10, 64)
	if convErr != nil {
		return nil, nil
	}
	p, err = a.store.GetProfile(id)
	if err != nil {
		return nil, fmt.Errorf("looking up profile %d: %w", id, err)
	}
	return p, nil
}

// SwitchProfile activates the named profile.
func (a *App) SwitchProfile(ref string) (*engine.SwitchResult, error) {
	if err := a.persistOperation(ref); err != nil {
		return nil, err
	}
	p, err := a.resolveProfile(ref)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no profile named %q", ref)
	}
	return a.engine.SwitchProfile(p.ID)
}

// CreateProfile creates a profile, substituting configured defaults for
// empty paths.
func (a *App) CreateProfile(name, configPath, backupPath, clientPath string) (*model.Profile, error) {
	if err := a.persistOperation(name); err != nil {
		return nil, err
	}
	if configPath == "" {
		configPath = a.cfg.Defaults.ConfigPath
	}
	if backupPath == "" {
		backupPath = a.cfg.Defaults.BackupDir
	}
	return a.engine.CreateProfile(name, configPath, backupPath, clientPath)
}

// RemixProfile clones the source profile under a new name.
func (a *App) RemixProfile(sourceRef, newName string) (*model.Profile, error) {
	if err := a.persistOperation(sourceRef + " -> " + newName); err != nil {
		return nil, err
	}
	src, err := a.resolveProfile(sourceRef)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("no profile named %q", sourceRef)
	}
	return a.engine.RemixProfile(src.ID, newName)
}

// DeleteProfile removes the named profile and its history. Deleting an
// unknown profile is a no-op.
func (a *App) DeleteProfile(ref string) error {
	if err := a.persistOperation(ref); err != nil {
		return err
	}
	p, err := a.resolveProfile(ref)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	return a.engine.DeleteProfile(p.ID)
}

// SetProfilePaths updates the named profile's three paths.
func (a *App) SetProfilePaths(ref, configPath, backupPath, clientPath string) error {
	if err := a.persistOperation(ref); err != nil {
		return err
	}
	p, err := a.resolveProfile(ref)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("no profile named %q", ref)
	}
	if configPath == "" {
		configPath = p.ConfigPath
	}
	if backupPath == "" {
		backupPath = p.BackupPath
	}
	if clientPath == "" {
		clientPath = p.ClientPath
	}
	return a.engine.UpdateProfilePaths(p.ID, configPath, backupPath, clientPath)
}

// ListProfiles returns all profiles, newest-created first.
func (a *App) ListProfiles() ([]*model.Profile, error) {
	return a.store.ListProfiles()
}

// GetProfile returns the named profile, or nil when absent.
func (a *App) GetProfile(ref string) (*model.Profile, error) {
	return a.resolveProfile(ref)
}

// LatestConfiguration returns the named profile's latest snapshot, or
// nil when the profile has none.
func (a *App) LatestConfiguration(ref string) (*model.Configuration, error) {
	p, err := a.resolveProfile(ref)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no profile named %q", ref)
	}
	return a.store.GetLatestConfiguration(p.ID)
}

// ConfigurationHistory returns up to limit snapshots for the named
// profile, newest first.
func (a *App) ConfigurationHistory(ref string, limit int) ([]*model.Configuration, error) {
	p, err := a.resolveProfile(ref)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no profile named %q", ref)
	}
	return a.store.ListConfigurations(p.ID, limit)
}

// SaveConfiguration validates text and writes it to targetPath (the
// settings pointer's config path when empty), appending it to the
// history of whichever profile owns that path.
func (a *App) SaveConfiguration(text, targetPath string) (*engine.SaveResult, error) {
	if targetPath == "" {
		settings, err := a.engine.Settings()
		if err != nil {
			return nil, err
		}
		targetPath = settings.ConfigPath
		if targetPath == "" {
			targetPath = a.cfg.Defaults.ConfigPath
		}
	}
	if err := a.persistOperation(targetPath); err != nil {
		return nil, err
	}

	var profileID int64
	owners, err := a.store.FindProfilesByConfigPath(targetPath)
	if err != nil {
		return nil, fmt.Errorf("finding profile for %s: %w", targetPath, err)
	}
	if len(owners) > 0 {
		profileID = owners[0].ID
	}

	return a.engine.SaveRaw(text, targetPath, profileID)
}

// ActiveProfile returns the profile the settings pointer currently
// references, or nil when none matches.
func (a *App) ActiveProfile() (*model.Profile, error) {
	return a.engine.ActiveProfile()
}

// Settings returns the current settings pointer.
func (a *App) Settings() (*model.Settings, error) {
	return a.engine.Settings()
}

// UpdateSettings applies a partial settings edit.
func (a *App) UpdateSettings(u model.SettingsUpdate) error {
	if err := a.persistOperation("settings"); err != nil {
		return err
	}
	return a.engine.UpdateSettings(u)
}

// Operations returns the most recent audit records.
func (a *App) Operations(limit int) ([]*model.Operation, error) {
	return a.store.ListOperations(limit)
}

// Close finalizes the audit record and closes all resources.
func (a *App) Close() error {
	var firstErr error

	if a.persisted {
		if err := a.store.FinishOperation(a.opID, a.status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
