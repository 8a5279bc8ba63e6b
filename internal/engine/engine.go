// Package engine implements the profile and configuration
// synchronization core: it keeps the versioned snapshot store, the live
// configuration file on disk, and the current-settings pointer
// consistent across profile switches and configuration edits.
package engine

import (
	"mcpswitch-go/internal/document"
	"mcpswitch-go/internal/model"
)

// SyncEngine orchestrates profile switch, creation, remix, and
// raw-edit-save flows. It holds no persistent state of its own beyond
// the per-path lock registry; the store and the settings pointer are
// the durable state.
type SyncEngine struct {
	store  Store
	fsmgr  FilesystemManager
	backup *BackupManager
	logger Logger
	clock  Clock
	locks  *pathLocks
}

// NewSyncEngine creates a SyncEngine with the provided dependencies.
func NewSyncEngine(store Store, fsmgr FilesystemManager, backup *BackupManager, logger Logger, clock Clock) *SyncEngine {
	return &SyncEngine{
		store:  store,
		fsmgr:  fsmgr,
		backup: backup,
		logger: logger,
		clock:  clock,
		locks:  newPathLocks(),
	}
}

// SwitchResult describes the outcome of a profile switch.
type SwitchResult struct {
	Profile    *model.Profile
	Document   *document.Document // the document actually written to disk
	BackupPath string             // "" when the live file did not pre-exist
	Merged     bool               // merge-preserve rule substituted the live server map
	Warning    error              // non-fatal: file written but snapshot append failed
}

// SwitchProfile activates the profile with the given ID: it writes the
// profile's stored configuration to the profile's live file path,
// backing up any pre-existing file first, applies the merge-preserve
// rule, updates the settings pointer, and appends the written text as a
// new snapshot.
//
// Ordering matters: the live file is never overwritten without a prior
// successful backup, and the settings pointer is updated only after the
// file write succeeds, so a crash mid-switch never leaves the pointer
// referencing a profile whose file write did not happen.
func (e *SyncEngine) SwitchProfile(id int64) (*SwitchResult, error) {
	profile, err := e.store.GetProfile(id)
	if err != nil {
		return nil, &StoreError{Op: "get profile", Err: err}
	}
	if profile == nil {
		return nil, &ProfileNotFoundError{ID: id}
	}

	latest, err := e.store.GetLatestConfiguration(id)
	if err != nil {
		return nil, &StoreError{Op: "get latest configuration", Err: err}
	}
	if latest == nil {
		return nil, &NoConfigurationError{ProfileID: id}
	}

	incoming, err := document.Parse(latest.Content)
	if err != nil {
		return nil, &CorruptConfigurationError{ProfileID: id, Err: err}
	}

	unlock := e.locks.acquire(profile.ConfigPath)
	defer unlock()

	exists, err := e.fsmgr.Exists(profile.ConfigPath)
	if err != nil {
		return nil, &WriteError{Path: profile.ConfigPath, Err: err}
	}

	result := &SwitchResult{Profile: profile}

	if exists {
		backupPath, err := e.backup.Backup(profile.ConfigPath)
		if err != nil {
			return nil, err
		}
		result.BackupPath = backupPath
		e.logger.Info("live file backed up", "path", profile.ConfigPath, "backup", backupPath)

		// Merge-preserve rule: a stored-but-empty configuration never
		// erases a non-empty live file. A parse failure of the live
		// file is tolerated here only because the file was already
		// backed up above.
		if incoming.IsEffectivelyEmpty() {
			live := e.readLiveDocument(profile.ConfigPath)
			if !live.IsEffectivelyEmpty() {
				incoming.Servers = live.Servers
				result.Merged = true
				e.logger.Info("merge-preserve applied", "profile", profile.Name, "servers", len(live.Servers))
			}
		}
	}

	text := document.Serialize(incoming)
	if err := e.fsmgr.WriteFile(profile.ConfigPath, []byte(text)); err != nil {
		return nil, &WriteError{Path: profile.ConfigPath, Err: err}
	}

	if err := e.updatePointer(profile); err != nil {
		return nil, err
	}

	// The merge outcome itself becomes the new latest snapshot. This is
	// an append, never an edit of the prior snapshot. A failure here
	// leaves the file ahead of the store, which is surfaced as a
	// warning: the file is the primary deliverable.
	if _, err := e.store.SaveConfiguration(id, text); err != nil {
		result.Warning = &StoreError{Op: "append snapshot after switch", Err: err}
		e.logger.Warn("file written but snapshot append failed", "profile", profile.Name, "error", err)
	}

	result.Document = incoming
	e.logger.Info("profile activated", "profile", profile.Name, "path", profile.ConfigPath, "merged", result.Merged)
	return result, nil
}

// CreateProfile creates a new profile. Whatever configuration already
// exists at configPath becomes the profile's seed snapshot when it
// parses as a non-empty document; otherwise the seed is empty.
func (e *SyncEngine) CreateProfile(name, configPath, backupPath, clientPath string) (*model.Profile, error) {
	seed := e.readLiveDocument(configPath)
	if seed.IsEffectivelyEmpty() {
		seed = document.New()
	}

	id, err := e.store.CreateProfile(name, configPath, backupPath, clientPath)
	if err != nil {
		return nil, err
	}

	if _, err := e.store.SaveConfiguration(id, document.Serialize(seed)); err != nil {
		return nil, &StoreError{Op: "seed configuration", Err: err}
	}

	profile, err := e.store.GetProfile(id)
	if err != nil {
		return nil, &StoreError{Op: "get profile", Err: err}
	}

	e.logger.Info("profile created", "profile", name, "path", configPath, "servers", len(seed.Servers))
	return profile, nil
}

// RemixProfile clones the source profile's paths and latest snapshot
// into a new profile. The remix is a point-in-time copy; it does not
// track the source thereafter.
func (e *SyncEngine) RemixProfile(sourceID int64, newName string) (*model.Profile, error) {
	source, err := e.store.GetProfile(sourceID)
	if err != nil {
		return nil, &StoreError{Op: "get profile", Err: err}
	}
	if source == nil {
		return nil, &ProfileNotFoundError{ID: sourceID}
	}

	latest, err := e.store.GetLatestConfiguration(sourceID)
	if err != nil {
		return nil, &StoreError{Op: "get latest configuration", Err: err}
	}
	if latest == nil {
		return nil, &NoConfigurationError{ProfileID: sourceID}
	}

	id, err := e.store.CreateProfile(newName, source.ConfigPath, source.BackupPath, source.ClientPath)
	if err != nil {
		return nil, err
	}

	if _, err := e.store.SaveConfiguration(id, latest.Content); err != nil {
		return nil, &StoreError{Op: "copy configuration", Err: err}
	}

	profile, err := e.store.GetProfile(id)
	if err != nil {
		return nil, &StoreError{Op: "get profile", Err: err}
	}

	e.logger.Info("profile remixed", "source", source.Name, "new", newName)
	return profile, nil
}

// SaveResult describes the outcome of saving raw configuration text.
type SaveResult struct {
	BackupPath string
	Warning    error // non-fatal: file written but snapshot append failed
}

// SaveRaw validates raw configuration text and writes it verbatim to
// targetPath, backing up any existing file first. When activeProfileID
// is nonzero the text is also appended to that profile's history, so
// manual edits stay versioned.
//
// Unlike a switch, this entry point does not normalize a missing server
// map: the text must carry the mcpServers object or the save fails with
// *ValidationError.
func (e *SyncEngine) SaveRaw(text, targetPath string, activeProfileID int64) (*SaveResult, error) {
	doc, err := document.Parse(text)
	if err != nil {
		return nil, &ValidationError{Reason: "text does not parse", Err: err}
	}
	if doc.Normalized {
		return nil, &ValidationError{Reason: "missing mcpServers object"}
	}

	unlock := e.locks.acquire(targetPath)
	defer unlock()

	exists, err := e.fsmgr.Exists(targetPath)
	if err != nil {
		return nil, &WriteError{Path: targetPath, Err: err}
	}

	result := &SaveResult{}
	if exists {
		backupPath, err := e.backup.Backup(targetPath)
		if err != nil {
			return nil, err
		}
		result.BackupPath = backupPath
	}

	if err := e.fsmgr.WriteFile(targetPath, []byte(text)); err != nil {
		return nil, &WriteError{Path: targetPath, Err: err}
	}

	if activeProfileID != 0 {
		if _, err := e.store.SaveConfiguration(activeProfileID, text); err != nil {
			result.Warning = &StoreError{Op: "append snapshot after save", Err: err}
			e.logger.Warn("file written but snapshot append failed", "profile_id", activeProfileID, "error", err)
		}
	}

	e.logger.Info("configuration saved", "path", targetPath, "servers", len(doc.Servers))
	return result, nil
}

// Bootstrap seeds an empty store with a single "Default" profile
// pointing at the platform-conventional config path and backup
// directory. The seed snapshot is the content already present at the
// default path when it parses as a valid document, or an empty
// document otherwise. Returns nil when the store already has profiles.
func (e *SyncEngine) Bootstrap(defaultConfigPath, defaultBackupDir string) (*model.Profile, error) {
	count, err := e.store.CountProfiles()
	if err != nil {
		return nil, &StoreError{Op: "count profiles", Err: err}
	}
	if count > 0 {
		return nil, nil
	}

	seed := e.readLiveDocument(defaultConfigPath)

	id, err := e.store.CreateProfile("Default", defaultConfigPath, defaultBackupDir, "")
	if err != nil {
		return nil, err
	}
	if _, err := e.store.SaveConfiguration(id, document.Serialize(seed)); err != nil {
		return nil, &StoreError{Op: "seed configuration", Err: err}
	}

	profile, err := e.store.GetProfile(id)
	if err != nil {
		return nil, &StoreError{Op: "get profile", Err: err}
	}

	e.logger.Info("store bootstrapped", "profile", "Default", "path", defaultConfigPath)
	return profile, nil
}

// DeleteProfile removes a profile and all of its snapshots. Deleting a
// nonexistent profile is a no-op.
func (e *SyncEngine) DeleteProfile(id int64) error {
	if err := e.store.DeleteProfile(id); err != nil {
		return &StoreError{Op: "delete profile", Err: err}
	}
	e.logger.Info("profile deleted", "profile_id", id)
	return nil
}

// UpdateProfilePaths updates a profile's three path fields. The
// settings pointer is not touched; it changes only on switch or by a
// direct settings edit.
func (e *SyncEngine) UpdateProfilePaths(id int64, configPath, backupPath, clientPath string) error {
	profile, err := e.store.GetProfile(id)
	if err != nil {
		return &StoreError{Op: "get profile", Err: err}
	}
	if profile == nil {
		return &ProfileNotFoundError{ID: id}
	}
	if err := e.store.UpdateProfilePaths(id, configPath, backupPath, clientPath); err != nil {
		return &StoreError{Op: "update profile paths", Err: err}
	}
	return nil
}

// ActiveProfile resolves the profile whose config path matches the
// settings pointer, most recently updated first. Returns nil when the
// pointer is unset or points at a path no profile owns.
func (e *SyncEngine) ActiveProfile() (*model.Profile, error) {
	settings, err := e.store.GetSettings()
	if err != nil {
		return nil, &StoreError{Op: "get settings", Err: err}
	}
	if settings.ConfigPath == "" {
		return nil, nil
	}
	profiles, err := e.store.FindProfilesByConfigPath(settings.ConfigPath)
	if err != nil {
		return nil, &StoreError{Op: "find profiles by config path", Err: err}
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	return profiles[0], nil
}

// readLiveDocument reads and parses the file at path, treating any
// read or parse failure as an empty document. Callers that must not
// tolerate corruption parse explicitly instead.
func (e *SyncEngine) readLiveDocument(path string) *document.Document {
	exists, err := e.fsmgr.Exists(path)
	if err != nil || !exists {
		return document.New()
	}
	data, err := e.fsmgr.ReadFile(path)
	if err != nil {
		e.logger.Warn("live file unreadable, treating as empty", "path", path, "error", err)
		return document.New()
	}
	doc, err := document.Parse(string(data))
	if err != nil {
		e.logger.Warn("live file unparsable, treating as empty", "path", path, "error", err)
		return document.New()
	}
	return doc
}

// updatePointer mirrors the profile's three paths into the settings
// record. Runs only after a successful live-file write.
func (e *SyncEngine) updatePointer(p *model.Profile) error {
	update := model.SettingsUpdate{
		ConfigPath: &p.ConfigPath,
		BackupPath: &p.BackupPath,
		ClientPath: &p.ClientPath,
	}
	if err := e.store.UpdateSettings(update); err != nil {
		return &StoreError{Op: "update settings pointer", Err: err}
	}
	return nil
}

// Settings returns the current settings pointer.
func (e *SyncEngine) Settings() (*model.Settings, error) {
	settings, err := e.store.GetSettings()
	if err != nil {
		return nil, &StoreError{Op: "get settings", Err: err}
	}
	return settings, nil
}

// UpdateSettings applies a partial edit of the settings pointer, as
// from a settings form. Unset fields are preserved.
func (e *SyncEngine) UpdateSettings(u model.SettingsUpdate) error {
	if err := e.store.UpdateSettings(u); err != nil {
		return &StoreError{Op: "update settings", Err: err}
	}
	return nil
}
