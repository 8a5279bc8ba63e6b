package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// backupTimeFormat is the UTC second-resolution stamp embedded in
// backup file names.
const backupTimeFormat = "20060102T150405Z"

// maxBackupSuffix bounds the collision counter so a misbehaving caller
// cannot loop forever inside one second.
const maxBackupSuffix = 1000

// BackupManager creates timestamped, non-overwriting copies of a file
// before any destructive write. It is format-agnostic: content is
// copied byte for byte and never inspected.
type BackupManager struct {
	store      Store
	fsmgr      FilesystemManager
	clock      Clock
	defaultDir string
}

// NewBackupManager creates a BackupManager. defaultDir is used when the
// settings pointer has no backup directory recorded.
func NewBackupManager(store Store, fsmgr FilesystemManager, clock Clock, defaultDir string) *BackupManager {
	return &BackupManager{
		store:      store,
		fsmgr:      fsmgr,
		clock:      clock,
		defaultDir: defaultDir,
	}
}

// Backup copies the file at path into the active backup directory and
// returns the backup file's path. The name is
// <stem>_<UTC-timestamp-to-the-second><ext>; on a same-second collision
// a counter is appended (-1, -2, ...) so an existing backup is never
// overwritten and no backup is ever lost.
//
// Fails with *BackupError on any read or write failure. The underlying
// write is atomic, so a failed backup leaves no partial file behind.
func (m *BackupManager) Backup(path string) (string, error) {
	data, err := m.fsmgr.ReadFile(path)
	if err != nil {
		return "", &BackupError{Path: path, Err: err}
	}

	dir, err := m.resolveDir()
	if err != nil {
		return "", &BackupError{Path: path, Err: err}
	}
	if err := m.fsmgr.MkdirAll(dir); err != nil {
		return "", &BackupError{Path: path, Err: err}
	}

	dest, err := m.nextBackupPath(dir, path)
	if err != nil {
		return "", &BackupError{Path: path, Err: err}
	}

	if err := m.fsmgr.WriteFile(dest, data); err != nil {
		return "", &BackupError{Path: path, Err: err}
	}

	return dest, nil
}

// resolveDir returns the backup directory from the settings pointer,
// falling back to the configured default.
func (m *BackupManager) resolveDir() (string, error) {
	settings, err := m.store.GetSettings()
	if err != nil {
		return "", fmt.Errorf("reading settings: %w", err)
	}
	if settings.BackupPath != "" {
		return settings.BackupPath, nil
	}
	return m.defaultDir, nil
}

// nextBackupPath derives the first non-colliding backup file name for
// source inside dir.
func (m *BackupManager) nextBackupPath(dir, source string) (string, error) {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stamp := m.clock.Now().UTC().Format(backupTimeFormat)

	for i := 0; i < maxBackupSuffix; i++ {
		name := fmt.Sprintf("%s_%s%s", stem, stamp, ext)
		if i > 0 {
			name = fmt.Sprintf("%s_%s-%d%s", stem, stamp, i, ext)
		}
		dest := filepath.Join(dir, name)
		exists, err := m.fsmgr.Exists(dest)
		if err != nil {
			return "", fmt.Errorf("checking backup name: %w", err)
		}
		if !exists {
			return dest, nil
		}
	}
	return "", fmt.Errorf("no free backup name for %s at %s", base, stamp)
}
