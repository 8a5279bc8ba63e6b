// Package fs provides the OS-backed implementation of the engine's
// filesystem interface.
package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"mcpswitch-go/internal/engine"
)

// OSFilesystemManager performs real filesystem I/O. Writes go through a
// temp file in the destination directory followed by a rename, so a
// concurrent reader never observes a partial write on filesystems with
// atomic rename.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates an OSFilesystemManager.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Exists reports whether a regular file exists at path.
func (m *OSFilesystemManager) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("path is a directory: %s", path)
	}
	return true, nil
}

// ReadFile reads the entire file at path.
func (m *OSFilesystemManager) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// WriteFile atomically writes data to path, creating parent directories
// as needed.
func (m *OSFilesystemManager) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Temp file in the same directory so the rename stays on one
	// filesystem and is atomic.
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// MkdirAll creates a directory and any missing parents.
func (m *OSFilesystemManager) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

// Compile-time check that OSFilesystemManager implements the interface.
var _ engine.FilesystemManager = (*OSFilesystemManager)(nil)
