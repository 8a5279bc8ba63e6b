package engine

// FilesystemManager provides the file operations the engine performs on
// live configuration files and backups. It abstracts file access to
// enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)

	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to path, creating parent directories as
	// needed. The write must be atomic: a concurrent reader observes
	// either the old content or the new content, never a partial write.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error
}
