package engine

import "fmt"

// ProfileNotFoundError reports an operation against a profile ID that
// does not exist in the store.
type ProfileNotFoundError struct {
	ID int64
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile %d not found", e.ID)
}

// DuplicateNameError reports a profile name collision.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("profile name already exists: %s", e.Name)
}

// NoConfigurationError reports a profile that has never been given a
// configuration snapshot.
type NoConfigurationError struct {
	ProfileID int64
}

func (e *NoConfigurationError) Error() string {
	return fmt.Sprintf("profile %d has no configuration", e.ProfileID)
}

// CorruptConfigurationError reports a stored snapshot that no longer
// parses as a configuration document. This is a store-integrity problem
// and is never silently replaced with an empty document.
type CorruptConfigurationError struct {
	ProfileID int64
	Err       error
}

func (e *CorruptConfigurationError) Error() string {
	return fmt.Sprintf("stored configuration for profile %d is corrupt: %v", e.ProfileID, e.Err)
}

func (e *CorruptConfigurationError) Unwrap() error { return e.Err }

// ValidationError reports raw text rejected by the save entry point.
// Unlike a profile switch, saving raw text does not normalize a missing
// server map; the author must see the problem immediately.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BackupError reports a failed backup. A failed backup always aborts
// the surrounding write operation.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backing up %s: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// WriteError reports a failed write of the live configuration file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// StoreError reports a failure in the underlying persistence layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
