package model

import "time"

// Profile is a named association between a live configuration file,
// a backup directory, and an optional companion client executable.
type Profile struct {
	ID         int64     // Store-assigned, monotonic
	Name       string    // Unique across all profiles
	ConfigPath string    // Absolute path to the live configuration file
	BackupPath string    // Directory backups are written to
	ClientPath string    // Optional path to the client executable ("" if unset)
	CreatedAt  time.Time // UTC, set by the store
	UpdatedAt  time.Time // UTC, set by the store
}

// Configuration is one immutable snapshot of a profile's configuration
// content. Snapshots form an append-only sequence per profile; the
// snapshot with the greatest (CreatedAt, ID) is "the" configuration.
type Configuration struct {
	ID        int64
	ProfileID int64
	Content   string // Raw JSON text
	CreatedAt time.Time
}

// Settings is the singleton record of the currently effective paths.
// It mirrors the most recently activated profile but is not tied to a
// profile ID, so profiles can be created and deleted independently.
type Settings struct {
	ConfigPath string
	BackupPath string
	ClientPath string
}

// SettingsUpdate is a partial update of Settings. Nil fields are left
// unchanged.
type SettingsUpdate struct {
	ConfigPath *string
	BackupPath *string
	ClientPath *string
}

// Operation is an audit record of one CLI invocation that mutated
// state. Status is "started" until finalized.
type Operation struct {
	ID         string // UUID
	Name       string // e.g. "SwitchProfile", "SaveConfiguration"
	Detail     string // Free-form parameters (profile name, path, ...)
	Status     string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// Operation status values.
const (
	OperationStarted = "started"
	OperationSuccess = "success"
	OperationFailed  = "failed"
)
