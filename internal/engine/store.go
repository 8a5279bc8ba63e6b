package engine

import "mcpswitch-go/internal/model"

// Store provides durable storage for profiles, their append-only
// configuration snapshots, the singleton settings record, and the
// operation audit log. All methods must serialize writes sufficiently
// that snapshot append order matches call order for a single profile.
type Store interface {
	// Profile operations

	// CreateProfile inserts a new profile and returns its assigned ID.
	// Returns *DuplicateNameError if the name is already taken.
	CreateProfile(name, configPath, backupPath, clientPath string) (int64, error)

	// GetProfile returns a profile by ID, or nil if it does not exist.
	GetProfile(id int64) (*model.Profile, error)

	// GetProfileByName returns a profile by name, or nil if it does not exist.
	GetProfileByName(name string) (*model.Profile, error)

	// ListProfiles returns all profiles, newest-created first.
	ListProfiles() ([]*model.Profile, error)

	// FindProfilesByConfigPath returns profiles whose config path equals
	// the given path, most recently updated first.
	FindProfilesByConfigPath(configPath string) ([]*model.Profile, error)

	// CountProfiles returns the number of profiles in the store.
	CountProfiles() (int64, error)

	// DeleteProfile removes a profile and all of its snapshots.
	// Deleting a nonexistent profile is a no-op.
	DeleteProfile(id int64) error

	// UpdateProfilePaths updates the three path fields and the
	// updated_at timestamp. Snapshots are untouched.
	UpdateProfilePaths(id int64, configPath, backupPath, clientPath string) error

	// Configuration snapshot operations

	// SaveConfiguration appends a new snapshot for a profile. Content is
	// stored as given; validation is the caller's responsibility.
	SaveConfiguration(profileID int64, content string) (int64, error)

	// GetLatestConfiguration returns the snapshot with the greatest
	// (created_at, id) for a profile, or nil if there are none.
	GetLatestConfiguration(profileID int64) (*model.Configuration, error)

	// ListConfigurations returns up to limit snapshots for a profile,
	// newest first. limit <= 0 means no limit.
	ListConfigurations(profileID int64, limit int) ([]*model.Configuration, error)

	// Settings pointer operations

	// GetSettings returns the singleton settings record. All paths are
	// empty until the first update.
	GetSettings() (*model.Settings, error)

	// UpdateSettings applies a partial update; nil fields are preserved.
	UpdateSettings(u model.SettingsUpdate) error

	// Operation audit log

	// CreateOperation records the start of a mutating operation.
	CreateOperation(op *model.Operation) error

	// FinishOperation finalizes an operation record with a status.
	FinishOperation(id string, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*model.Operation, error)

	// Close closes the store.
	Close() error
}
