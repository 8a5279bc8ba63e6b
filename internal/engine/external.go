package engine

import "mcpswitch-go/internal/document"

// SyncConfigFromDisk appends the profile's live file content to its
// snapshot history when it differs from the latest snapshot. It is the
// recovery path for edits made behind the engine's back (an editor, the
// client itself); the live file is read, never written.
//
// Returns true when a new snapshot was appended. Fails with
// *ValidationError when the live file does not parse as a strict
// configuration document — an external writer producing garbage is
// surfaced, not silently versioned.
func (e *SyncEngine) SyncConfigFromDisk(profileID int64) (bool, error) {
	profile, err := e.store.GetProfile(profileID)
	if err != nil {
		return false, &StoreError{Op: "get profile", Err: err}
	}
	if profile == nil {
		return false, &ProfileNotFoundError{ID: profileID}
	}

	unlock := e.locks.acquire(profile.ConfigPath)
	defer unlock()

	exists, err := e.fsmgr.Exists(profile.ConfigPath)
	if err != nil {
		return false, &WriteError{Path: profile.ConfigPath, Err: err}
	}
	if !exists {
		return false, nil
	}

	data, err := e.fsmgr.ReadFile(profile.ConfigPath)
	if err != nil {
		return false, &WriteError{Path: profile.ConfigPath, Err: err}
	}
	text := string(data)

	doc, err := document.Parse(text)
	if err != nil {
		return false, &ValidationError{Reason: "live file does not parse", Err: err}
	}
	if doc.Normalized {
		return false, &ValidationError{Reason: "live file is missing the mcpServers object"}
	}

	latest, err := e.store.GetLatestConfiguration(profileID)
	if err != nil {
		return false, &StoreError{Op: "get latest configuration", Err: err}
	}
	if latest != nil && latest.Content == text {
		return false, nil
	}

	if _, err := e.store.SaveConfiguration(profileID, text); err != nil {
		return false, &StoreError{Op: "append snapshot from disk", Err: err}
	}

	e.logger.Info("external edit versioned", "profile", profile.Name, "servers", len(doc.Servers))
	return true, nil
}
