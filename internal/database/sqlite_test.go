package database_test

import (
	"errors"
	"testing"
	"time"

	"mcpswitch-go/internal/engine"
	"mcpswitch-go/internal/model"
	"mcpswitch-go/internal/testutil"
)

func TestProfileCRUD(t *testing.T) {
	t.Run("create assigns monotonic ids and timestamps", func(t *testing.T) {
		clock := testutil.FixedClock()
		store := testutil.NewTestStore(t, clock)

		id1, err := store.CreateProfile("one", "/cfg/1.json", "/b", "")
		if err != nil {
			t.Fatalf("CreateProfile() error = %v", err)
		}
		id2, err := store.CreateProfile("two", "/cfg/2.json", "/b", "")
		if err != nil {
			t.Fatalf("CreateProfile() error = %v", err)
		}
		if id2 <= id1 {
			t.Errorf("ids not monotonic: %d then %d", id1, id2)
		}

		p, err := store.GetProfile(id1)
		if err != nil {
			t.Fatalf("GetProfile() error = %v", err)
		}
		if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
			t.Errorf("timestamps = %v / %v, want equal and set", p.CreatedAt, p.UpdatedAt)
		}
	})

	t.Run("duplicate name fails and leaves the count unchanged", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)

		if _, err := store.CreateProfile("dup", "/cfg/1.json", "/b", ""); err != nil {
			t.Fatalf("CreateProfile() error = %v", err)
		}
		_, err := store.CreateProfile("dup", "/cfg/2.json", "/b", "")
		var derr *engine.DuplicateNameError
		if !errors.As(err, &derr) {
			t.Fatalf("CreateProfile() error = %v, want DuplicateNameError", err)
		}
		if derr.Name != "dup" {
			t.Errorf("DuplicateNameError.Name = %q, want %q", derr.Name, "dup")
		}

		count, _ := store.CountProfiles()
		if count != 1 {
			t.Errorf("profile count = %d, want 1", count)
		}
	})

	t.Run("get missing profile returns nil", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		p, err := store.GetProfile(7)
		if err != nil {
			t.Fatalf("GetProfile() error = %v", err)
		}
		if p != nil {
			t.Errorf("GetProfile() = %+v, want nil", p)
		}
	})

	t.Run("list orders newest-created first", func(t *testing.T) {
		clock := testutil.FixedClock()
		store := testutil.NewTestStore(t, clock)

		store.CreateProfile("old", "/cfg/1.json", "/b", "")
		clock.Advance(time.Minute)
		store.CreateProfile("new", "/cfg/2.json", "/b", "")

		profiles, err := store.ListProfiles()
		if err != nil {
			t.Fatalf("ListProfiles() error = %v", err)
		}
		if len(profiles) != 2 || profiles[0].Name != "new" {
			t.Errorf("ListProfiles() first = %q, want %q", profiles[0].Name, "new")
		}
	})

	t.Run("update paths bumps updated_at only", func(t *testing.T) {
		clock := testutil.FixedClock()
		store := testutil.NewTestStore(t, clock)

		id, _ := store.CreateProfile("p", "/cfg/old.json", "/b", "")
		clock.Advance(time.Minute)
		if err := store.UpdateProfilePaths(id, "/cfg/new.json", "/b2", "/bin/c"); err != nil {
			t.Fatalf("UpdateProfilePaths() error = %v", err)
		}

		p, _ := store.GetProfile(id)
		if p.ConfigPath != "/cfg/new.json" || p.BackupPath != "/b2" || p.ClientPath != "/bin/c" {
			t.Errorf("paths not updated: %+v", p)
		}
		if !p.UpdatedAt.After(p.CreatedAt) {
			t.Error("updated_at was not bumped")
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		id, _ := store.CreateProfile("p", "/cfg/1.json", "/b", "")

		if err := store.DeleteProfile(id); err != nil {
			t.Fatalf("DeleteProfile() error = %v", err)
		}
		if err := store.DeleteProfile(id); err != nil {
			t.Errorf("second DeleteProfile() error = %v, want nil", err)
		}
	})
}

func TestConfigurationHistory(t *testing.T) {
	t.Run("latest wins by created_at then id", func(t *testing.T) {
		clock := testutil.FixedClock()
		store := testutil.NewTestStore(t, clock)
		id, _ := store.CreateProfile("p", "/cfg/1.json", "/b", "")

		// Two appends within the same second: insertion order decides.
		store.SaveConfiguration(id, "first")
		store.SaveConfiguration(id, "second")
		clock.Advance(time.Second)
		store.SaveConfiguration(id, "third")

		latest, err := store.GetLatestConfiguration(id)
		if err != nil {
			t.Fatalf("GetLatestConfiguration() error = %v", err)
		}
		if latest.Content != "third" {
			t.Errorf("latest = %q, want %q", latest.Content, "third")
		}

		configs, _ := store.ListConfigurations(id, 0)
		if len(configs) != 3 {
			t.Fatalf("snapshot count = %d, want 3", len(configs))
		}
		if configs[0].Content != "third" || configs[1].Content != "second" {
			t.Errorf("order = [%q, %q, %q], want newest first", configs[0].Content, configs[1].Content, configs[2].Content)
		}
	})

	t.Run("no snapshots returns nil", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		id, _ := store.CreateProfile("p", "/cfg/1.json", "/b", "")

		latest, err := store.GetLatestConfiguration(id)
		if err != nil {
			t.Fatalf("GetLatestConfiguration() error = %v", err)
		}
		if latest != nil {
			t.Errorf("latest = %+v, want nil", latest)
		}
	})

	t.Run("limit caps the listing", func(t *testing.T) {
		clock := testutil.FixedClock()
		store := testutil.NewTestStore(t, clock)
		id, _ := store.CreateProfile("p", "/cfg/1.json", "/b", "")
		for i := 0; i < 5; i++ {
			store.SaveConfiguration(id, "v")
			clock.Advance(time.Second)
		}

		configs, err := store.ListConfigurations(id, 2)
		if err != nil {
			t.Fatalf("ListConfigurations() error = %v", err)
		}
		if len(configs) != 2 {
			t.Errorf("snapshot count = %d, want 2", len(configs))
		}
	})

	t.Run("deleting a profile cascades to snapshots", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		id, _ := store.CreateProfile("p", "/cfg/1.json", "/b", "")
		store.SaveConfiguration(id, "v1")
		store.SaveConfiguration(id, "v2")

		if err := store.DeleteProfile(id); err != nil {
			t.Fatalf("DeleteProfile() error = %v", err)
		}

		latest, err := store.GetLatestConfiguration(id)
		if err != nil {
			t.Fatalf("GetLatestConfiguration() error = %v", err)
		}
		if latest != nil {
			t.Errorf("latest = %+v, want nil after delete", latest)
		}
	})
}

func TestSettings(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		settings, err := store.GetSettings()
		if err != nil {
			t.Fatalf("GetSettings() error = %v", err)
		}
		if settings.ConfigPath != "" || settings.BackupPath != "" || settings.ClientPath != "" {
			t.Errorf("settings = %+v, want empty", settings)
		}
	})

	t.Run("partial update preserves unset fields", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		cfg, backup := "/cfg/live.json", "/backups"
		if err := store.UpdateSettings(model.SettingsUpdate{ConfigPath: &cfg, BackupPath: &backup}); err != nil {
			t.Fatalf("UpdateSettings() error = %v", err)
		}

		client := "/bin/client"
		if err := store.UpdateSettings(model.SettingsUpdate{ClientPath: &client}); err != nil {
			t.Fatalf("UpdateSettings() error = %v", err)
		}

		settings, _ := store.GetSettings()
		if settings.ConfigPath != cfg || settings.BackupPath != backup || settings.ClientPath != client {
			t.Errorf("settings = %+v, want all three paths", settings)
		}
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		if err := store.UpdateSettings(model.SettingsUpdate{}); err != nil {
			t.Errorf("UpdateSettings() error = %v", err)
		}
	})
}

func TestOperations(t *testing.T) {
	t.Run("create and finish", func(t *testing.T) {
		clock := testutil.FixedClock()
		store := testutil.NewTestStore(t, clock)

		op := &model.Operation{
			ID:        "op-1",
			Name:      "SwitchProfile",
			Detail:    "work",
			Status:    model.OperationStarted,
			CreatedAt: clock.Now(),
		}
		if err := store.CreateOperation(op); err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}

		clock.Advance(time.Second)
		if err := store.FinishOperation("op-1", model.OperationSuccess); err != nil {
			t.Fatalf("FinishOperation() error = %v", err)
		}

		ops, err := store.ListOperations(10)
		if err != nil {
			t.Fatalf("ListOperations() error = %v", err)
		}
		if len(ops) != 1 {
			t.Fatalf("operation count = %d, want 1", len(ops))
		}
		if ops[0].Status != model.OperationSuccess {
			t.Errorf("status = %q, want %q", ops[0].Status, model.OperationSuccess)
		}
		if ops[0].FinishedAt == nil {
			t.Error("finished_at not set")
		}
	})

	t.Run("list orders newest first", func(t *testing.T) {
		clock := testutil.FixedClock()
		store := testutil.NewTestStore(t, clock)

		store.CreateOperation(&model.Operation{ID: "a", Name: "X", Status: model.OperationStarted, CreatedAt: clock.Now()})
		clock.Advance(time.Second)
		store.CreateOperation(&model.Operation{ID: "b", Name: "Y", Status: model.OperationStarted, CreatedAt: clock.Now()})

		ops, _ := store.ListOperations(10)
		if len(ops) != 2 || ops[0].ID != "b" {
			t.Errorf("ListOperations() first = %q, want %q", ops[0].ID, "b")
		}
	})
}

func TestFindProfilesByConfigPath(t *testing.T) {
	clock := testutil.FixedClock()
	store := testutil.NewTestStore(t, clock)

	a, _ := store.CreateProfile("a", "/cfg/shared.json", "/b", "")
	clock.Advance(time.Minute)
	b, _ := store.CreateProfile("b", "/cfg/shared.json", "/b", "")
	store.CreateProfile("c", "/cfg/other.json", "/b", "")

	profiles, err := store.FindProfilesByConfigPath("/cfg/shared.json")
	if err != nil {
		t.Fatalf("FindProfilesByConfigPath() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("match count = %d, want 2", len(profiles))
	}
	if profiles[0].ID != b || profiles[1].ID != a {
		t.Error("matches not ordered most recently updated first")
	}
}
