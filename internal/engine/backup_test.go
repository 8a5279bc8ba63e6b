package engine_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mcpswitch-go/internal/engine"
	"mcpswitch-go/internal/model"
)

func newBackupManager(t *testing.T) (*engine.BackupManager, *fixture) {
	t.Helper()
	f := setup(t)
	return engine.NewBackupManager(f.store, f.fsmgr, f.clock, defaultBackupDir), f
}

func TestBackupManager_Backup(t *testing.T) {
	t.Run("creates a byte-identical copy", func(t *testing.T) {
		mgr, f := newBackupManager(t)
		f.fsmgr.AddFile("/cfg/live.json", []byte(serverAConfig))

		dest, err := mgr.Backup("/cfg/live.json")
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}

		data, ok := f.fsmgr.File(dest)
		if !ok {
			t.Fatal("backup file does not exist")
		}
		if string(data) != serverAConfig {
			t.Error("backup content differs from source")
		}
	})

	t.Run("names the backup stem_timestamp.ext", func(t *testing.T) {
		mgr, f := newBackupManager(t)
		f.fsmgr.AddFile("/cfg/live.json", []byte(serverAConfig))

		dest, err := mgr.Backup("/cfg/live.json")
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}

		// FixedClock is 2025-03-10 09:15:00 UTC.
		want := filepath.Join(defaultBackupDir, "live_20250310T091500Z.json")
		if dest != want {
			t.Errorf("backup path = %q, want %q", dest, want)
		}
	})

	t.Run("uses the settings pointer backup directory", func(t *testing.T) {
		mgr, f := newBackupManager(t)
		f.fsmgr.AddFile("/cfg/live.json", []byte(serverAConfig))
		dir := "/custom/backups"
		if err := f.store.UpdateSettings(model.SettingsUpdate{BackupPath: &dir}); err != nil {
			t.Fatalf("UpdateSettings() error = %v", err)
		}

		dest, err := mgr.Backup("/cfg/live.json")
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		if !strings.HasPrefix(dest, dir+string(filepath.Separator)) {
			t.Errorf("backup path = %q, want inside %q", dest, dir)
		}
	})

	t.Run("same-second collision appends a counter", func(t *testing.T) {
		mgr, f := newBackupManager(t)
		f.fsmgr.AddFile("/cfg/live.json", []byte(serverAConfig))

		first, err := mgr.Backup("/cfg/live.json")
		if err != nil {
			t.Fatalf("first Backup() error = %v", err)
		}

		f.fsmgr.AddFile("/cfg/live.json", []byte(serverBConfig))
		second, err := mgr.Backup("/cfg/live.json")
		if err != nil {
			t.Fatalf("second Backup() error = %v", err)
		}

		if first == second {
			t.Fatal("second backup reused the first backup's name")
		}
		if !strings.Contains(second, "-1") {
			t.Errorf("second backup path = %q, want a -1 counter", second)
		}
		firstData, _ := f.fsmgr.File(first)
		if string(firstData) != serverAConfig {
			t.Error("first backup was overwritten")
		}
	})

	t.Run("distinct seconds produce distinct names", func(t *testing.T) {
		mgr, f := newBackupManager(t)
		f.fsmgr.AddFile("/cfg/live.json", []byte(serverAConfig))

		first, err := mgr.Backup("/cfg/live.json")
		if err != nil {
			t.Fatalf("first Backup() error = %v", err)
		}
		f.clock.Advance(time.Second)
		second, err := mgr.Backup("/cfg/live.json")
		if err != nil {
			t.Fatalf("second Backup() error = %v", err)
		}

		if first == second {
			t.Error("backups in distinct seconds share a name")
		}
		if strings.Contains(second, "-1") {
			t.Errorf("second backup path = %q, want no counter", second)
		}
	})

	t.Run("missing source fails", func(t *testing.T) {
		mgr, _ := newBackupManager(t)

		_, err := mgr.Backup("/cfg/absent.json")
		var berr *engine.BackupError
		if !errors.As(err, &berr) {
			t.Errorf("Backup() error = %v, want BackupError", err)
		}
	})

	t.Run("write failure fails", func(t *testing.T) {
		mgr, f := newBackupManager(t)
		f.fsmgr.AddFile("/cfg/live.json", []byte(serverAConfig))
		f.fsmgr.WriteErr = errors.New("disk full")

		_, err := mgr.Backup("/cfg/live.json")
		var berr *engine.BackupError
		if !errors.As(err, &berr) {
			t.Errorf("Backup() error = %v, want BackupError", err)
		}
	})
}
