package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadWrite(t *testing.T) {
	cfg := NewConfig("/home/user/.local/share/mcpswitch", "/home/user/.config/Claude/claude_desktop_config.json")

	var buf bytes.Buffer
	m := &Manager{}
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != cfg.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, cfg.BaseDir)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", got.Database.Type)
	}
	if got.Defaults.ConfigPath != cfg.Defaults.ConfigPath {
		t.Errorf("Defaults.ConfigPath = %q, want %q", got.Defaults.ConfigPath, cfg.Defaults.ConfigPath)
	}
}

func TestReadInvalid(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("this is = not [valid toml")); err == nil {
		t.Error("Read() = nil, want error")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("/base", "/client.json")

	if cfg.LogDir != filepath.Join("/base", "log") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.Database.DataDir != filepath.Join("/base", "data") {
		t.Errorf("Database.DataDir = %q", cfg.Database.DataDir)
	}
	if cfg.Defaults.BackupDir != filepath.Join("/base", "backups") {
		t.Errorf("Defaults.BackupDir = %q", cfg.Defaults.BackupDir)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "mcpswitch.toml")
	cfg := NewConfig("/base", "/client.json")

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing: %v", err)
	}

	// A second init must refuse to clobber.
	if err := Init(path, cfg); err == nil {
		t.Error("second Init() = nil, want error")
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.BaseDir != "/base" {
		t.Errorf("BaseDir = %q, want /base", got.BaseDir)
	}
}
