package app

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("MCPSWITCH_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("MCPSWITCH_HOME", "/custom/home")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if d.ConfigPath != "/custom/config.toml" {
			t.Errorf("ConfigPath = %q, want /custom/config.toml", d.ConfigPath)
		}
		if d.BaseDir != "/custom/home" {
			t.Errorf("BaseDir = %q, want /custom/home", d.BaseDir)
		}
	})

	t.Run("home-relative fallbacks", func(t *testing.T) {
		t.Setenv("MCPSWITCH_CONFIG_PATH", "")
		t.Setenv("MCPSWITCH_HOME", "")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if !strings.HasSuffix(d.ConfigPath, filepath.Join(".config", "mcpswitch.toml")) {
			t.Errorf("ConfigPath = %q", d.ConfigPath)
		}
		if !strings.HasSuffix(d.BaseDir, filepath.Join(".local", "share", "mcpswitch")) {
			t.Errorf("BaseDir = %q", d.BaseDir)
		}
		if filepath.Base(d.ClientConfigPath) != "claude_desktop_config.json" {
			t.Errorf("ClientConfigPath = %q", d.ClientConfigPath)
		}
	})
}
