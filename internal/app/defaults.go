package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Defaults holds resolved default paths for the application.
type Defaults struct {
	ConfigPath       string // mcpswitch's own TOML config file
	BaseDir          string // base directory for data, logs, backups
	ClientConfigPath string // platform-conventional live MCP config file
}

// GetDefaults returns application default paths, checking environment
// variables first.
// Environment variables:
//   - MCPSWITCH_CONFIG_PATH: config file location (default: ~/.config/mcpswitch.toml)
//   - MCPSWITCH_HOME: base directory for mcpswitch data (default: ~/.local/share/mcpswitch)
func GetDefaults() (*Defaults, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	clientConfigPath, err := getClientConfigPath()
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath:       configPath,
		BaseDir:          baseDir,
		ClientConfigPath: clientConfigPath,
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("MCPSWITCH_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "mcpswitch.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("MCPSWITCH_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "mcpswitch"), nil
}

// getClientConfigPath returns where the MCP client conventionally keeps
// its configuration on this platform. This seeds the bootstrap
// "Default" profile; users point other profiles wherever they like.
func getClientConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "Claude", "claude_desktop_config.json"), nil
	default:
		return filepath.Join(homeDir, ".config", "Claude", "claude_desktop_config.json"), nil
	}
}
