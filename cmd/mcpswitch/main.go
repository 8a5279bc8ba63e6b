package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcpswitch-go/internal/app"
	"mcpswitch-go/internal/config"
	"mcpswitch-go/internal/model"
	"mcpswitch-go/internal/watch"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "SwitchProfile").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config (run 'mcpswitch init' first): %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "mcpswitch",
	Short: "Switch between named MCP client configuration profiles",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir, defaults.ClientConfigPath)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:    %s\n", defaults.BaseDir)
		fmt.Printf("Live Config: %s\n", defaults.ClientConfigPath)
		return nil
	},
}

// profile commands
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config-path")
		backupDir, _ := cmd.Flags().GetString("backup-dir")
		clientPath, _ := cmd.Flags().GetString("client-path")

		a, err := newApp("CreateProfile")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.CreateProfile(args[0], configPath, backupDir, clientPath)
		if err != nil {
			a.Fail()
			return fmt.Errorf("creating profile: %w", err)
		}

		fmt.Printf("Created profile %q (#%d)\n", p.Name, p.ID)
		fmt.Printf("  config: %s\n", p.ConfigPath)
		fmt.Printf("  backup: %s\n", p.BackupPath)
		if p.ClientPath != "" {
			fmt.Printf("  client: %s\n", p.ClientPath)
		}
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListProfiles")
		if err != nil {
			return err
		}
		defer a.Close()

		profiles, err := a.ListProfiles()
		if err != nil {
			return err
		}
		active, err := a.ActiveProfile()
		if err != nil {
			return err
		}

		if len(profiles) == 0 {
			fmt.Println("No profiles.")
			return nil
		}

		for _, p := range profiles {
			marker := " "
			if active != nil && p.ID == active.ID {
				marker = "*"
			}
			fmt.Printf("%s #%-3d %-20s %s\n", marker, p.ID, p.Name, p.ConfigPath)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "View profile details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetProfile")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.GetProfile(args[0])
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("no profile named %q", args[0])
		}

		fmt.Printf("Profile #%d %q\n", p.ID, p.Name)
		fmt.Printf("  config:  %s\n", p.ConfigPath)
		fmt.Printf("  backup:  %s\n", p.BackupPath)
		if p.ClientPath != "" {
			fmt.Printf("  client:  %s\n", p.ClientPath)
		}
		fmt.Printf("  created: %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var profileSwitchCmd = &cobra.Command{
	Use:   "switch NAME",
	Short: "Activate a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SwitchProfile")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.SwitchProfile(args[0])
		if err != nil {
			a.Fail()
			return fmt.Errorf("switching profile: %w", err)
		}

		fmt.Printf("Switched to %q (%d server(s))\n", res.Profile.Name, len(res.Document.Servers))
		if res.BackupPath != "" {
			fmt.Printf("Previous file backed up to %s\n", res.BackupPath)
		}
		if res.Merged {
			fmt.Println("Stored configuration was empty; kept the live server list.")
		}
		if res.Warning != nil {
			fmt.Printf("Warning: %v\n", res.Warning)
		}
		return nil
	},
}

var profileRemixCmd = &cobra.Command{
	Use:   "remix SOURCE NEW_NAME",
	Short: "Clone a profile under a new name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RemixProfile")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.RemixProfile(args[0], args[1])
		if err != nil {
			a.Fail()
			return fmt.Errorf("remixing profile: %w", err)
		}

		fmt.Printf("Created profile %q (#%d) from %q\n", p.Name, p.ID, args[0])
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a profile and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if !force {
			var confirmed bool
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Delete profile %q and all of its snapshots?", args[0])).
				Value(&confirmed)
			if err := prompt.Run(); err != nil {
				return fmt.Errorf("reading confirmation: %w", err)
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a, err := newApp("DeleteProfile")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteProfile(args[0]); err != nil {
			a.Fail()
			return fmt.Errorf("deleting profile: %w", err)
		}

		fmt.Printf("Deleted profile %q\n", args[0])
		return nil
	},
}

var profileSetPathsCmd = &cobra.Command{
	Use:   "set-paths NAME",
	Short: "Update a profile's paths",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config-path")
		backupDir, _ := cmd.Flags().GetString("backup-dir")
		clientPath, _ := cmd.Flags().GetString("client-path")

		if configPath == "" && backupDir == "" && clientPath == "" {
			return fmt.Errorf("nothing to update, pass at least one path flag")
		}

		a, err := newApp("SetProfilePaths")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetProfilePaths(args[0], configPath, backupDir, clientPath); err != nil {
			a.Fail()
			return fmt.Errorf("updating paths: %w", err)
		}

		fmt.Printf("Updated paths for %q\n", args[0])
		return nil
	},
}

// config commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration content",
}

var configShowCmd = &cobra.Command{
	Use:   "show [PROFILE]",
	Short: "Print a profile's latest configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ShowConfiguration")
		if err != nil {
			return err
		}
		defer a.Close()

		ref, err := profileRef(a, args)
		if err != nil {
			return err
		}

		latest, err := a.LatestConfiguration(ref)
		if err != nil {
			return err
		}
		if latest == nil {
			fmt.Println("No configuration recorded.")
			return nil
		}

		fmt.Print(latest.Content)
		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save [FILE]",
	Short: "Validate configuration text and write it to the live file",
	Long: "Reads configuration JSON from FILE (or stdin), validates it, backs up\n" +
		"the current live file, writes the text verbatim, and versions it under\n" +
		"the owning profile.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetPath, _ := cmd.Flags().GetString("path")

		var data []byte
		var err error
		if len(args) > 0 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		a, err := newApp("SaveConfiguration")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.SaveConfiguration(string(data), targetPath)
		if err != nil {
			a.Fail()
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Println("Configuration saved.")
		if res.BackupPath != "" {
			fmt.Printf("Previous file backed up to %s\n", res.BackupPath)
		}
		if res.Warning != nil {
			fmt.Printf("Warning: %v\n", res.Warning)
		}
		return nil
	},
}

var configHistoryCmd = &cobra.Command{
	Use:   "history [PROFILE]",
	Short: "View a profile's snapshot history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("ConfigurationHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ref, err := profileRef(a, args)
		if err != nil {
			return err
		}

		configs, err := a.ConfigurationHistory(ref, limit)
		if err != nil {
			return err
		}
		if len(configs) == 0 {
			fmt.Println("No snapshots recorded.")
			return nil
		}

		for _, c := range configs {
			fmt.Printf("#%-4d %s  %d byte(s)\n", c.ID, c.CreatedAt.Format("2006-01-02 15:04:05"), len(c.Content))
		}
		return nil
	},
}

// settings commands
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the current-settings pointer",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "View the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ShowSettings")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Settings()
		if err != nil {
			return err
		}

		fmt.Printf("config: %s\n", orUnset(s.ConfigPath))
		fmt.Printf("backup: %s\n", orUnset(s.BackupPath))
		fmt.Printf("client: %s\n", orUnset(s.ClientPath))

		active, err := a.ActiveProfile()
		if err != nil {
			return err
		}
		if active != nil {
			fmt.Printf("active profile: %q (#%d)\n", active.Name, active.ID)
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Edit the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		var update model.SettingsUpdate
		if cmd.Flags().Changed("config-path") {
			v, _ := cmd.Flags().GetString("config-path")
			update.ConfigPath = &v
		}
		if cmd.Flags().Changed("backup-dir") {
			v, _ := cmd.Flags().GetString("backup-dir")
			update.BackupPath = &v
		}
		if cmd.Flags().Changed("client-path") {
			v, _ := cmd.Flags().GetString("client-path")
			update.ClientPath = &v
		}
		if update.ConfigPath == nil && update.BackupPath == nil && update.ClientPath == nil {
			return fmt.Errorf("nothing to update, pass at least one path flag")
		}

		a, err := newApp("UpdateSettings")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UpdateSettings(update); err != nil {
			a.Fail()
			return fmt.Errorf("updating settings: %w", err)
		}

		fmt.Println("Settings updated.")
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.Operations(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.CreatedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%-20s %s  %-8s %-30s %s\n",
				op.Name,
				op.CreatedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				op.Detail,
				duration,
			)
		}
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch [PROFILE]",
	Short: "Version live-file edits as they happen",
	Long: "Watches the profile's live configuration file and appends a snapshot\n" +
		"whenever an outside edit settles on new, valid content. Runs until\n" +
		"interrupted.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")

		a, err := newApp("WatchProfile")
		if err != nil {
			return err
		}
		defer a.Close()

		ref, err := profileRef(a, args)
		if err != nil {
			return err
		}
		p, err := a.GetProfile(ref)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("no profile named %q", ref)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s (profile %q). Ctrl-C to stop.\n", p.ConfigPath, p.Name)
		w := watch.New(a.Engine(), a.Logger(), debounce)
		return w.Run(ctx, p)
	},
}

// profileRef resolves the profile argument, falling back to the active
// profile when omitted.
func profileRef(a *app.App, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	active, err := a.ActiveProfile()
	if err != nil {
		return "", err
	}
	if active == nil {
		return "", fmt.Errorf("no active profile, pass a profile name")
	}
	return active.Name, nil
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func init() {
	// profile subcommands
	profileCmd.AddCommand(profileCreateCmd)
	profileCreateCmd.Flags().String("config-path", "", "Live configuration file (default from config)")
	profileCreateCmd.Flags().String("backup-dir", "", "Backup directory (default from config)")
	profileCreateCmd.Flags().String("client-path", "", "Client executable path")
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSwitchCmd)
	profileCmd.AddCommand(profileRemixCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileDeleteCmd.Flags().BoolP("force", "f", false, "Skip confirmation")
	profileCmd.AddCommand(profileSetPathsCmd)
	profileSetPathsCmd.Flags().String("config-path", "", "Live configuration file")
	profileSetPathsCmd.Flags().String("backup-dir", "", "Backup directory")
	profileSetPathsCmd.Flags().String("client-path", "", "Client executable path")

	// config subcommands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configSaveCmd.Flags().String("path", "", "Target file (default: current settings config path)")
	configCmd.AddCommand(configHistoryCmd)
	configHistoryCmd.Flags().IntP("limit", "n", 20, "Maximum number of snapshots to show")

	// settings subcommands
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsSetCmd.Flags().String("config-path", "", "Live configuration file")
	settingsSetCmd.Flags().String("backup-dir", "", "Backup directory")
	settingsSetCmd.Flags().String("client-path", "", "Client executable path")

	// root commands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Settle delay before versioning an edit")
}
