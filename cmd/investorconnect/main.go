package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/bazuu/investorconnect/internal/accounts"
	"github.com/bazuu/investorconnect/internal/auth"
	"github.com/bazuu/investorconnect/internal/config"
	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/deploy"
	"github.com/bazuu/investorconnect/internal/logging"
	"github.com/bazuu/investorconnect/internal/notify"
)

func init() {
	cobra.EnablePrefixMatching = true
	version = resolveVersion(version)
}

// resolveVersion uses debug.ReadBuildInfo to replace "dev" with the actual
// module version when installed via `go install`.
var resolveVersion = func(v string) string {
	if v != "dev" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return v
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var osExit = os.Exit

func main() {
	if err := newRootCmd().Execute(); err != nil {
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "investorconnect",
		Short:        "Investor and job marketplace server",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "Path to config file [default: ~/.investorconnect/config.json]")
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newFixProfilesCmd())
	root.AddCommand(newCreateAdminCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newDockerfileCmd())
	root.AddCommand(newDaemonStartCmd())
	root.AddCommand(newDaemonStopCmd())
	root.AddCommand(newDaemonStatusCmd())
	root.AddCommand(newVersionCmd())
	root.SetHelpTemplate(helpTemplate)
	return root
}

const helpTemplate = `investorconnect - Investor pitches, job board and chat over a JSON API

Usage:
  investorconnect [command]

Available Commands:
  serve                    Start the API server and scheduler (alias: s)
    --addr                 Listen address [default: api_addr from config]
    --workers              Scheduler worker count [default: workers from config]
  migrate                  Apply database migrations
  fix-profiles             Create missing profiles and notification settings
  create-admin             Create a superuser account
    --username, --email    Account login (required)
    --password             Password [default: $INVESTORCONNECT_ADMIN_PASSWORD]
  init                     Write an example config to ~/.investorconnect/ (alias: setup)
    --force                Overwrite existing config
  dockerfile               Write Dockerfile and entrypoint.sh
    --dir                  Output directory; prints the Dockerfile when empty
  daemon:start             Install and start the server as a user service (aliases: d:start, up)
  daemon:stop              Stop and uninstall the user service (aliases: d:stop, down)
  daemon:status            Show the user service status (alias: d:status)
  version                  Print version information (alias: v)

Global Flags:
  --config                 Path to config file [default: ~/.investorconnect/config.json]

Use "investorconnect [command] --help" for more information about a command.
`

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "investorconnect %s\n", version)
			if commit != "none" {
				fmt.Fprintf(out, "  commit: %s\n", commit)
			}
			if date != "unknown" {
				fmt.Fprintf(out, "  built:  %s\n", date)
			}
		},
	}
}

// --- Shared testable vars ---

var (
	userHomeDir = os.UserHomeDir
	osStat      = os.Stat
	osMkdirAll  = os.MkdirAll
	osWriteFile = os.WriteFile
	osGetenv    = os.Getenv
)

var (
	configLoad = config.Load
	newSQLiteStore = func(path string) (db.Store, error) {
		return db.NewSQLiteStore(path)
	}
	newLogger = func(cfg *config.Config) *slog.Logger {
		return logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return configLoad(path)
}

// openStore loads the config and opens the database, which applies any
// pending migrations.
func openStore(cmd *cobra.Command) (*config.Config, db.Store, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)
	store, err := newSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return cfg, store, logger, nil
}

// offlineAccounts builds an accounts service for operator commands that
// never touch payments or uploads.
func offlineAccounts(cfg *config.Config, store db.Store, logger *slog.Logger) *accounts.Service {
	notifier := notify.NewNotifier(store, notify.NewMailer(cfg.SMTP, logger), logger)
	return accounts.NewService(store, nil, nil, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), notifier, logger)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Database at %s is up to date.\n", cfg.DBPath)
			return nil
		},
	}
}

func newFixProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix-profiles",
		Short: "Create missing profiles and notification settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store, logger, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := offlineAccounts(cfg, store, logger).FixProfiles(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Repaired %d users.\n", n)
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a superuser account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = osGetenv("INVESTORCONNECT_ADMIN_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("password is required: pass --password or set INVESTORCONNECT_ADMIN_PASSWORD")
			}

			cfg, store, logger, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			u, err := offlineAccounts(cfg, store, logger).CreateStaff(context.Background(), username, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d).\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().String("username", "", "Admin username")
	cmd.Flags().String("email", "", "Admin email")
	cmd.Flags().String("password", "", "Admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"setup"},
		Short:   "Write an example config to ~/.investorconnect/",
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			path, err := writeExampleConfig(force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nEdit jwt_secret and the mpesa section before running serve.\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite existing config")
	return cmd
}

func writeExampleConfig(force bool) (string, error) {
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	appDir := filepath.Join(home, ".investorconnect")
	configPath := filepath.Join(appDir, "config.json")

	if _, err := osStat(configPath); err == nil && !force {
		return "", fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
	}
	if err := osMkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := osWriteFile(configPath, config.ExampleConfig, 0600); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return configPath, nil
}

var writeDeployFiles = deploy.WriteFiles

func newDockerfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dockerfile",
		Short: "Write Dockerfile and entrypoint.sh",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return dockerfile(cmd.OutOrStdout(), dir)
		},
	}
	cmd.Flags().String("dir", "", "Output directory; prints the Dockerfile when empty")
	return cmd
}

func dockerfile(out io.Writer, dir string) error {
	if dir == "" {
		_, err := out.Write(deploy.Dockerfile)
		return err
	}
	paths, err := writeDeployFiles(dir)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(out, "Wrote %s\n", p)
	}
	return nil
}
