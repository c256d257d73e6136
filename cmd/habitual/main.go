package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/backups"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/settings"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/cli/users"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/utils"
)

var CLI struct {
	Version      kong.VersionFlag
	Config       string `help:"Database file path or PostgreSQL connection string. Falls back to HABITUAL_DB_CONNECTION, the server config, the OS keyring, then ~/.config/habitual/habitual.db. PostgreSQL credentials must NOT be embedded in the connection string."`
	User         string `help:"User whose habits and settings commands operate on." default:"default" env:"HABITUAL_USER"`
	ServerConfig string `help:"Path to the YAML config used by serve and notify." default:"~/.config/habitual/server.yaml" type:"path"`
	Debug        bool   `help:"Enable debug logging to stderr."`

	Init     system.InitCmd       `cmd:"" help:"Initialize habitual storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Serve    system.ServeCmd      `cmd:"" help:"Serve the HTTP API and run the reminder scheduler."`
	Notify   system.NotifyCmd     `cmd:"" help:"Send due reminders once (for cron)."`
	Secrets  system.ConfigCmd     `cmd:"" name:"config" help:"Manage secrets in the OS keyring."`
	Habit    habits.HabitCmd      `cmd:"" help:"Manage habits and completions."`
	Users    users.UserCmd        `cmd:"" name:"user" help:"Manage users, device tokens and API tokens."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage per-user period settings."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with period progress, buffers and reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	command := ctx.Command()
	source, fromKeyring, err := resolveDatabase()
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}

	store, err := openStore(source, fromKeyring)
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}

	configDir := filepath.Dir(CLI.ServerConfig)
	if _, ok := store.(*sqlite.Store); ok {
		configDir = filepath.Dir(source)
	}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir,
		Console:   strings.HasPrefix(command, "serve"),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("Starting command", "command", command, "user", CLI.User)

	appCtx := &cli.Context{
		Store:            store,
		UserID:           CLI.User,
		ServerConfigPath: CLI.ServerConfig,
	}

	// init, doctor and the keyring commands load the store themselves or not at all
	if needsLoadedStore(command) {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	if cerr := store.Close(); cerr != nil {
		logger.Warn("Failed to close database", "error", cerr)
	}
	apperrors.Fatal(err)
}

func needsLoadedStore(command string) bool {
	for _, prefix := range []string{"init", "doctor", "config"} {
		if strings.HasPrefix(command, prefix) {
			return false
		}
	}
	return true
}

// resolveDatabase picks the database in order of precedence: --config,
// HABITUAL_DB_CONNECTION or db_connection from the server config, the OS
// keyring, then the default SQLite path. fromKeyring reports whether the
// source came from the keyring.
func resolveDatabase() (source string, fromKeyring bool, err error) {
	if CLI.Config != "" {
		source, err = utils.ExpandHome(CLI.Config)
		return source, false, err
	}

	cfg, err := config.Load(CLI.ServerConfig, false)
	if err != nil {
		return "", false, err
	}
	if cfg.DBConnection != "" {
		source, err = utils.ExpandHome(cfg.DBConnection)
		return source, false, err
	}

	connStr, err := keyring.GetConnectionString()
	switch {
	case err == nil:
		return connStr, true, nil
	case !errors.Is(err, keyring.ErrNotFound) && !errors.Is(err, keyring.ErrKeyringUnavailable):
		return "", false, err
	}

	source, err = utils.ExpandHome(constants.DefaultConfigPath)
	return source, false, err
}

// openStore selects the backend. Credentials embedded in a connection
// string are only accepted from the encrypted keyring.
func openStore(source string, fromKeyring bool) (storage.Provider, error) {
	if !postgres.IsConnString(source) {
		return sqlite.NewStore(source), nil
	}

	if _, err := postgres.ValidateConnString(source); err != nil {
		if errors.Is(err, postgres.ErrEmbeddedCredentials) && fromKeyring {
			return postgres.New(source), nil
		}
		return nil, err
	}
	return postgres.New(source), nil
}
