package main

import (
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/cli/backups"
	"github.com/julianstephens/habithero/internal/cli/challenges"
	"github.com/julianstephens/habithero/internal/cli/habits"
	"github.com/julianstephens/habithero/internal/cli/session"
	"github.com/julianstephens/habithero/internal/cli/system"
	"github.com/julianstephens/habithero/internal/config"
	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/errors"
	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Database file path or PostgreSQL connection string. Overrides the settings file." type:"string"`
	Settings string `help:"Settings file path." type:"path" default:"${settings}"`
	Verbose  bool   `help:"Log debug output to stderr." short:"v"`

	Init    system.InitCmd    `cmd:"" help:"Initialize habithero storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Serve   system.ServeCmd   `cmd:"" help:"Serve the habit API over HTTP."`
	Debug   system.DebugCmd   `cmd:"" help:"Debug commands for troubleshooting."`

	Login  session.LoginCmd  `cmd:"" help:"Sign in as a user."`
	Logout session.LogoutCmd `cmd:"" help:"Sign out."`
	Whoami session.WhoamiCmd `cmd:"" help:"Show the signed-in user."`
	Token  session.TokenCmd  `cmd:"" help:"Issue an API token for the signed-in user."`

	Habit      habits.HabitCmd         `cmd:"" help:"Manage habits and habit tracking."`
	Categories habits.CategoriesCmd    `cmd:"" help:"Show the habit category catalog."`
	Stats      habits.StatsCmd         `cmd:"" help:"Show statistics and badges."`
	Challenge  challenges.ChallengeCmd `cmd:"" help:"Join and track multi-day challenges."`
	Backup     struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with daily deadlines and streaks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":  constants.Version,
			"settings": constants.DefaultSettingsPath,
		},
	)

	cfg, err := config.Load(CLI.Settings)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Config != "" {
		cfg.Database = CLI.Config
	}

	serving := kctx.Selected() != nil && kctx.Selected().Name == "serve"
	if err := logger.Init(logger.Config{
		Debug:     CLI.Verbose,
		Level:     cfg.LogLevel,
		ConfigDir: filepath.Dir(utils.ExpandHome(CLI.Settings)),
		Stderr:    serving,
	}); err != nil {
		errors.Fatal(err)
	}
	logger.Debug("Starting", "version", constants.Version, "command", kctx.Command())

	appCtx, err := cli.NewContext(cfg, CLI.Settings)
	if err != nil {
		errors.Fatal(err)
	}

	err = kctx.Run(appCtx)
	if closeErr := appCtx.Close(); closeErr != nil {
		logger.Warn("Failed to close resources", "err", closeErr)
	}
	errors.Fatal(err)
}
