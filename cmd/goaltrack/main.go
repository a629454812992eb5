package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/spf13/viper"

	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/cli/account"
	"github.com/julianstephens/goaltrack/internal/cli/goals"
	"github.com/julianstephens/goaltrack/internal/cli/habits"
	"github.com/julianstephens/goaltrack/internal/cli/system"
	"github.com/julianstephens/goaltrack/internal/config"
	"github.com/julianstephens/goaltrack/internal/constants"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/storage"
	"github.com/julianstephens/goaltrack/internal/storage/postgres"
	"github.com/julianstephens/goaltrack/internal/storage/sqlite"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" placeholder:"PATH"`
	Output  string `help:"Output format." short:"o" enum:"text,json,yaml" default:"text"`
	Debug   bool   `help:"Log debug output to stderr and the log file."`
	Profile string `help:"Account profile whose sign-in is used." env:"GOALTRACK_PROFILE"`

	Init   system.InitCmd   `cmd:"" help:"Initialize the local store."`
	Doctor system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Backup system.BackupCmd `cmd:"" help:"Manage local store backups."`
	Tui    system.TuiCmd    `cmd:"" help:"Launch the interactive TUI." default:"1"`

	Login  account.LoginCmd  `cmd:"" help:"Sign in with a refresh token."`
	Logout account.LogoutCmd `cmd:"" help:"Sign out and forget the stored token."`
	Whoami account.WhoamiCmd `cmd:"" help:"Show the signed-in account."`
	Quiz   account.QuizCmd   `cmd:"" help:"Show or answer the questionnaire."`

	Categories goals.CategoriesCmd `cmd:"" aliases:"category" help:"Manage goal categories."`
	Goals      goals.GoalsCmd      `cmd:"" aliases:"goal" help:"Manage goals and their habits."`
	Habits     habits.HabitsCmd    `cmd:"" aliases:"habit" help:"Track habit completions."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Track goals, habits and daily completions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
	interactive := strings.HasPrefix(ctx.Command(), "tui")

	v := viper.New()
	if CLI.Profile != "" {
		v.Set(config.KeyProfile, CLI.Profile)
	}
	if CLI.Debug {
		v.Set(config.KeyDebug, true)
	}
	cfg, err := config.LoadWith(v, CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}

	dir, err := cfg.Dir()
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: dir, Quiet: interactive}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := openStore(cfg)
	apperrors.Fatal(err)

	appCtx := cli.NewContext(cfg, store)
	appCtx.Output = cli.Format(CLI.Output)
	appCtx.Progress = !interactive

	logger.Debug("Running command", "command", ctx.Command(), "profile", cfg.Profile, "store", store.GetConfigPath())
	apperrors.Fatal(ctx.Run(appCtx))
}

// openStore picks PostgreSQL for connection strings and SQLite otherwise.
func openStore(cfg *config.Config) (storage.Provider, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	if postgres.IsConnString(path) {
		if _, err := postgres.ValidateConnString(path); err != nil {
			return nil, apperrors.Wrap(apperrors.KindValidation, "store",
				fmt.Errorf("%w; put the password in PGPASSWORD or ~/.pgpass", err))
		}
		return postgres.New(path), nil
	}
	return sqlite.NewStore(path), nil
}
