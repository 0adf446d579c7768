package main

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/cli/backups"
	"github.com/julianstephens/daylog/internal/cli/entries"
	"github.com/julianstephens/daylog/internal/cli/queries"
	"github.com/julianstephens/daylog/internal/cli/questions"
	"github.com/julianstephens/daylog/internal/cli/system"
	"github.com/julianstephens/daylog/internal/constants"
	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/logger"
)

var CLI struct {
	Version      kong.VersionFlag
	Config       string `help:"SQLite database path or PostgreSQL connection string. PostgreSQL URLs must NOT embed a password; use DAYLOG_DB_CONNECTION, .pgpass or the OS keyring instead." type:"string" default:"${config_path}" env:"DAYLOG_CONFIG"`
	DBConnection string `help:"PostgreSQL connection string (no password). Falls back to DAYLOG_DB_CONNECTION and the OS keyring." name:"db-connection"`
	Postgres     bool   `help:"Use PostgreSQL with the connection string from DAYLOG_DB_CONNECTION or the OS keyring."`
	Debug        bool   `help:"Enable debug logging to stderr." env:"DAYLOG_DEBUG"`

	Init    system.InitCmd    `cmd:"" help:"Initialize daylog storage and seed the question catalog."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Serve   system.ServeCmd   `cmd:"" help:"Serve the journal HTTP API."`

	Questions struct {
		List   questions.QuestionListCmd   `cmd:"" help:"List the question catalog." default:"1"`
		Import questions.QuestionImportCmd `cmd:"" help:"Add or update questions from a YAML file."`
	} `cmd:"" help:"Manage the question catalog."`

	Entry struct {
		Show   entries.EntryShowCmd   `cmd:"" help:"Show the entry for a date." default:"1"`
		Exists entries.EntryExistsCmd `cmd:"" help:"Report whether an entry exists and is a draft."`
		Delete entries.EntryDeleteCmd `cmd:"" help:"Delete the entry for a date."`
	} `cmd:"" help:"Inspect journal entries."`
	Draft  entries.DraftCmd  `cmd:"" help:"Save answers as a draft, replacing the date's answer set."`
	Submit entries.SubmitCmd `cmd:"" help:"Submit answers, replacing the date's answer set."`
	Fill   entries.FillCmd   `cmd:"" help:"Fill in the journal interactively."`

	Explore queries.ExploreCmd `cmd:"" help:"Explore entries by answer values, people, habits, dates and streaks."`
	Search  queries.SearchCmd  `cmd:"" help:"Search entries by date range and text."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage SQLite database backups."`

	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability." default:"1"`
	} `cmd:"" help:"Manage PostgreSQL credentials in the OS keyring."`
}

// loadsItself lists commands that open the store on their own or need none.
var loadsItself = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily journal with typed answers and exploration queries"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": constants.DefaultConfigPath,
			"api_addr":    constants.DefaultAPIAddr,
		},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: logDir()}); err != nil {
		apperrors.Fatalf("failed to initialize logging in %s: %v", logDir(), err)
	}

	command := strings.Fields(ctx.Command())[0]
	if command == "keyring" {
		apperrors.Fatal(ctx.Run(&cli.Context{}))
		return
	}

	store, err := cli.OpenStore(cli.StoreOptions{
		Config:       CLI.Config,
		DBConnection: CLI.DBConnection,
		Postgres:     CLI.Postgres,
	})
	if err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	appCtx, err := cli.NewContext(store)
	if err != nil {
		apperrors.Fatal(err)
	}

	if !loadsItself[command] {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}

// logDir keeps logs next to a SQLite database and under the default config
// directory otherwise.
func logDir() string {
	path := CLI.Config
	if strings.Contains(path, "://") || CLI.Postgres || CLI.DBConnection != "" {
		path = constants.DefaultConfigPath
	}
	expanded, err := cli.ExpandPath(path)
	if err != nil {
		return "."
	}
	return filepath.Dir(expanded)
}
