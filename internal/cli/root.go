package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/daylog/internal/backup"
	"github.com/julianstephens/daylog/internal/catalog"
	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/journal"
	"github.com/julianstephens/daylog/internal/keyring"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
	"github.com/julianstephens/daylog/internal/storage/postgres"
	"github.com/julianstephens/daylog/internal/storage/sqlite"
	"github.com/julianstephens/daylog/internal/utils"
)

// Context is passed to every command's Run method.
type Context struct {
	Store   storage.Provider
	Catalog *catalog.Catalog
	Journal *journal.Store
}

// NewContext wires the catalog and journal on top of store. The store does
// not need to be loaded yet.
func NewContext(store storage.Provider) (*Context, error) {
	cat, err := catalog.New(store)
	if err != nil {
		return nil, err
	}
	return &Context{Store: store, Catalog: cat, Journal: journal.New(store, cat)}, nil
}

// PerformAutomaticBackup snapshots a SQLite database. Failures are logged
// and otherwise ignored.
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// StoreOptions selects and configures the storage backend.
type StoreOptions struct {
	// Config is a SQLite path or a password-free PostgreSQL URL.
	Config string
	// DBConnection is a PostgreSQL connection string given on the command line.
	DBConnection string
	// Postgres forces PostgreSQL, resolving the connection string from the
	// flag, the environment and then the OS keyring. DAYLOG_DB_CONNECTION
	// alone selects PostgreSQL only while Config is left at its default.
	Postgres bool
}

// OpenStore returns the provider described by opts. It does not open a
// connection.
func OpenStore(opts StoreOptions) (storage.Provider, error) {
	if isPostgresURL(opts.Config) {
		if _, err := postgres.ValidateConnString(opts.Config); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("--config must not embed a password; use DAYLOG_DB_CONNECTION, .pgpass or 'daylog keyring set'")
			}
			return nil, err
		}
		return postgres.New(opts.Config), nil
	}

	// An explicit SQLite --config wins over DAYLOG_DB_CONNECTION.
	defaultConfig := opts.Config == "" || opts.Config == constants.DefaultConfigPath
	envSet := strings.TrimSpace(os.Getenv(constants.EnvDBConnection)) != ""
	if opts.Postgres || opts.DBConnection != "" || (envSet && defaultConfig) {
		connStr, source, err := keyring.ResolveConnectionString(opts.DBConnection)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("no PostgreSQL connection string: pass --db-connection, set DAYLOG_DB_CONNECTION or run 'daylog keyring set'")
			}
			return nil, err
		}
		if _, err := postgres.ValidateConnString(connStr); err != nil {
			// Secrets may live in the environment or keyring, never in argv.
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) || source == keyring.SourceFlag {
				return nil, fmt.Errorf("invalid PostgreSQL connection string from %s: %w", source, err)
			}
		}
		logger.Debug("Using PostgreSQL storage", "source", source)
		return postgres.New(connStr), nil
	}

	path, err := ExpandPath(opts.Config)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

func isPostgresURL(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ResolveDate turns a command line date into YYYY-MM-DD. Empty means today;
// "today" and "yesterday" are accepted.
func ResolveDate(arg string) (string, error) {
	today, err := utils.Today("Local")
	if err != nil {
		return "", err
	}
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return utils.AddDays(today, -1)
	}
	return journal.NormalizeDate(arg)
}

// ParseAnswerFlags parses key=value pairs into answer inputs. Values are
// passed through as strings and coerced by the question's catalog type, so
// "Push,Core" fills a multiselect and "7" a rating.
func ParseAnswerFlags(pairs []string) ([]models.AnswerInput, error) {
	answers := make([]models.AnswerInput, 0, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid answer %q, expected key=value", pair)
		}
		answers = append(answers, models.AnswerInput{QuestionKey: key, Value: value})
	}
	return answers, nil
}
