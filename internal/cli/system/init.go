package system

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool `help:"Delete an existing SQLite database before initializing."`
	NoSeed bool `help:"Do not seed the default question catalog."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized daylog storage at: %s\n", ctx.Store.GetConfigPath())

	if c.NoSeed {
		return nil
	}

	bg := context.Background()
	existing, err := ctx.Store.ListQuestions(bg)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Printf("Question catalog already holds %d questions, leaving it unchanged.\n", len(existing))
		return nil
	}
	if err := ctx.Catalog.Seed(bg); err != nil {
		return fmt.Errorf("failed to seed question catalog: %w", err)
	}
	set, err := ctx.Catalog.Questions(bg)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d default questions.\n", len(set.Questions))
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return fmt.Errorf("--force is only supported for SQLite storage")
	}
	dbPath := ctx.Store.GetConfigPath()
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("failed to delete existing database: %w", err)
	}
	fmt.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}
