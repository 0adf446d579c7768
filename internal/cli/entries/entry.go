package entries

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/daylog/internal/cli"
)

type EntryShowCmd struct {
	Date string `arg:"" optional:"" help:"Entry date (YYYY-MM-DD, today, yesterday). Defaults to today."`
	JSON bool   `help:"Print the entry as JSON."`
}

func (c *EntryShowCmd) Run(ctx *cli.Context) error {
	date, err := cli.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	bg := context.Background()
	e, err := ctx.Journal.GetEntry(bg, date)
	if err != nil {
		return err
	}

	if c.JSON {
		return cli.WriteJSON(os.Stdout, map[string]any{"entry": e.Entry, "answers": e.Answers, "date": date})
	}

	set, err := ctx.Catalog.Questions(bg)
	if err != nil {
		return err
	}
	fmt.Println(cli.RenderEntry(date, e, set.Questions))
	return nil
}

type EntryExistsCmd struct {
	Date string `arg:"" optional:"" help:"Entry date. Defaults to today."`
	JSON bool   `help:"Print the status as JSON."`
}

func (c *EntryExistsCmd) Run(ctx *cli.Context) error {
	date, err := cli.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	status, err := ctx.Journal.EntryExists(context.Background(), date)
	if err != nil {
		return err
	}

	if c.JSON {
		return cli.WriteJSON(os.Stdout, status)
	}
	switch {
	case !status.Exists:
		fmt.Printf("No entry for %s\n", date)
	default:
		fmt.Printf("%s: %s\n", date, cli.Status(status.IsDraft))
	}
	return nil
}

type EntryDeleteCmd struct {
	Date string `arg:"" help:"Entry date to delete."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *EntryDeleteCmd) Run(ctx *cli.Context) error {
	date, err := cli.ResolveDate(c.Date)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete the entry for %s and all its answers?", date)).
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	bg := context.Background()
	ctx.PerformAutomaticBackup(bg)
	deleted, err := ctx.Journal.DeleteEntry(bg, date)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("no entry for %s", date)
	}
	fmt.Printf("✓ Deleted entry for %s\n", date)
	return nil
}
