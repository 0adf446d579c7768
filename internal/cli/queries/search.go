package queries

import (
	"context"

	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/journal"
)

// SearchCmd lists entries in a date range, optionally only those whose text
// answers contain a phrase.
type SearchCmd struct {
	Query string `short:"q" help:"Case-insensitive text to look for in text answers."`
	From  string `help:"Earliest date (YYYY-MM-DD)."`
	To    string `help:"Latest date (YYYY-MM-DD)."`
	JSON  bool   `help:"Print results as JSON."`
}

func (c *SearchCmd) Run(ctx *cli.Context) error {
	results, err := ctx.Journal.Search(context.Background(), journal.SearchParams{
		From: c.From,
		To:   c.To,
		Q:    c.Query,
	})
	if err != nil {
		return err
	}
	return printResults(results, c.JSON)
}
