package entries

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/models"
)

// AnswerFlags are shared by draft and submit. Each save replaces the full
// answer set of the date, so every answer to keep must be given again.
type AnswerFlags struct {
	Date    string   `arg:"" optional:"" help:"Entry date (YYYY-MM-DD, today, yesterday). Defaults to today."`
	Answers []string `short:"a" name:"answer" sep:"none" help:"Answer as key=value. Repeat for each question; lists are comma separated."`
	JSON    bool     `help:"Print the saved entry as JSON."`
}

func (f AnswerFlags) parse() (string, []models.AnswerInput, error) {
	date, err := cli.ResolveDate(f.Date)
	if err != nil {
		return "", nil, err
	}
	answers, err := cli.ParseAnswerFlags(f.Answers)
	if err != nil {
		return "", nil, err
	}
	return date, answers, nil
}

func (f AnswerFlags) print(verb string, e models.EntryWithAnswers) error {
	if f.JSON {
		return cli.WriteJSON(os.Stdout, map[string]any{"entry": e.Entry, "answers": e.Answers})
	}
	fmt.Printf("✓ %s %s (%d answers)\n", verb, e.Entry.Date, len(e.Answers))
	return nil
}

type DraftCmd struct {
	AnswerFlags `embed:""`
}

func (c *DraftCmd) Run(ctx *cli.Context) error {
	date, answers, err := c.parse()
	if err != nil {
		return err
	}
	e, err := ctx.Journal.SaveDraft(context.Background(), date, answers)
	if err != nil {
		return err
	}
	return c.print("Saved draft for", e)
}

type SubmitCmd struct {
	AnswerFlags `embed:""`
}

func (c *SubmitCmd) Run(ctx *cli.Context) error {
	date, answers, err := c.parse()
	if err != nil {
		return err
	}
	bg := context.Background()
	ctx.PerformAutomaticBackup(bg)
	e, err := ctx.Journal.SubmitEntry(bg, date, answers)
	if err != nil {
		return err
	}
	return c.print("Submitted", e)
}
