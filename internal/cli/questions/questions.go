package questions

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/daylog/internal/catalog"
	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/validation"
)

type QuestionListCmd struct {
	JSON bool `help:"Print the catalog as JSON."`
}

func (c *QuestionListCmd) Run(ctx *cli.Context) error {
	set, err := ctx.Catalog.Questions(context.Background())
	if err != nil {
		return err
	}
	if c.JSON {
		return cli.WriteJSON(os.Stdout, map[string]any{"questions": set.Questions, "source": set.Source})
	}
	fmt.Println(cli.RenderQuestions(set.Questions, set.Source))
	if set.Source == catalog.SourceSchemaFallback {
		fmt.Println(cli.MutedStyle.Render("Catalog is empty; showing the built-in questions. Run 'daylog init' to seed them."))
	}
	return nil
}

// QuestionImportCmd upserts questions by key from a YAML file shaped like
// the built-in catalog.
type QuestionImportCmd struct {
	File   string `arg:"" type:"existingfile" help:"YAML file with a top-level 'questions' list."`
	DryRun bool   `help:"Validate the file without writing anything."`
}

func (c *QuestionImportCmd) Run(ctx *cli.Context) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	questions, err := catalog.Parse(f)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("%s contains no questions", c.File)
	}

	if c.DryRun {
		if result := validation.New().ValidateQuestions(questions); result.HasConflicts() {
			return &result
		}
		fmt.Printf("✓ %d questions parsed from %s (dry run, nothing written)\n", len(questions), c.File)
		return nil
	}
	if err := ctx.Catalog.Import(context.Background(), questions); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Printf("✓ Imported %d questions from %s\n", len(questions), c.File)
	return nil
}
