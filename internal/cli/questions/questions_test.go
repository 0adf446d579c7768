package questions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/daylog/internal/catalog"
	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage/sqlite"
)

func setupContext(t *testing.T) *cli.Context {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "daylog.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	ctx, err := cli.NewContext(store)
	require.NoError(t, err)
	return ctx
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const customQuestions = `questions:
  - key: gratitude
    question_type: text
    wording: "Grateful for"
    display_order: 1
  - key: focus
    question_type: rating
    wording: "Focus"
    display_order: 2
    metadata:
      min: 1
      max: 5
`

func TestQuestionList(t *testing.T) {
	ctx := setupContext(t)

	require.NoError(t, (&QuestionListCmd{}).Run(ctx))
	require.NoError(t, (&QuestionListCmd{JSON: true}).Run(ctx))

	set, err := ctx.Catalog.Questions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceSchemaFallback, set.Source)
}

func TestQuestionImport(t *testing.T) {
	ctx := setupContext(t)
	bg := context.Background()
	path := writeFile(t, customQuestions)

	require.NoError(t, (&QuestionImportCmd{File: path, DryRun: true}).Run(ctx))
	stored, err := ctx.Store.ListQuestions(bg)
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.NoError(t, (&QuestionImportCmd{File: path}).Run(ctx))
	stored, err = ctx.Store.ListQuestions(bg)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	typ, ok, err := ctx.Catalog.QuestionType(bg, "focus")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.QuestionRating, typ)

	// Importing again upserts by key.
	require.NoError(t, (&QuestionImportCmd{File: path}).Run(ctx))
	stored, err = ctx.Store.ListQuestions(bg)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestQuestionImportRejectsInvalid(t *testing.T) {
	ctx := setupContext(t)

	tests := []struct {
		name    string
		content string
	}{
		{"empty", "questions: []\n"},
		{"unknown field", "questions:\n  - key: a\n    kind: text\n"},
		{"unknown type", "questions:\n  - key: a\n    question_type: colour\n    wording: A\n"},
		{"multiselect without options", "questions:\n  - key: a\n    question_type: multiselect\n    wording: A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)
			assert.Error(t, (&QuestionImportCmd{File: path}).Run(ctx))
			assert.Error(t, (&QuestionImportCmd{File: path, DryRun: true}).Run(ctx))
		})
	}
}
