package queries

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/explore"
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
	require.NoError(t, ctx.Catalog.Seed(context.Background()))

	bg := context.Background()
	for date, energy := range map[string]int{"2024-02-01": 4, "2024-02-02": 9, "2024-02-03": 8} {
		_, err := ctx.Journal.SubmitEntry(bg, date, []models.AnswerInput{
			{QuestionKey: "energy", Value: energy},
			{QuestionKey: "rose", Value: "walk with Sam"},
		})
		require.NoError(t, err)
	}
	return ctx
}

func TestExploreRequest(t *testing.T) {
	cmd := &ExploreCmd{
		Mode:   explore.ModeNumeric,
		Params: []string{"question_key=energy", "operator=>=", "value=8"},
		From:   "2024-02-01",
	}
	req, err := cmd.request()
	require.NoError(t, err)

	q, ok := req.Query.(explore.NumericQuery)
	require.True(t, ok)
	assert.Equal(t, "energy", q.QuestionKey)
	assert.Equal(t, ">=", q.Operator)
	require.NotNil(t, q.Value)
	assert.Equal(t, 8.0, *q.Value)
	assert.Equal(t, "2024-02-01", req.From)
	assert.Empty(t, req.To)

	_, err = (&ExploreCmd{Mode: explore.ModeNumeric, Params: []string{"=8"}}).request()
	assert.Error(t, err)
	_, err = (&ExploreCmd{Mode: explore.ModeNumeric, Params: []string{"value"}}).request()
	assert.Error(t, err)
}

func TestExploreRun(t *testing.T) {
	ctx := setupContext(t)

	cmd := &ExploreCmd{
		Mode:   explore.ModeNumeric,
		Params: []string{"question_key=energy", "operator=>=", "value=8"},
	}
	require.NoError(t, cmd.Run(ctx))

	cmd.JSON = true
	require.NoError(t, cmd.Run(ctx))

	rbt := &ExploreCmd{Mode: explore.ModeRBT, Params: []string{"rbt_field=rose", "rbt_search=sam"}}
	require.NoError(t, rbt.Run(ctx))
}

func TestSearchRun(t *testing.T) {
	ctx := setupContext(t)

	require.NoError(t, (&SearchCmd{Query: "SAM"}).Run(ctx))
	require.NoError(t, (&SearchCmd{From: "2024-02-02", To: "2024-02-03", JSON: true}).Run(ctx))
	assert.Error(t, (&SearchCmd{From: "02/02/2024"}).Run(ctx))
}
