package journal

import (
	"context"
	"strings"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

// SearchParams narrows Search. All fields are optional.
type SearchParams struct {
	From string
	To   string
	Q    string
}

// Search returns entries in the date range whose text answers contain Q
// (case-insensitive), newest first, capped at MaxExploreResults.
func (s *Store) Search(ctx context.Context, params SearchParams) ([]models.EntryResult, error) {
	filter := storage.EntryFilter{Limit: constants.MaxExploreResults}

	var err error
	if params.From != "" {
		if filter.From, err = NormalizeDate(params.From); err != nil {
			return nil, err
		}
	}
	if params.To != "" {
		if filter.To, err = NormalizeDate(params.To); err != nil {
			return nil, err
		}
	}

	if q := strings.TrimSpace(params.Q); q != "" {
		questionIDs, err := s.catalog.TextualQuestionIDs(ctx)
		if err != nil {
			return nil, err
		}
		ids, err := s.provider.MatchAnswers(ctx, storage.AnswerMatch{
			QuestionIDs: questionIDs,
			Kind:        storage.MatchTextContains,
			Text:        q,
			From:        filter.From,
			To:          filter.To,
		})
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []models.EntryResult{}, nil
		}
		filter.ByIDs = true
		filter.IDs = ids
	}

	entries, err := s.provider.ListEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	hydrated, err := s.Hydrate(ctx, entries)
	if err != nil {
		return nil, err
	}

	results := make([]models.EntryResult, len(hydrated))
	for i, e := range hydrated {
		results[i] = e.Result()
	}
	return results, nil
}
