// Package journal implements the per-date entry lifecycle on top of a
// storage provider: drafts, submissions, lookups and search.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/daylog/internal/catalog"
	"github.com/julianstephens/daylog/internal/codec"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
	"github.com/julianstephens/daylog/internal/utils"
)

// ErrInvalidDate is returned when a date does not start with a valid YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

type Store struct {
	provider storage.Provider
	catalog  *catalog.Catalog
	locks    *dateLocks
	now      func() time.Time
}

func New(provider storage.Provider, cat *catalog.Catalog) *Store {
	return &Store{
		provider: provider,
		catalog:  cat,
		locks:    newDateLocks(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Catalog returns the catalog used to resolve question keys.
func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// Provider returns the underlying storage provider.
func (s *Store) Provider() storage.Provider {
	return s.provider
}

// NormalizeDate validates date and reduces it to YYYY-MM-DD.
func NormalizeDate(date string) (string, error) {
	d, err := utils.NormalizeDate(date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return d, nil
}

// GetEntry returns the entry for date with its answers. A missing entry
// yields a nil Entry and no answers.
func (s *Store) GetEntry(ctx context.Context, date string) (models.EntryWithAnswers, error) {
	d, err := NormalizeDate(date)
	if err != nil {
		return models.EntryWithAnswers{}, err
	}
	return s.getEntry(ctx, d)
}

func (s *Store) getEntry(ctx context.Context, d string) (models.EntryWithAnswers, error) {
	entry, err := s.provider.GetEntryByDate(ctx, d)
	if err != nil {
		return models.EntryWithAnswers{}, err
	}
	if entry == nil {
		return models.EntryWithAnswers{Answers: []models.Answer{}}, nil
	}

	hydrated, err := s.Hydrate(ctx, []models.Entry{*entry})
	if err != nil {
		return models.EntryWithAnswers{}, err
	}
	return hydrated[0], nil
}

// SaveDraft replaces the answers for date and marks the entry as a draft.
func (s *Store) SaveDraft(ctx context.Context, date string, answers []models.AnswerInput) (models.EntryWithAnswers, error) {
	return s.save(ctx, date, answers, false)
}

// SubmitEntry replaces the answers for date and marks the entry completed now.
// Submitting again overwrites the previous submission.
func (s *Store) SubmitEntry(ctx context.Context, date string, answers []models.AnswerInput) (models.EntryWithAnswers, error) {
	return s.save(ctx, date, answers, true)
}

func (s *Store) save(ctx context.Context, date string, answers []models.AnswerInput, submit bool) (models.EntryWithAnswers, error) {
	d, err := NormalizeDate(date)
	if err != nil {
		return models.EntryWithAnswers{}, err
	}

	keys := make([]string, 0, len(answers))
	for _, a := range answers {
		keys = append(keys, a.QuestionKey)
	}
	questions, err := s.catalog.Lookup(ctx, keys)
	if err != nil {
		return models.EntryWithAnswers{}, err
	}

	rows, dropped := buildRows(answers, questions)
	if dropped > 0 {
		logger.Debug("Dropped answers without a catalog question or value", "date", d, "dropped", dropped)
	}

	now := s.now()
	entry := models.Entry{Date: d, IsDraft: !submit, UpdatedAt: now}
	if submit {
		entry.CompletedAt = &now
	}

	unlock := s.locks.lock(d)
	defer unlock()

	if _, err := s.provider.ReplaceEntry(ctx, entry, rows); err != nil {
		return models.EntryWithAnswers{}, err
	}

	logger.Info("Journal entry saved", "date", d, "submitted", submit, "answers", len(rows))
	return s.getEntry(ctx, d)
}

// buildRows encodes answers against their catalog questions. Unknown keys and
// values that normalise to nothing are skipped; for a repeated key the last
// answer wins.
func buildRows(answers []models.AnswerInput, questions map[string]models.Question) ([]storage.AnswerRow, int) {
	last := make(map[string]int, len(answers))
	for i, a := range answers {
		last[a.QuestionKey] = i
	}

	rows := make([]storage.AnswerRow, 0, len(answers))
	dropped := 0
	for i, a := range answers {
		if last[a.QuestionKey] != i {
			continue
		}
		q, ok := questions[a.QuestionKey]
		if !ok {
			dropped++
			continue
		}
		cols := codec.Encode(a.Value, q.Type)
		if cols.Empty() {
			dropped++
			continue
		}
		rows = append(rows, storage.AnswerRow{QuestionID: q.ID, QuestionKey: q.Key, QuestionType: q.Type, Columns: cols})
	}
	return rows, dropped
}

// EntryExists reports whether an entry exists for date and whether it is a draft.
func (s *Store) EntryExists(ctx context.Context, date string) (models.EntryStatus, error) {
	d, err := NormalizeDate(date)
	if err != nil {
		return models.EntryStatus{}, err
	}
	entry, err := s.provider.GetEntryByDate(ctx, d)
	if err != nil {
		return models.EntryStatus{}, err
	}
	if entry == nil {
		return models.EntryStatus{}, nil
	}
	return models.EntryStatus{Exists: true, IsDraft: entry.IsDraft}, nil
}

// DeleteEntry removes the entry for date. It reports whether one existed.
func (s *Store) DeleteEntry(ctx context.Context, date string) (bool, error) {
	d, err := NormalizeDate(date)
	if err != nil {
		return false, err
	}
	unlock := s.locks.lock(d)
	defer unlock()
	return s.provider.DeleteEntry(ctx, d)
}

// Hydrate attaches decoded answers to entries, preserving entry order.
func (s *Store) Hydrate(ctx context.Context, entries []models.Entry) ([]models.EntryWithAnswers, error) {
	if len(entries) == 0 {
		return []models.EntryWithAnswers{}, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	rows, err := s.provider.AnswersFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	byEntry := make(map[string][]models.Answer, len(entries))
	for _, r := range rows {
		byEntry[r.EntryID] = append(byEntry[r.EntryID], models.Answer{
			QuestionKey: r.QuestionKey,
			Value:       codec.Decode(r.Columns, r.QuestionType),
			Type:        r.QuestionType,
		})
	}

	out := make([]models.EntryWithAnswers, len(entries))
	for i := range entries {
		e := entries[i]
		answers := byEntry[e.ID]
		if answers == nil {
			answers = []models.Answer{}
		}
		out[i] = models.EntryWithAnswers{Entry: &e, Answers: answers}
	}
	return out, nil
}
