package journal

import (
	"context"

	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

// Dashboard returns all submitted entries oldest first. Drafts are left out.
func (s *Store) Dashboard(ctx context.Context) (models.Dashboard, error) {
	entries, err := s.provider.ListEntries(ctx, storage.EntryFilter{SubmittedOnly: true, Ascending: true})
	if err != nil {
		return models.Dashboard{}, err
	}
	hydrated, err := s.Hydrate(ctx, entries)
	if err != nil {
		return models.Dashboard{}, err
	}

	d := models.Dashboard{
		Entries: make([]models.Entry, 0, len(hydrated)),
		Days:    make([]models.DashboardDay, 0, len(hydrated)),
	}
	for _, h := range hydrated {
		answers := make(map[string]models.Value, len(h.Answers))
		for _, a := range h.Answers {
			answers[a.QuestionKey] = a.Value
		}
		d.Entries = append(d.Entries, *h.Entry)
		d.Days = append(d.Days, models.DashboardDay{Date: h.Entry.Date, Answers: answers})
	}
	return d, nil
}
