package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	pq "github.com/lib/pq"

	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

const entryColumns = `id, to_char(date, 'YYYY-MM-DD'), is_draft, completed_at, created_at, updated_at`

func (s *Store) GetEntryByDate(ctx context.Context, date string) (*models.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entry WHERE date = $1`, date)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Storage("get entry", err)
	}
	return &entry, nil
}

func (s *Store) ReplaceEntry(ctx context.Context, entry models.Entry, answers []storage.AnswerRow) (models.Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Entry{}, apperrors.Storage("begin replace entry", err)
	}
	defer func() { _ = tx.Rollback() }()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = entry.UpdatedAt
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO journal_entry (id, date, is_draft, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date) DO UPDATE SET
			is_draft = EXCLUDED.is_draft,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		entry.ID, entry.Date, entry.IsDraft, entry.CompletedAt, entry.CreatedAt, entry.UpdatedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return models.Entry{}, apperrors.Storage("upsert entry", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM journal_answer WHERE entry_id = $1`, entry.ID); err != nil {
		return models.Entry{}, apperrors.Storage("clear answers", err)
	}

	if len(answers) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO journal_answer (id, entry_id, question_id, value_text, value_number, value_boolean, value_json)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`)
		if err != nil {
			return models.Entry{}, apperrors.Storage("prepare answer insert", err)
		}
		defer stmt.Close()

		for _, a := range answers {
			var jsonValue any
			if a.Columns.JSON != nil {
				jsonValue = string(a.Columns.JSON)
			}
			if _, err := stmt.ExecContext(ctx, uuid.NewString(), entry.ID, a.QuestionID,
				a.Columns.Text, a.Columns.Number, a.Columns.Boolean, jsonValue); err != nil {
				return models.Entry{}, apperrors.Storage("insert answer", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Entry{}, apperrors.Storage("commit entry", err)
	}
	return entry, nil
}

func (s *Store) DeleteEntry(ctx context.Context, date string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM journal_entry WHERE date = $1`, date)
	if err != nil {
		return false, apperrors.Storage("delete entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.Storage("delete entry", err)
	}
	return n > 0, nil
}

func (s *Store) ListEntries(ctx context.Context, filter storage.EntryFilter) ([]models.Entry, error) {
	if filter.ByIDs && len(filter.IDs) == 0 {
		return nil, nil
	}

	var where []string
	var args []any
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ByIDs {
		where = append(where, "id = ANY("+bind(pq.Array(filter.IDs))+")")
	}
	if filter.From != "" {
		where = append(where, "date >= "+bind(filter.From))
	}
	if filter.SubmittedOnly {
		where = append(where, "NOT is_draft")
	}
	if filter.To != "" {
		where = append(where, "date <= "+bind(filter.To))
	}

	query := `SELECT ` + entryColumns + ` FROM journal_entry`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.Ascending {
		query += " ORDER BY date ASC"
	} else {
		query += " ORDER BY date DESC"
	}
	if filter.Limit > 0 {
		query += " LIMIT " + bind(filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage("list entries", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.Storage("scan entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("iterate entries", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.Entry, error) {
	var entry models.Entry
	var completedAt sql.NullTime
	if err := row.Scan(&entry.ID, &entry.Date, &entry.IsDraft, &completedAt, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return models.Entry{}, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		entry.CompletedAt = &t
	}
	return entry, nil
}
