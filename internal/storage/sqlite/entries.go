package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

const entryColumns = `id, date, is_draft, completed_at, created_at, updated_at`

func (s *Store) GetEntryByDate(ctx context.Context, date string) (*models.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entry WHERE date = ?`, date)
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
	now := time.Now().UTC()
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = entry.UpdatedAt
	}

	var completedAt *string
	if entry.CompletedAt != nil {
		str := entry.CompletedAt.UTC().Format(time.RFC3339)
		completedAt = &str
	}

	var createdAt string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO journal_entry (id, date, is_draft, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			is_draft = excluded.is_draft,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at
		RETURNING id, created_at`,
		entry.ID, entry.Date, entry.IsDraft, completedAt,
		entry.CreatedAt.UTC().Format(time.RFC3339), entry.UpdatedAt.UTC().Format(time.RFC3339),
	).Scan(&entry.ID, &createdAt)
	if err != nil {
		return models.Entry{}, apperrors.Storage("upsert entry", err)
	}
	if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return models.Entry{}, fmt.Errorf("invalid created_at for %s: %w", entry.Date, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM journal_answer WHERE entry_id = ?`, entry.ID); err != nil {
		return models.Entry{}, apperrors.Storage("clear answers", err)
	}

	if len(answers) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO journal_answer (id, entry_id, question_id, value_text, value_number, value_boolean, value_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return models.Entry{}, apperrors.Storage("prepare answer insert", err)
		}
		defer stmt.Close()

		stamp := entry.UpdatedAt.UTC().Format(time.RFC3339)
		for _, a := range answers {
			var jsonValue any
			if a.Columns.JSON != nil {
				jsonValue = string(a.Columns.JSON)
			}
			if _, err := stmt.ExecContext(ctx, uuid.NewString(), entry.ID, a.QuestionID,
				a.Columns.Text, a.Columns.Number, a.Columns.Boolean, jsonValue, stamp); err != nil {
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM journal_entry WHERE date = ?`, date)
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
	if filter.ByIDs {
		where = append(where, "id IN ("+placeholders(len(filter.IDs))+")")
		args = append(args, stringArgs(filter.IDs)...)
	}
	if filter.From != "" {
		where = append(where, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.SubmittedOnly {
		where = append(where, "is_draft = 0")
	}
	if filter.To != "" {
		where = append(where, "date <= ?")
		args = append(args, filter.To)
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
		query += " LIMIT ?"
		args = append(args, filter.Limit)
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
	var completedAt sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&entry.ID, &entry.Date, &entry.IsDraft, &completedAt, &createdAt, &updatedAt); err != nil {
		return models.Entry{}, err
	}

	var err error
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339, completedAt.String)
		if err != nil {
			return models.Entry{}, fmt.Errorf("invalid completed_at for %s: %w", entry.Date, err)
		}
		entry.CompletedAt = &t
	}
	if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return models.Entry{}, fmt.Errorf("invalid created_at for %s: %w", entry.Date, err)
	}
	if entry.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return models.Entry{}, fmt.Errorf("invalid updated_at for %s: %w", entry.Date, err)
	}
	return entry, nil
}
