package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

const questionColumns = `id, key, question_type, wording, description, display_order, metadata`

func (s *Store) UpsertQuestions(ctx context.Context, questions []models.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Storage("upsert questions", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, q := range questions {
		metadata, err := marshalMetadata(q.Metadata)
		if err != nil {
			return fmt.Errorf("question %s: %w", q.Key, err)
		}

		var id, currentType string
		err = tx.QueryRowContext(ctx,
			`SELECT id, question_type FROM question_catalog WHERE key = ?`, q.Key).Scan(&id, &currentType)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id = q.ID
			if id == "" {
				id = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO question_catalog (id, key, question_type, wording, description, display_order, metadata, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, q.Key, string(q.Type), q.Wording, q.Description, q.DisplayOrder, metadata, now, now); err != nil {
				return apperrors.Storage("insert question", err)
			}
			continue
		case err != nil:
			return apperrors.Storage("lookup question", err)
		}

		if currentType != string(q.Type) {
			var referenced bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM journal_answer WHERE question_id = ?)`, id).Scan(&referenced); err != nil {
				return apperrors.Storage("check question answers", err)
			}
			if referenced {
				return fmt.Errorf("%w: %s (%s -> %s)", storage.ErrQuestionTypeChange, q.Key, currentType, q.Type)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE question_catalog
			SET question_type = ?, wording = ?, description = ?, display_order = ?, metadata = ?, updated_at = ?
			WHERE id = ?`,
			string(q.Type), q.Wording, q.Description, q.DisplayOrder, metadata, now, id); err != nil {
			return apperrors.Storage("update question", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Storage("commit questions", err)
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM question_catalog ORDER BY display_order, key`)
	if err != nil {
		return nil, apperrors.Storage("list questions", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (s *Store) QuestionsByKeys(ctx context.Context, keys []string) ([]models.Question, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM question_catalog WHERE key IN (`+placeholders(len(keys))+`) ORDER BY display_order, key`,
		stringArgs(keys)...)
	if err != nil {
		return nil, apperrors.Storage("questions by keys", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func scanQuestions(rows *sql.Rows) ([]models.Question, error) {
	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var qType string
		var metadata sql.NullString
		if err := rows.Scan(&q.ID, &q.Key, &qType, &q.Wording, &q.Description, &q.DisplayOrder, &metadata); err != nil {
			return nil, apperrors.Storage("scan question", err)
		}
		q.Type = models.QuestionType(qType)
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &q.Metadata); err != nil {
				return nil, fmt.Errorf("question %s: invalid metadata: %w", q.Key, err)
			}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("iterate questions", err)
	}
	return questions, nil
}

func marshalMetadata(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}
	return string(b), nil
}
