package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	pq "github.com/lib/pq"

	"github.com/julianstephens/daylog/internal/codec"
	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

func (s *Store) AnswersFor(ctx context.Context, entryIDs []string) ([]storage.AnswerRow, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.entry_id, a.question_id, q.key, q.question_type,
		       a.value_text, a.value_number, a.value_boolean, a.value_json
		FROM journal_answer a
		JOIN question_catalog q ON q.id = a.question_id
		WHERE a.entry_id = ANY($1)
		ORDER BY q.display_order, q.key`,
		pq.Array(entryIDs))
	if err != nil {
		return nil, apperrors.Storage("load answers", err)
	}
	defer rows.Close()

	var answers []storage.AnswerRow
	for rows.Next() {
		var a storage.AnswerRow
		var qType string
		var text sql.NullString
		var number sql.NullFloat64
		var boolean sql.NullBool
		var jsonValue []byte
		if err := rows.Scan(&a.EntryID, &a.QuestionID, &a.QuestionKey, &qType,
			&text, &number, &boolean, &jsonValue); err != nil {
			return nil, apperrors.Storage("scan answer", err)
		}
		a.QuestionType = models.QuestionType(qType)
		a.Columns = columnsFrom(text, number, boolean, jsonValue)
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("iterate answers", err)
	}
	return answers, nil
}

func (s *Store) MatchAnswers(ctx context.Context, m storage.AnswerMatch) ([]string, error) {
	if len(m.QuestionIDs) == 0 {
		return nil, nil
	}

	args := []any{pq.Array(m.QuestionIDs)}
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var b strings.Builder
	b.WriteString(`
		SELECT DISTINCT a.entry_id, e.date
		FROM journal_answer a
		JOIN journal_entry e ON e.id = a.entry_id
		WHERE a.question_id = ANY($1)`)

	switch m.Kind {
	case storage.MatchNumeric:
		switch m.Operator {
		case storage.OpGreaterOrEqual, storage.OpLessOrEqual, storage.OpEqual:
			b.WriteString(" AND a.value_number " + m.Operator + " " + bind(m.Number))
		case storage.OpBetween:
			b.WriteString(" AND a.value_number BETWEEN " + bind(m.Number) + " AND " + bind(m.Upper))
		default:
			return nil, nil
		}
	case storage.MatchTextContains:
		b.WriteString(" AND a.value_text IS NOT NULL AND strpos(lower(a.value_text), lower(" + bind(m.Text) + ")) > 0")
	case storage.MatchTextEquals:
		b.WriteString(" AND lower(a.value_text) = lower(" + bind(m.Text) + ")")
	case storage.MatchTextNonEmpty:
		b.WriteString(" AND a.value_text IS NOT NULL AND btrim(a.value_text) <> ''")
	case storage.MatchListContainsAny:
		if len(m.Options) == 0 {
			return nil, nil
		}
		b.WriteString(" AND a.value_json IS NOT NULL AND jsonb_exists_any(a.value_json, " + bind(pq.Array(m.Options)) + "::text[])")
	case storage.MatchBoolean:
		b.WriteString(" AND a.value_boolean = " + bind(m.Bool))
	default:
		return nil, nil
	}

	if m.From != "" {
		b.WriteString(" AND e.date >= " + bind(m.From))
	}
	if m.To != "" {
		b.WriteString(" AND e.date <= " + bind(m.To))
	}

	b.WriteString(" ORDER BY e.date DESC")
	if m.Limit > 0 {
		b.WriteString(" LIMIT " + bind(m.Limit))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, apperrors.Storage("match answers", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var date sql.NullTime
		if err := rows.Scan(&id, &date); err != nil {
			return nil, apperrors.Storage("scan match", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("iterate matches", err)
	}
	return ids, nil
}

func (s *Store) Integrity(ctx context.Context) (storage.IntegrityReport, error) {
	var report storage.IntegrityReport

	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD') FROM journal_entry
		WHERE is_draft = (completed_at IS NOT NULL)
		ORDER BY date`)
	if err != nil {
		return report, apperrors.Storage("integrity drafts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return report, apperrors.Storage("integrity drafts", err)
		}
		report.DraftMismatches = append(report.DraftMismatches, date)
	}
	if err := rows.Err(); err != nil {
		return report, apperrors.Storage("integrity drafts", err)
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM journal_answer
		WHERE (value_text IS NOT NULL)::int + (value_number IS NOT NULL)::int
		    + (value_boolean IS NOT NULL)::int + (value_json IS NOT NULL)::int <> 1`,
	).Scan(&report.ColumnCountViolations); err != nil {
		return report, apperrors.Storage("integrity columns", err)
	}

	if err := s.db.QueryRowContext(ctx, storage.TypeMismatchQuery).Scan(&report.TypeMismatches); err != nil {
		return report, apperrors.Storage("integrity types", err)
	}

	return report, nil
}

func columnsFrom(text sql.NullString, number sql.NullFloat64, boolean sql.NullBool, jsonValue []byte) codec.Columns {
	var c codec.Columns
	if text.Valid {
		v := text.String
		c.Text = &v
	}
	if number.Valid {
		v := number.Float64
		c.Number = &v
	}
	if boolean.Valid {
		v := boolean.Bool
		c.Boolean = &v
	}
	if jsonValue != nil {
		c.JSON = jsonValue
	}
	return c
}
