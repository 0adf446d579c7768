package sqlite

import (
	"context"
	"database/sql"
	"strings"

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
		WHERE a.entry_id IN (`+placeholders(len(entryIDs))+`)
		ORDER BY q.display_order, q.key`,
		stringArgs(entryIDs)...)
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

	var b strings.Builder
	args := stringArgs(m.QuestionIDs)
	b.WriteString(`
		SELECT DISTINCT a.entry_id, e.date
		FROM journal_answer a
		JOIN journal_entry e ON e.id = a.entry_id
		WHERE a.question_id IN (` + placeholders(len(m.QuestionIDs)) + `)`)

	switch m.Kind {
	case storage.MatchNumeric:
		switch m.Operator {
		case storage.OpGreaterOrEqual:
			b.WriteString(" AND a.value_number >= ?")
			args = append(args, m.Number)
		case storage.OpLessOrEqual:
			b.WriteString(" AND a.value_number <= ?")
			args = append(args, m.Number)
		case storage.OpEqual:
			b.WriteString(" AND a.value_number = ?")
			args = append(args, m.Number)
		case storage.OpBetween:
			b.WriteString(" AND a.value_number BETWEEN ? AND ?")
			args = append(args, m.Number, m.Upper)
		default:
			return nil, nil
		}
	case storage.MatchTextContains:
		b.WriteString(" AND a.value_text IS NOT NULL AND instr(lower(a.value_text), lower(?)) > 0")
		args = append(args, m.Text)
	case storage.MatchTextEquals:
		b.WriteString(" AND lower(a.value_text) = lower(?)")
		args = append(args, m.Text)
	case storage.MatchTextNonEmpty:
		b.WriteString(" AND a.value_text IS NOT NULL AND trim(a.value_text) <> ''")
	case storage.MatchListContainsAny:
		if len(m.Options) == 0 {
			return nil, nil
		}
		b.WriteString(" AND a.value_json IS NOT NULL AND EXISTS (SELECT 1 FROM json_each(a.value_json) j WHERE j.value IN (" +
			placeholders(len(m.Options)) + "))")
		args = append(args, stringArgs(m.Options)...)
	case storage.MatchBoolean:
		b.WriteString(" AND a.value_boolean = ?")
		args = append(args, m.Bool)
	default:
		return nil, nil
	}

	if m.From != "" {
		b.WriteString(" AND e.date >= ?")
		args = append(args, m.From)
	}
	if m.To != "" {
		b.WriteString(" AND e.date <= ?")
		args = append(args, m.To)
	}

	b.WriteString(" ORDER BY e.date DESC")
	if m.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, m.Limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, apperrors.Storage("match answers", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id, date string
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
		SELECT date FROM journal_entry
		WHERE (is_draft = 1 AND completed_at IS NOT NULL)
		   OR (is_draft = 0 AND completed_at IS NULL)
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
		WHERE (value_text IS NOT NULL) + (value_number IS NOT NULL)
		    + (value_boolean IS NOT NULL) + (value_json IS NOT NULL) <> 1`,
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
