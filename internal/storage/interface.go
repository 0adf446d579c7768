package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/daylog/internal/codec"
	"github.com/julianstephens/daylog/internal/models"
)

// ErrQuestionTypeChange is returned when an upsert would change the type of a
// question that already has answers.
var ErrQuestionTypeChange = errors.New("question type cannot change once answers reference it")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	// Migrate applies pending schema migrations and returns how many ran.
	Migrate(logFn func(string)) (int, error)
	// SchemaVersion reports the applied and the latest available schema version.
	SchemaVersion() (current, latest int, err error)

	// Question catalog
	UpsertQuestions(ctx context.Context, questions []models.Question) error
	ListQuestions(ctx context.Context) ([]models.Question, error)
	QuestionsByKeys(ctx context.Context, keys []string) ([]models.Question, error)

	// Entries
	// GetEntryByDate returns nil and no error when no entry exists for date.
	GetEntryByDate(ctx context.Context, date string) (*models.Entry, error)
	// ReplaceEntry upserts the entry for entry.Date and replaces its full
	// answer set in one transaction. The stored entry is returned; an
	// existing entry keeps its id and created_at.
	ReplaceEntry(ctx context.Context, entry models.Entry, answers []AnswerRow) (models.Entry, error)
	// DeleteEntry removes the entry for date and its answers. It reports
	// whether an entry existed.
	DeleteEntry(ctx context.Context, date string) (bool, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]models.Entry, error)

	// Answers
	AnswersFor(ctx context.Context, entryIDs []string) ([]AnswerRow, error)
	// MatchAnswers returns the distinct ids of entries having at least one
	// answer that satisfies m.
	MatchAnswers(ctx context.Context, m AnswerMatch) ([]string, error)

	// Integrity reports rows violating the storage invariants.
	Integrity(ctx context.Context) (IntegrityReport, error)

	// Utils
	GetConfigPath() string
}

// AnswerRow is one physical answer row. QuestionKey and QuestionType are
// filled from the catalog join on reads and ignored on writes.
type AnswerRow struct {
	EntryID      string
	QuestionID   string
	QuestionKey  string
	QuestionType models.QuestionType
	Columns      codec.Columns
}

// MatchKind selects the predicate MatchAnswers applies.
type MatchKind int

const (
	// MatchNumeric compares value_number with Operator against Number (and Upper for between).
	MatchNumeric MatchKind = iota + 1
	// MatchTextContains is a case-insensitive substring test on value_text.
	MatchTextContains
	// MatchTextEquals is a case-insensitive equality test on value_text.
	MatchTextEquals
	// MatchTextNonEmpty requires a non-blank value_text.
	MatchTextNonEmpty
	// MatchListContainsAny requires value_json to contain any of Options.
	MatchListContainsAny
	// MatchBoolean compares value_boolean with Bool.
	MatchBoolean
)

// Numeric comparison operators.
const (
	OpGreaterOrEqual = ">="
	OpLessOrEqual    = "<="
	OpEqual          = "="
	OpBetween        = "between"
)

// AnswerMatch describes an answer-level predicate. An empty QuestionIDs list
// matches nothing.
type AnswerMatch struct {
	QuestionIDs []string
	Kind        MatchKind
	Operator    string
	Number      float64
	Upper       float64
	Text        string
	Options     []string
	Bool        bool
	// From and To bound the entry date (inclusive) before Limit is applied.
	From string
	To   string
	// Limit caps the number of entry ids returned, newest first; zero means no cap.
	Limit int
}

// ValidOperator reports whether op is a supported numeric operator.
func ValidOperator(op string) bool {
	switch op {
	case OpGreaterOrEqual, OpLessOrEqual, OpEqual, OpBetween:
		return true
	}
	return false
}

// EntryFilter narrows ListEntries. When ByIDs is set only entries whose id is
// in IDs are returned, so an empty IDs list yields nothing. SubmittedOnly
// skips drafts.
type EntryFilter struct {
	IDs           []string
	ByIDs         bool
	From          string
	To            string
	SubmittedOnly bool
	Limit         int
	Ascending     bool
}

// IntegrityReport lists invariant violations found by Integrity.
type IntegrityReport struct {
	// DraftMismatches holds dates whose is_draft disagrees with completed_at.
	DraftMismatches []string
	// ColumnCountViolations counts answers without exactly one populated value column.
	ColumnCountViolations int
	// TypeMismatches counts answers whose populated column does not match the question type.
	TypeMismatches int
}

// OK reports whether no violations were found.
func (r IntegrityReport) OK() bool {
	return len(r.DraftMismatches) == 0 && r.ColumnCountViolations == 0 && r.TypeMismatches == 0
}

// TypeMismatchQuery counts answers whose value column does not match the
// catalog type of their question. It is portable across both dialects.
const TypeMismatchQuery = `
	SELECT count(*) FROM journal_answer a
	JOIN question_catalog q ON q.id = a.question_id
	WHERE (q.question_type IN ('text', 'date') AND a.value_text IS NULL)
	   OR (q.question_type IN ('number', 'rating') AND a.value_number IS NULL)
	   OR (q.question_type = 'boolean' AND a.value_boolean IS NULL)
	   OR (q.question_type = 'multiselect' AND a.value_json IS NULL)`
