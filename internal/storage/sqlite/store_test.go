package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/daylog/internal/codec"
	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "daylog.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

var testQuestions = []models.Question{
	{Key: "day_quality", Type: models.QuestionRating, Wording: "Day quality", DisplayOrder: 1, Metadata: map[string]any{"min": 1, "max": 10}},
	{Key: "reflection", Type: models.QuestionText, Wording: "Reflection", DisplayOrder: 2},
	{Key: "workouts", Type: models.QuestionMultiselect, Wording: "Workouts", DisplayOrder: 3, Metadata: map[string]any{"options": []string{"Push", "Pull", "Legs"}}},
	{Key: "alcohol_free", Type: models.QuestionBoolean, Wording: "Alcohol free", DisplayOrder: 4},
}

func seedQuestions(t *testing.T, store *Store) map[string]models.Question {
	t.Helper()
	ctx := context.Background()
	if err := store.UpsertQuestions(ctx, testQuestions); err != nil {
		t.Fatalf("UpsertQuestions: %v", err)
	}
	qs, err := store.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	byKey := make(map[string]models.Question, len(qs))
	for _, q := range qs {
		byKey[q.Key] = q
	}
	return byKey
}

func row(q models.Question, raw any) storage.AnswerRow {
	return storage.AnswerRow{QuestionID: q.ID, Columns: codec.Encode(raw, q.Type)}
}

func TestInitCreatesSchema(t *testing.T) {
	store := setupTestStore(t)
	for _, table := range []string{"question_catalog", "journal_entry", "journal_answer", "schema_version"} {
		exists, err := store.tableExists(table)
		if err != nil {
			t.Fatalf("tableExists(%s): %v", table, err)
		}
		if !exists {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Fatal("expected Load to fail for a missing database")
	}
}

func TestQuestionsRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	byKey := seedQuestions(t, store)

	if len(byKey) != len(testQuestions) {
		t.Fatalf("expected %d questions, got %d", len(testQuestions), len(byKey))
	}
	if got := byKey["workouts"].Options(); len(got) != 3 || got[0] != "Push" {
		t.Errorf("workouts options = %v", got)
	}
	if lo, hi, ok := byKey["day_quality"].Bounds(); !ok || lo != 1 || hi != 10 {
		t.Errorf("day_quality bounds = %v %v %v", lo, hi, ok)
	}

	qs, err := store.QuestionsByKeys(context.Background(), []string{"reflection", "nope"})
	if err != nil {
		t.Fatalf("QuestionsByKeys: %v", err)
	}
	if len(qs) != 1 || qs[0].Key != "reflection" {
		t.Errorf("QuestionsByKeys = %+v", qs)
	}
}

func TestUpsertQuestionsRejectsTypeChangeWithAnswers(t *testing.T) {
	store := setupTestStore(t)
	byKey := seedQuestions(t, store)
	ctx := context.Background()

	// no answers yet: type change allowed
	changed := testQuestions[1]
	changed.Type = models.QuestionDate
	if err := store.UpsertQuestions(ctx, []models.Question{changed}); err != nil {
		t.Fatalf("type change without answers should succeed: %v", err)
	}

	q := byKey["day_quality"]
	if _, err := store.ReplaceEntry(ctx, models.Entry{Date: "2024-01-01", IsDraft: true}, []storage.AnswerRow{row(q, 7)}); err != nil {
		t.Fatalf("ReplaceEntry: %v", err)
	}

	changed = testQuestions[0]
	changed.Type = models.QuestionText
	err := store.UpsertQuestions(ctx, []models.Question{changed})
	if !errors.Is(err, storage.ErrQuestionTypeChange) {
		t.Fatalf("expected ErrQuestionTypeChange, got %v", err)
	}
	if apperrors.IsRetryable(err) {
		t.Error("type change error must not be retryable")
	}
}

func TestReplaceEntryFullReplace(t *testing.T) {
	store := setupTestStore(t)
	byKey := seedQuestions(t, store)
	ctx := context.Background()

	first, err := store.ReplaceEntry(ctx, models.Entry{Date: "2024-01-02", IsDraft: true}, []storage.AnswerRow{
		row(byKey["day_quality"], 6),
		row(byKey["reflection"], "first pass"),
	})
	if err != nil {
		t.Fatalf("ReplaceEntry: %v", err)
	}

	completed := time.Now().UTC().Truncate(time.Second)
	second, err := store.ReplaceEntry(ctx, models.Entry{Date: "2024-01-02", CompletedAt: &completed}, []storage.AnswerRow{
		row(byKey["workouts"], []string{"Pull", "Push"}),
	})
	if err != nil {
		t.Fatalf("second ReplaceEntry: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("entry id changed on replace: %s -> %s", first.ID, second.ID)
	}

	entry, err := store.GetEntryByDate(ctx, "2024-01-02")
	if err != nil || entry == nil {
		t.Fatalf("GetEntryByDate: %v %v", entry, err)
	}
	if entry.IsDraft || entry.CompletedAt == nil {
		t.Errorf("expected submitted entry, got %+v", entry)
	}

	answers, err := store.AnswersFor(ctx, []string{entry.ID})
	if err != nil {
		t.Fatalf("AnswersFor: %v", err)
	}
	if len(answers) != 1 || answers[0].QuestionKey != "workouts" {
		t.Fatalf("expected only workouts answer after replace, got %+v", answers)
	}
	got := codec.Decode(answers[0].Columns, answers[0].QuestionType)
	if list, ok := got.(models.ListValue); !ok || len(list) != 2 || list[0] != "Pull" {
		t.Errorf("decoded workouts = %#v", got)
	}
}

func TestReplaceEntryRollsBackOnFailure(t *testing.T) {
	store := setupTestStore(t)
	byKey := seedQuestions(t, store)
	ctx := context.Background()

	entry, err := store.ReplaceEntry(ctx, models.Entry{Date: "2024-01-03", IsDraft: true}, []storage.AnswerRow{
		row(byKey["day_quality"], 6),
		row(byKey["reflection"], "kept"),
	})
	if err != nil {
		t.Fatalf("ReplaceEntry: %v", err)
	}

	completed := time.Now().UTC()
	_, err = store.ReplaceEntry(ctx, models.Entry{Date: "2024-01-03", CompletedAt: &completed}, []storage.AnswerRow{
		{QuestionID: "no-such-question", Columns: codec.Encode(3, models.QuestionRating)},
	})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}
	if !strings.Contains(strings.ToUpper(err.Error()), "FOREIGN KEY") {
		t.Errorf("expected foreign key error, got %v", err)
	}

	got, err := store.GetEntryByDate(ctx, "2024-01-03")
	if err != nil || got == nil {
		t.Fatalf("GetEntryByDate: %v %v", got, err)
	}
	if !got.IsDraft || got.CompletedAt != nil {
		t.Errorf("entry row changed by failed replace: %+v", got)
	}
	answers, err := store.AnswersFor(ctx, []string{entry.ID})
	if err != nil {
		t.Fatalf("AnswersFor: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected original 2 answers, got %+v", answers)
	}
	for _, a := range answers {
		switch a.QuestionKey {
		case "day_quality":
			if v := codec.Decode(a.Columns, a.QuestionType); v != models.NumberValue(6) {
				t.Errorf("day_quality = %#v, want 6", v)
			}
		case "reflection":
			if v := codec.Decode(a.Columns, a.QuestionType); v != models.TextValue("kept") {
				t.Errorf("reflection = %#v, want kept", v)
			}
		default:
			t.Errorf("unexpected answer %s", a.QuestionKey)
		}
	}
}

func TestGetEntryByDateMissing(t *testing.T) {
	store := setupTestStore(t)
	entry, err := store.GetEntryByDate(context.Background(), "2030-05-05")
	if err != nil {
		t.Fatalf("GetEntryByDate: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil entry, got %+v", entry)
	}
}

func TestDeleteEntryCascades(t *testing.T) {
	store := setupTestStore(t)
	byKey := seedQuestions(t, store)
	ctx := context.Background()

	entry, err := store.ReplaceEntry(ctx, models.Entry{Date: "2024-02-01", IsDraft: true}, []storage.AnswerRow{row(byKey["reflection"], "x")})
	if err != nil {
		t.Fatalf("ReplaceEntry: %v", err)
	}

	deleted, err := store.DeleteEntry(ctx, "2024-02-01")
	if err != nil || !deleted {
		t.Fatalf("DeleteEntry = %v, %v", deleted, err)
	}
	var n int
	if err := store.GetDB().QueryRow(`SELECT count(*) FROM journal_answer WHERE entry_id = ?`, entry.ID).Scan(&n); err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if n != 0 {
		t.Errorf("expected answers to cascade, %d left", n)
	}

	deleted, err = store.DeleteEntry(ctx, "2024-02-01")
	if err != nil || deleted {
		t.Errorf("second DeleteEntry = %v, %v", deleted, err)
	}
}

func TestListEntries(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	var ids []string
	for _, date := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"} {
		e, err := store.ReplaceEntry(ctx, models.Entry{Date: date, IsDraft: date != "2024-03-02"}, nil)
		if err != nil {
			t.Fatalf("ReplaceEntry(%s): %v", date, err)
		}
		ids = append(ids, e.ID)
	}

	tests := []struct {
		name   string
		filter storage.EntryFilter
		want   []string
	}{
		{name: "all newest first", filter: storage.EntryFilter{}, want: []string{"2024-03-04", "2024-03-03", "2024-03-02", "2024-03-01"}},
		{name: "range", filter: storage.EntryFilter{From: "2024-03-02", To: "2024-03-03"}, want: []string{"2024-03-03", "2024-03-02"}},
		{name: "ascending with limit", filter: storage.EntryFilter{Ascending: true, Limit: 2}, want: []string{"2024-03-01", "2024-03-02"}},
		{name: "by ids", filter: storage.EntryFilter{ByIDs: true, IDs: []string{ids[0], ids[3]}}, want: []string{"2024-03-04", "2024-03-01"}},
		{name: "by empty ids", filter: storage.EntryFilter{ByIDs: true}, want: nil},
		{name: "submitted only", filter: storage.EntryFilter{SubmittedOnly: true}, want: []string{"2024-03-02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.ListEntries(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListEntries: %v", err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.Date)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListEntries = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ListEntries[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMatchAnswers(t *testing.T) {
	store := setupTestStore(t)
	byKey := seedQuestions(t, store)
	ctx := context.Background()

	fixtures := []struct {
		date    string
		rating  int
		text    string
		workout []string
		dry     bool
	}{
		{"2024-04-01", 5, "Coffee with Sam", []string{"Push"}, true},
		{"2024-04-02", 8, "quiet day", []string{"Legs"}, false},
		{"2024-04-03", 9, "   ", []string{"Pull", "Legs"}, true},
		{"2024-04-04", 7, "SAM called", nil, false},
	}
	dates := map[string]string{}
	for _, f := range fixtures {
		rows := []storage.AnswerRow{
			row(byKey["day_quality"], f.rating),
			row(byKey["reflection"], f.text),
			row(byKey["alcohol_free"], f.dry),
		}
		if f.workout != nil {
			rows = append(rows, row(byKey["workouts"], f.workout))
		}
		e, err := store.ReplaceEntry(ctx, models.Entry{Date: f.date, IsDraft: true}, rows)
		if err != nil {
			t.Fatalf("ReplaceEntry: %v", err)
		}
		dates[e.ID] = f.date
	}

	tests := []struct {
		name  string
		match storage.AnswerMatch
		want  []string
	}{
		{name: ">=", match: storage.AnswerMatch{QuestionIDs: []string{byKey["day_quality"].ID}, Kind: storage.MatchNumeric, Operator: ">=", Number: 8}, want: []string{"2024-04-03", "2024-04-02"}},
		{name: "<=", match: storage.AnswerMatch{QuestionIDs: []string{byKey["day_quality"].ID}, Kind: storage.MatchNumeric, Operator: "<=", Number: 5}, want: []string{"2024-04-01"}},
		{name: "=", match: storage.AnswerMatch{QuestionIDs: []string{byKey["day_quality"].ID}, Kind: storage.MatchNumeric, Operator: "=", Number: 7}, want: []string{"2024-04-04"}},
		{name: "between inclusive", match: storage.AnswerMatch{QuestionIDs: []string{byKey["day_quality"].ID}, Kind: storage.MatchNumeric, Operator: "between", Number: 7, Upper: 8}, want: []string{"2024-04-04", "2024-04-02"}},
		{name: "unknown operator", match: storage.AnswerMatch{QuestionIDs: []string{byKey["day_quality"].ID}, Kind: storage.MatchNumeric, Operator: "!="}, want: nil},
		{name: "contains case-insensitive", match: storage.AnswerMatch{QuestionIDs: []string{byKey["reflection"].ID}, Kind: storage.MatchTextContains, Text: "sam"}, want: []string{"2024-04-04", "2024-04-01"}},
		{name: "equals case-insensitive", match: storage.AnswerMatch{QuestionIDs: []string{byKey["reflection"].ID}, Kind: storage.MatchTextEquals, Text: "QUIET DAY"}, want: []string{"2024-04-02"}},
		{name: "non-empty", match: storage.AnswerMatch{QuestionIDs: []string{byKey["reflection"].ID}, Kind: storage.MatchTextNonEmpty}, want: []string{"2024-04-04", "2024-04-02", "2024-04-01"}},
		{name: "list contains any", match: storage.AnswerMatch{QuestionIDs: []string{byKey["workouts"].ID}, Kind: storage.MatchListContainsAny, Options: []string{"Legs", "Core"}}, want: []string{"2024-04-03", "2024-04-02"}},
		{name: "list no options", match: storage.AnswerMatch{QuestionIDs: []string{byKey["workouts"].ID}, Kind: storage.MatchListContainsAny}, want: nil},
		{name: "boolean", match: storage.AnswerMatch{QuestionIDs: []string{byKey["alcohol_free"].ID}, Kind: storage.MatchBoolean, Bool: true}, want: []string{"2024-04-03", "2024-04-01"}},
		{name: "no questions", match: storage.AnswerMatch{Kind: storage.MatchTextNonEmpty}, want: nil},
		{name: "limit", match: storage.AnswerMatch{QuestionIDs: []string{byKey["day_quality"].ID}, Kind: storage.MatchNumeric, Operator: ">=", Number: 0, Limit: 2}, want: []string{"2024-04-04", "2024-04-03"}},
		{name: "range before limit", match: storage.AnswerMatch{QuestionIDs: []string{byKey["day_quality"].ID}, Kind: storage.MatchNumeric, Operator: ">=", Number: 0, From: "2024-04-01", To: "2024-04-02", Limit: 1}, want: []string{"2024-04-02"}},
		{name: "open-ended range", match: storage.AnswerMatch{QuestionIDs: []string{byKey["reflection"].ID}, Kind: storage.MatchTextContains, Text: "sam", To: "2024-04-03"}, want: []string{"2024-04-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := store.MatchAnswers(ctx, tt.match)
			if err != nil {
				t.Fatalf("MatchAnswers: %v", err)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("MatchAnswers returned %d ids, want %d (%v)", len(ids), len(tt.want), tt.want)
			}
			for i, id := range ids {
				if dates[id] != tt.want[i] {
					t.Errorf("match[%d] = %s, want %s", i, dates[id], tt.want[i])
				}
			}
		})
	}
}

func TestIntegrity(t *testing.T) {
	store := setupTestStore(t)
	byKey := seedQuestions(t, store)
	ctx := context.Background()

	if _, err := store.ReplaceEntry(ctx, models.Entry{Date: "2024-05-01", IsDraft: true}, []storage.AnswerRow{row(byKey["reflection"], "ok")}); err != nil {
		t.Fatalf("ReplaceEntry: %v", err)
	}
	report, err := store.Integrity(ctx)
	if err != nil {
		t.Fatalf("Integrity: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected clean report, got %+v", report)
	}

	db := store.GetDB()
	if _, err := db.Exec(`UPDATE journal_entry SET is_draft = 0 WHERE date = '2024-05-01'`); err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}
	if _, err := db.Exec(`UPDATE journal_answer SET value_number = 3`); err != nil {
		t.Fatalf("corrupt answer: %v", err)
	}

	report, err = store.Integrity(ctx)
	if err != nil {
		t.Fatalf("Integrity: %v", err)
	}
	if len(report.DraftMismatches) != 1 || report.DraftMismatches[0] != "2024-05-01" {
		t.Errorf("DraftMismatches = %v", report.DraftMismatches)
	}
	if report.ColumnCountViolations != 1 {
		t.Errorf("ColumnCountViolations = %d, want 1", report.ColumnCountViolations)
	}
	if report.OK() {
		t.Error("expected report to flag violations")
	}
}

func TestStorageErrorsAreRetryable(t *testing.T) {
	store := setupTestStore(t)
	store.GetDB().Close()

	_, err := store.ListEntries(context.Background(), storage.EntryFilter{})
	if err == nil {
		t.Fatal("expected error from closed database")
	}
	if !apperrors.IsRetryable(err) {
		t.Errorf("expected retryable storage error, got %v", err)
	}
}
