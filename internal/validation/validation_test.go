package validation

import (
	"strings"
	"testing"

	"github.com/julianstephens/daylog/internal/models"
)

func hasConflict(result ValidationResult, typ ConflictType) bool {
	for _, conflict := range result.Conflicts {
		if conflict.Type == typ {
			return true
		}
	}
	return false
}

func TestValidateQuestions_DuplicateKeys(t *testing.T) {
	validator := New()

	questions := []models.Question{
		{Key: "energy", Type: models.QuestionRating, Wording: "Energy"},
		{Key: "rose", Type: models.QuestionText, Wording: "Rose"},
		{Key: "energy", Type: models.QuestionRating, Wording: "Energy again"}, // Duplicate
	}

	result := validator.ValidateQuestions(questions)

	if !result.HasConflicts() {
		t.Fatal("Expected to detect duplicate question keys")
	}
	if !hasConflict(result, ConflictDuplicateKey) {
		t.Error("Expected ConflictDuplicateKey conflict type")
	}
}

func TestValidateQuestions_Shape(t *testing.T) {
	tests := []struct {
		name     string
		question models.Question
		want     ConflictType
	}{
		{name: "missing key", question: models.Question{Type: models.QuestionText, Wording: "x"}, want: ConflictMissingKey},
		{name: "missing wording", question: models.Question{Key: "a", Type: models.QuestionText}, want: ConflictMissingWording},
		{name: "unknown type", question: models.Question{Key: "a", Type: "slider", Wording: "x"}, want: ConflictUnknownType},
		{name: "multiselect without options", question: models.Question{Key: "a", Type: models.QuestionMultiselect, Wording: "x"}, want: ConflictMissingOptions},
		{name: "inverted bounds", question: models.Question{Key: "a", Type: models.QuestionRating, Wording: "x", Metadata: map[string]any{"min": 10, "max": 0}}, want: ConflictInvalidBounds},
	}

	validator := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.ValidateQuestions([]models.Question{tt.question})
			if !hasConflict(result, tt.want) {
				t.Errorf("expected %s, got %s", tt.want, result.FormatReport())
			}
		})
	}
}

func TestValidateQuestions_NoConflicts(t *testing.T) {
	validator := New()

	questions := []models.Question{
		{Key: "day_quality", Type: models.QuestionRating, Wording: "Day Quality", Metadata: map[string]any{"min": 0, "max": 10}},
		{Key: "workouts", Type: models.QuestionMultiselect, Wording: "Workouts", Metadata: map[string]any{"options": []any{"Push", "Pull"}}},
		{Key: "day_date", Type: models.QuestionDate, Wording: "Date"},
	}

	result := validator.ValidateQuestions(questions)
	if result.HasConflicts() {
		t.Errorf("Expected no conflicts, got: %s", result.FormatReport())
	}
	if result.FormatReport() != "No conflicts detected." {
		t.Errorf("unexpected report %q", result.FormatReport())
	}
}

func TestValidationResultError(t *testing.T) {
	result := New().ValidateQuestions([]models.Question{{Key: "a", Type: "bogus", Wording: "x"}})
	if !strings.Contains(result.Error(), "unknown type") {
		t.Errorf("Error() = %q", result.Error())
	}
}

func TestValidateAnswers(t *testing.T) {
	validator := New()
	questions := []models.Question{
		{Key: "energy", Type: models.QuestionRating, Metadata: map[string]any{"min": 0, "max": 10}},
		{Key: "workouts", Type: models.QuestionMultiselect, Metadata: map[string]any{"options": []string{"Push", "Pull"}}},
		{Key: "reflection", Type: models.QuestionText},
	}
	entry := models.EntryWithAnswers{
		Entry: &models.Entry{Date: "2024-01-01"},
		Answers: []models.Answer{
			{QuestionKey: "energy", Value: models.NumberValue(11), Type: models.QuestionRating},
			{QuestionKey: "workouts", Value: models.ListValue{"Push", "Yoga"}, Type: models.QuestionMultiselect},
			{QuestionKey: "reflection", Value: models.TextValue("fine"), Type: models.QuestionText},
		},
	}

	result := validator.ValidateAnswers(questions, entry)
	if len(result.Conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %s", result.FormatReport())
	}
	if !hasConflict(result, ConflictAnswerOutOfRange) || !hasConflict(result, ConflictAnswerUnknownOption) {
		t.Errorf("unexpected conflicts: %s", result.FormatReport())
	}

	if New().ValidateAnswers(questions, models.EntryWithAnswers{}).HasConflicts() {
		t.Error("missing entry should produce no conflicts")
	}
}
