package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/daylog/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateKey        ConflictType = "duplicate_key"
	ConflictMissingKey          ConflictType = "missing_key"
	ConflictMissingWording      ConflictType = "missing_wording"
	ConflictUnknownType         ConflictType = "unknown_type"
	ConflictMissingOptions      ConflictType = "missing_options"
	ConflictInvalidBounds       ConflictType = "invalid_bounds"
	ConflictAnswerOutOfRange    ConflictType = "answer_out_of_range"
	ConflictAnswerUnknownOption ConflictType = "answer_unknown_option"
)

// Conflict represents a detected problem in a question set or an entry
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string // YYYY-MM-DD format (if applicable)
	Key         string // question key involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Error joins the conflict descriptions so a result can be returned as an error.
func (vr *ValidationResult) Error() string {
	parts := make([]string, 0, len(vr.Conflicts))
	for _, c := range vr.Conflicts {
		parts = append(parts, c.Description)
	}
	return "invalid question set: " + strings.Join(parts, "; ")
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, conflict := range vr.Conflicts {
		report += fmt.Sprintf("- %s\n", conflict.Description)
	}
	return report
}

// Validator validates question sets and stored answers
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateQuestions checks a question set before it is written to the catalog.
func (v *Validator) ValidateQuestions(questions []models.Question) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	seen := make(map[string]int)
	for i, q := range questions {
		key := strings.TrimSpace(q.Key)
		if key == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMissingKey,
				Description: fmt.Sprintf("Question #%d has no key", i+1),
			})
			continue
		}
		seen[key]++

		if strings.TrimSpace(q.Wording) == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMissingWording,
				Description: fmt.Sprintf("Question %q has no wording", key),
				Key:         key,
			})
		}

		if !q.Type.Valid() {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnknownType,
				Description: fmt.Sprintf("Question %q has unknown type %q", key, q.Type),
				Key:         key,
			})
			continue
		}

		if q.Type == models.QuestionMultiselect && len(q.Options()) == 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMissingOptions,
				Description: fmt.Sprintf("Multiselect question %q declares no options", key),
				Key:         key,
			})
		}

		if q.Type.IsNumeric() {
			if lo, hi, ok := q.Bounds(); ok && lo > hi {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictInvalidBounds,
					Description: fmt.Sprintf("Question %q has min %v greater than max %v", key, lo, hi),
					Key:         key,
				})
			}
		}
	}

	var dupes []string
	for key, n := range seen {
		if n > 1 {
			dupes = append(dupes, key)
		}
	}
	sort.Strings(dupes)
	for _, key := range dupes {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateKey,
			Description: fmt.Sprintf("Duplicate question key: %q (%d times)", key, seen[key]),
			Key:         key,
		})
	}

	return result
}

// ValidateAnswers checks stored answers against the catalog metadata. These
// are advisory: values outside declared bounds or options are still stored.
func (v *Validator) ValidateAnswers(questions []models.Question, entry models.EntryWithAnswers) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	if entry.Entry == nil {
		return result
	}

	byKey := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byKey[q.Key] = q
	}

	for _, a := range entry.Answers {
		q, ok := byKey[a.QuestionKey]
		if !ok || a.Value == nil {
			continue
		}

		switch val := a.Value.(type) {
		case models.NumberValue:
			lo, hi, ok := q.Bounds()
			if ok && (float64(val) < lo || float64(val) > hi) {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictAnswerOutOfRange,
					Description: fmt.Sprintf("%s: %s = %v is outside [%v, %v]", entry.Entry.Date, q.Key, float64(val), lo, hi),
					Date:        entry.Entry.Date,
					Key:         q.Key,
				})
			}
		case models.ListValue:
			options := q.Options()
			if len(options) == 0 {
				continue
			}
			allowed := make(map[string]bool, len(options))
			for _, o := range options {
				allowed[o] = true
			}
			for _, item := range val {
				if !allowed[item] {
					result.Conflicts = append(result.Conflicts, Conflict{
						Type:        ConflictAnswerUnknownOption,
						Description: fmt.Sprintf("%s: %s contains unknown option %q", entry.Entry.Date, q.Key, item),
						Date:        entry.Entry.Date,
						Key:         q.Key,
					})
				}
			}
		}
	}

	return result
}
