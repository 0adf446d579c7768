package models

// QuestionType is the declared type of a journal question.
// It decides which physical column an answer is stored in.
type QuestionType string

const (
	QuestionText        QuestionType = "text"
	QuestionNumber      QuestionType = "number"
	QuestionRating      QuestionType = "rating"
	QuestionBoolean     QuestionType = "boolean"
	QuestionMultiselect QuestionType = "multiselect"
	QuestionDate        QuestionType = "date"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []QuestionType{
	QuestionText,
	QuestionNumber,
	QuestionRating,
	QuestionBoolean,
	QuestionMultiselect,
	QuestionDate,
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsNumeric reports whether answers of this type live in the numeric column.
func (t QuestionType) IsNumeric() bool {
	return t == QuestionNumber || t == QuestionRating
}

// IsTextual reports whether answers of this type live in the text column.
func (t QuestionType) IsTextual() bool {
	return t == QuestionText || t == QuestionDate
}

// Question is a single entry in the question catalog.
type Question struct {
	ID           string         `json:"id" yaml:"-"`
	Key          string         `json:"key" yaml:"key"`
	Type         QuestionType   `json:"question_type" yaml:"question_type"`
	Wording      string         `json:"wording" yaml:"wording"`
	Description  string         `json:"description,omitempty" yaml:"description"`
	DisplayOrder int            `json:"display_order" yaml:"display_order"`
	Metadata     map[string]any `json:"metadata" yaml:"metadata"`
}

// Options returns the multiselect options declared in the question metadata.
func (q Question) Options() []string {
	raw, ok := q.Metadata["options"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Bounds returns the min/max metadata of a numeric question, if declared.
func (q Question) Bounds() (min, max float64, ok bool) {
	lo, okLo := toFloat(q.Metadata["min"])
	hi, okHi := toFloat(q.Metadata["max"])
	if !okLo || !okHi {
		return 0, 0, false
	}
	return lo, hi, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
