package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is the one-per-calendar-date record answers attach to.
type Entry struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"` // YYYY-MM-DD format
	IsDraft     bool       `json:"is_draft"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Answer is a decoded answer as returned to callers.
type Answer struct {
	QuestionKey string       `json:"question_key"`
	Value       Value        `json:"value"`
	Type        QuestionType `json:"type"`
}

// UnmarshalJSON decodes Value into the variant implied by Type.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionKey string          `json:"question_key"`
		Value       json.RawMessage `json:"value"`
		Type        QuestionType    `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.QuestionKey = raw.QuestionKey
	a.Type = raw.Type
	a.Value = nil
	if len(raw.Value) == 0 || bytes.Equal(raw.Value, []byte("null")) {
		return nil
	}

	var err error
	switch {
	case raw.Type.IsNumeric():
		var n float64
		err = json.Unmarshal(raw.Value, &n)
		a.Value = NumberValue(n)
	case raw.Type == QuestionBoolean:
		var b bool
		err = json.Unmarshal(raw.Value, &b)
		a.Value = BoolValue(b)
	case raw.Type == QuestionMultiselect:
		var list []string
		err = json.Unmarshal(raw.Value, &list)
		a.Value = ListValue(list)
	default:
		var s string
		err = json.Unmarshal(raw.Value, &s)
		a.Value = TextValue(s)
	}
	if err != nil {
		a.Value = nil
		return fmt.Errorf("answer %q: %w", raw.QuestionKey, err)
	}
	return nil
}

// AnswerInput is an answer supplied by a caller. Type is informational only;
// the catalog type of QuestionKey decides how Value is stored.
type AnswerInput struct {
	QuestionKey string       `json:"question_key"`
	Value       any          `json:"value"`
	Type        QuestionType `json:"type,omitempty"`
}

// UnmarshalJSON accepts both the value/type field names and the older
// answer_value/answer_type spelling.
func (a *AnswerInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionKey string          `json:"question_key"`
		Value       json.RawMessage `json:"value"`
		Type        QuestionType    `json:"type"`
		AnswerValue json.RawMessage `json:"answer_value"`
		AnswerType  QuestionType    `json:"answer_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.QuestionKey = raw.QuestionKey
	a.Type = raw.Type
	if a.Type == "" {
		a.Type = raw.AnswerType
	}

	value := raw.Value
	if len(value) == 0 {
		value = raw.AnswerValue
	}
	a.Value = nil
	if len(value) > 0 {
		dec := json.NewDecoder(bytes.NewReader(value))
		dec.UseNumber()
		if err := dec.Decode(&a.Value); err != nil {
			return err
		}
	}
	return nil
}

// EntryWithAnswers pairs an entry with its full decoded answer set.
// Entry is nil when no entry exists for the requested date.
type EntryWithAnswers struct {
	Entry   *Entry   `json:"entry"`
	Answers []Answer `json:"answers"`
}

// Answer returns the answer for key, if present.
func (e EntryWithAnswers) Answer(key string) (Answer, bool) {
	for _, a := range e.Answers {
		if a.QuestionKey == key {
			return a, true
		}
	}
	return Answer{}, false
}

// Result flattens the pair into the shape returned by search and exploration.
func (e EntryWithAnswers) Result() EntryResult {
	r := EntryResult{Answers: e.Answers}
	if e.Entry != nil {
		r.ID = e.Entry.ID
		r.Date = e.Entry.Date
		r.IsDraft = e.Entry.IsDraft
		r.CompletedAt = e.Entry.CompletedAt
	}
	if r.Answers == nil {
		r.Answers = []Answer{}
	}
	return r
}

// EntryResult is one item of a search or exploration result.
type EntryResult struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"`
	IsDraft     bool       `json:"is_draft"`
	CompletedAt *time.Time `json:"completed_at"`
	Answers     []Answer   `json:"answers"`
}

// EntryStatus reports whether an entry exists for a date and whether it is a draft.
type EntryStatus struct {
	Exists  bool `json:"exists"`
	IsDraft bool `json:"is_draft"`
}

// Dashboard is every submitted entry, oldest first, with its answers keyed
// by question.
type Dashboard struct {
	Entries []Entry        `json:"entries"`
	Days    []DashboardDay `json:"days"`
}

type DashboardDay struct {
	Date    string           `json:"date"`
	Answers map[string]Value `json:"answers"`
}
