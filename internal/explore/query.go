// Package explore answers ad hoc questions over the journal: numeric
// thresholds, free-text mentions, multiselect options, calendar patterns,
// condition combinations and streaks.
package explore

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/julianstephens/daylog/internal/constants"
)

// Mode tags accepted in the type parameter.
const (
	ModeNumeric     = "numeric"
	ModePeople      = "people"
	ModePeopleCount = "people_count"
	ModeActivity    = "activity"
	ModeWorkout     = "workout"
	ModeHabit       = "habit"
	ModeTextSearch  = "text_search"
	ModeRBT         = "rbt"
	ModeDatePattern = "date_pattern"
	ModeCombination = "combination"
	ModeStreak      = "streak"
)

// Condition operators for text and multiselect questions. Numeric questions
// use the storage operators.
const (
	OpContains = "contains"
	OpEquals   = "="
)

// Combination logic.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// Query is one of the exploration variants declared in this package.
type Query interface {
	Mode() string
	isQuery()
}

// Request is a query restricted to an optional inclusive date range.
type Request struct {
	Query Query
	From  string
	To    string
}

type NumericQuery struct {
	QuestionKey string
	Operator    string
	Value       *float64
	Value2      *float64
}

// PeopleQuery finds entries mentioning Name. Count only changes the mode tag.
type PeopleQuery struct {
	Name   string
	Fields []string
	Count  bool
}

type ActivityQuery struct {
	Text   string
	Fields []string
}

// OptionQuery matches entries whose multiselect answer for QuestionKey
// contains any of Options.
type OptionQuery struct {
	QuestionKey string
	Options     []string
}

type TextSearchQuery struct {
	Text   string
	Fields []string
}

// RBTQuery selects entries with a non-empty rose, bud or thorn answer,
// optionally containing Search.
type RBTQuery struct {
	Field  string
	Search string
}

// DatePatternQuery filters by calendar parts. Nil parts are not filtered on.
// DayOfWeek counts from 0 = Sunday.
type DatePatternQuery struct {
	DayOfWeek *int
	Month     *int
	Year      *int
}

type CombinationQuery struct {
	Conditions []Condition
	Logic      string
}

type StreakQuery struct {
	Condition *Condition
}

// invalidQuery stands in for anything that could not be parsed. It always
// yields an empty result.
type invalidQuery struct {
	mode string
}

func (NumericQuery) Mode() string { return ModeNumeric }
func (q PeopleQuery) Mode() string {
	if q.Count {
		return ModePeopleCount
	}
	return ModePeople
}
func (ActivityQuery) Mode() string { return ModeActivity }
func (q OptionQuery) Mode() string {
	if q.QuestionKey == constants.QuestionDailyHabits {
		return ModeHabit
	}
	return ModeWorkout
}
func (TextSearchQuery) Mode() string  { return ModeTextSearch }
func (RBTQuery) Mode() string         { return ModeRBT }
func (DatePatternQuery) Mode() string { return ModeDatePattern }
func (CombinationQuery) Mode() string { return ModeCombination }
func (StreakQuery) Mode() string      { return ModeStreak }
func (q invalidQuery) Mode() string {
	if q.mode == "" {
		return "invalid"
	}
	return q.mode
}

func (NumericQuery) isQuery()     {}
func (PeopleQuery) isQuery()      {}
func (ActivityQuery) isQuery()    {}
func (OptionQuery) isQuery()      {}
func (TextSearchQuery) isQuery()  {}
func (RBTQuery) isQuery()         {}
func (DatePatternQuery) isQuery() {}
func (CombinationQuery) isQuery() {}
func (StreakQuery) isQuery()      {}
func (invalidQuery) isQuery()     {}

// Condition is a single per-question predicate used by combination and
// streak queries. Value2 is the upper bound for between; a two element
// Value list is accepted as well.
type Condition struct {
	QuestionKey string `json:"question_key"`
	Operator    string `json:"operator"`
	Value       any    `json:"value"`
	Value2      any    `json:"value2,omitempty"`
	Type        string `json:"type,omitempty"`
}

// ParseConditions decodes a JSON list of conditions. Numbers are kept as
// json.Number.
func ParseConditions(raw string) ([]Condition, error) {
	var out []Condition
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseCondition decodes a single JSON condition.
func ParseCondition(raw string) (*Condition, error) {
	var out Condition
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeJSON(raw string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(raw))))
	dec.UseNumber()
	return dec.Decode(v)
}
