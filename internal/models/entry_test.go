package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestAnswerInputUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		key     string
		value   any
		typ     QuestionType
	}{
		{name: "value/type", payload: `{"question_key":"energy","value":7,"type":"rating"}`, key: "energy", value: json.Number("7"), typ: QuestionRating},
		{name: "answer_value alias", payload: `{"question_key":"rose","answer_value":"sunrise","answer_type":"text"}`, key: "rose", value: "sunrise", typ: QuestionText},
		{name: "null value", payload: `{"question_key":"rose","value":null}`, key: "rose", value: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in AnswerInput
			if err := json.Unmarshal([]byte(tt.payload), &in); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if in.QuestionKey != tt.key || in.Value != tt.value || in.Type != tt.typ {
				t.Errorf("got %+v", in)
			}
		})
	}

	var list AnswerInput
	if err := json.Unmarshal([]byte(`{"question_key":"workouts","value":["Push","Pull"]}`), &list); err != nil {
		t.Fatalf("Unmarshal list: %v", err)
	}
	if items, ok := list.Value.([]any); !ok || len(items) != 2 {
		t.Errorf("list value = %#v", list.Value)
	}
}

func TestEntryResultNeverNilAnswers(t *testing.T) {
	r := EntryWithAnswers{Entry: &Entry{ID: "x", Date: "2024-01-01", IsDraft: true}}.Result()
	if r.Answers == nil {
		t.Fatal("Result answers should be an empty slice")
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"id":"x","date":"2024-01-01","is_draft":true,"completed_at":null,"answers":[]}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}
}

func TestValueJSON(t *testing.T) {
	answers := []Answer{
		{QuestionKey: "a", Value: TextValue("hi"), Type: QuestionText},
		{QuestionKey: "b", Value: NumberValue(7.5), Type: QuestionRating},
		{QuestionKey: "c", Value: BoolValue(true), Type: QuestionBoolean},
		{QuestionKey: "d", Value: ListValue{"Push"}, Type: QuestionMultiselect},
		{QuestionKey: "e", Value: nil, Type: QuestionText},
	}
	b, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[{"question_key":"a","value":"hi","type":"text"},{"question_key":"b","value":7.5,"type":"rating"},{"question_key":"c","value":true,"type":"boolean"},{"question_key":"d","value":["Push"],"type":"multiselect"},{"question_key":"e","value":null,"type":"text"}]`
	if string(b) != want {
		t.Errorf("Marshal = %s", b)
	}
}

func TestAnswerUnmarshal(t *testing.T) {
	tests := []struct {
		payload string
		want    Value
	}{
		{`{"question_key":"energy","value":7,"type":"rating"}`, NumberValue(7)},
		{`{"question_key":"gym","value":true,"type":"boolean"}`, BoolValue(true)},
		{`{"question_key":"workouts","value":["Core","Legs"],"type":"multiselect"}`, ListValue{"Core", "Legs"}},
		{`{"question_key":"rose","value":"sun","type":"text"}`, TextValue("sun")},
		{`{"question_key":"rose","value":null,"type":"text"}`, nil},
	}
	for _, tt := range tests {
		var a Answer
		if err := json.Unmarshal([]byte(tt.payload), &a); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.payload, err)
		}
		if !reflect.DeepEqual(a.Value, tt.want) {
			t.Errorf("Unmarshal(%s) value = %#v, want %#v", tt.payload, a.Value, tt.want)
		}
	}

	var a Answer
	if err := json.Unmarshal([]byte(`{"question_key":"energy","value":"high","type":"rating"}`), &a); err == nil {
		t.Error("expected error for a text value on a rating question")
	}
}
