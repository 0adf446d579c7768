package models

import (
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	KindText ValueKind = iota + 1
	KindNumber
	KindBoolean
	KindList
)

// Value is the decoded value of an answer. Exactly one variant is held;
// a nil Value means no value is stored.
type Value interface {
	Kind() ValueKind
	String() string
}

type (
	TextValue   string
	NumberValue float64
	BoolValue   bool
	ListValue   []string
)

func (TextValue) Kind() ValueKind   { return KindText }
func (NumberValue) Kind() ValueKind { return KindNumber }
func (BoolValue) Kind() ValueKind   { return KindBoolean }
func (ListValue) Kind() ValueKind   { return KindList }

func (v TextValue) String() string { return string(v) }

func (v NumberValue) String() string {
	return strconv.FormatFloat(float64(v), 'f', -1, 64)
}

func (v BoolValue) String() string { return strconv.FormatBool(bool(v)) }

func (v ListValue) String() string { return strings.Join(v, ", ") }

// FormatValue renders v for display, returning "" for a nil Value.
func FormatValue(v Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}
