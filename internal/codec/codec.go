// Package codec maps answer values between a question's declared type and the
// four nullable value columns of the answer table.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/models"
)

// Columns is the physical representation of one answer row.
// At most one field is set.
type Columns struct {
	Text    *string
	Number  *float64
	Boolean *bool
	JSON    []byte
}

// Empty reports whether no column is populated.
func (c Columns) Empty() bool {
	return c.Populated() == 0
}

// Populated returns the number of populated columns.
func (c Columns) Populated() int {
	n := 0
	if c.Text != nil {
		n++
	}
	if c.Number != nil {
		n++
	}
	if c.Boolean != nil {
		n++
	}
	if c.JSON != nil {
		n++
	}
	return n
}

// Encode converts raw caller input into the column set for type t.
// Invalid or missing input yields an empty column set.
func Encode(raw any, t models.QuestionType) Columns {
	return ToColumns(Normalize(raw, t))
}

// Decode reads the column matching type t. The other columns are ignored.
func Decode(c Columns, t models.QuestionType) models.Value {
	switch t {
	case models.QuestionNumber, models.QuestionRating:
		if c.Number == nil {
			return nil
		}
		return models.NumberValue(*c.Number)
	case models.QuestionBoolean:
		if c.Boolean == nil {
			return nil
		}
		return models.BoolValue(*c.Boolean)
	case models.QuestionMultiselect:
		if c.JSON == nil {
			return nil
		}
		var list []string
		if err := json.Unmarshal(c.JSON, &list); err != nil {
			return nil
		}
		if list == nil {
			list = []string{}
		}
		return models.ListValue(list)
	default:
		if c.Text == nil {
			return nil
		}
		return models.TextValue(*c.Text)
	}
}

// ToColumns places an already normalized value into its column.
func ToColumns(v models.Value) Columns {
	switch val := v.(type) {
	case models.TextValue:
		s := string(val)
		return Columns{Text: &s}
	case models.NumberValue:
		n := float64(val)
		return Columns{Number: &n}
	case models.BoolValue:
		b := bool(val)
		return Columns{Boolean: &b}
	case models.ListValue:
		list := []string(val)
		if list == nil {
			list = []string{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return Columns{}
		}
		return Columns{JSON: data}
	}
	return Columns{}
}

// Normalize coerces raw input into the Value variant for type t.
// It returns nil when raw cannot represent a value of that type.
func Normalize(raw any, t models.QuestionType) models.Value {
	if raw == nil {
		return nil
	}
	if v, ok := raw.(models.Value); ok {
		if raw = unwrap(v); raw == nil {
			return nil
		}
	}

	switch t {
	case models.QuestionText:
		return toText(raw)
	case models.QuestionDate:
		if tm, ok := raw.(time.Time); ok {
			return models.TextValue(tm.Format(constants.DateFormat))
		}
		return toText(raw)
	case models.QuestionNumber, models.QuestionRating:
		n, ok := toNumber(raw)
		if !ok {
			return nil
		}
		return models.NumberValue(n)
	case models.QuestionBoolean:
		b, ok := toBool(raw)
		if !ok {
			return nil
		}
		return models.BoolValue(b)
	case models.QuestionMultiselect:
		list, ok := toList(raw)
		if !ok {
			return nil
		}
		return models.ListValue(list)
	default:
		if s, ok := raw.(string); ok {
			return models.TextValue(s)
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return nil
		}
		return models.TextValue(string(data))
	}
}

func unwrap(v models.Value) any {
	switch val := v.(type) {
	case models.TextValue:
		return string(val)
	case models.NumberValue:
		return float64(val)
	case models.BoolValue:
		return bool(val)
	case models.ListValue:
		return []string(val)
	}
	return nil
}

func toText(raw any) models.Value {
	switch v := raw.(type) {
	case string:
		return models.TextValue(v)
	case []byte:
		return models.TextValue(string(v))
	case fmt.Stringer:
		return models.TextValue(v.String())
	case []string, []any, map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return models.TextValue(string(data))
	}
	return models.TextValue(fmt.Sprint(raw))
}

func toNumber(raw any) (float64, bool) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int8:
		n = float64(v)
	case int16:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint8:
		n = float64(v)
	case uint16:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	}
	return false, false
}

func toList(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				out = append(out, s)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "[") {
			var list []string
			if err := json.Unmarshal([]byte(s), &list); err != nil {
				return nil, false
			}
			if list == nil {
				list = []string{}
			}
			return list, true
		}
		out := []string{}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, true
	}
	return nil, false
}
