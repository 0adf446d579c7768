package explore

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/julianstephens/daylog/internal/constants"
)

// ParseParams builds a Request from explore query parameters. Parameters that
// do not parse leave their field unset, which the engine treats as a
// malformed query.
func ParseParams(v url.Values) Request {
	req := Request{
		Query: parseQuery(v),
		From:  strings.TrimSpace(v.Get("from")),
		To:    strings.TrimSpace(v.Get("to")),
	}
	return req
}

func parseQuery(v url.Values) Query {
	mode := strings.TrimSpace(v.Get("type"))
	switch mode {
	case ModeNumeric:
		return NumericQuery{
			QuestionKey: strings.TrimSpace(v.Get("question_key")),
			Operator:    strings.TrimSpace(v.Get("operator")),
			Value:       parseFloat(v.Get("value")),
			Value2:      parseFloat(v.Get("value2")),
		}
	case ModePeople, ModePeopleCount:
		return PeopleQuery{
			Name:   v.Get("person_name"),
			Fields: splitList(v.Get("search_fields")),
			Count:  mode == ModePeopleCount,
		}
	case ModeActivity:
		return ActivityQuery{Text: v.Get("search_text"), Fields: splitList(v.Get("search_fields"))}
	case ModeWorkout:
		return OptionQuery{QuestionKey: constants.QuestionWorkouts, Options: splitList(v.Get("workout_types"))}
	case ModeHabit:
		return OptionQuery{QuestionKey: constants.QuestionDailyHabits, Options: splitList(v.Get("habit_types"))}
	case ModeTextSearch:
		return TextSearchQuery{Text: v.Get("search_text"), Fields: splitList(v.Get("search_fields"))}
	case ModeRBT:
		return RBTQuery{Field: strings.TrimSpace(v.Get("rbt_field")), Search: v.Get("rbt_search")}
	case ModeDatePattern:
		return DatePatternQuery{
			DayOfWeek: parseInt(v.Get("day_of_week")),
			Month:     parseInt(v.Get("month")),
			Year:      parseInt(v.Get("year")),
		}
	case ModeCombination:
		q := CombinationQuery{Logic: strings.TrimSpace(v.Get("logic"))}
		if raw := v.Get("conditions"); raw != "" {
			conds, err := ParseConditions(raw)
			if err != nil {
				return invalidQuery{mode: mode}
			}
			q.Conditions = conds
		}
		return q
	case ModeStreak:
		q := StreakQuery{}
		if raw := v.Get("streak_condition"); raw != "" {
			cond, err := ParseCondition(raw)
			if err != nil {
				return invalidQuery{mode: mode}
			}
			q.Condition = cond
		}
		return q
	}
	return invalidQuery{mode: mode}
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Present but unparsable; out of every valid range.
		n = -1
	}
	return &n
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
