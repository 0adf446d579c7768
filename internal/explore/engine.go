package explore

import (
	"context"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/daylog/internal/codec"
	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/journal"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
	"github.com/julianstephens/daylog/internal/utils"
)

// Engine runs explorations against a journal store. It holds no per-query
// state and is safe for concurrent use.
type Engine struct {
	journal *journal.Store
	metrics *Metrics
}

// NewEngine returns an engine over store. metrics may be nil.
func NewEngine(store *journal.Store, metrics *Metrics) *Engine {
	return &Engine{journal: store, metrics: metrics}
}

// Explore runs req and returns matching entries newest first, capped at
// MaxExploreResults. Malformed queries yield an empty result; only storage
// failures are returned as errors.
func (e *Engine) Explore(ctx context.Context, req Request) ([]models.EntryResult, error) {
	start := time.Now()
	mode := "invalid"
	if _, bad := req.Query.(invalidQuery); !bad && req.Query != nil {
		mode = req.Query.Mode()
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExploreTimeout)
	defer cancel()

	results, err := e.explore(ctx, req)
	e.metrics.observe(mode, time.Since(start), len(results), err)
	if err != nil {
		logger.Error("Exploration failed", "mode", mode, "err", err)
		return nil, err
	}
	logger.Debug("Exploration finished", "mode", mode, "results", len(results), "duration", time.Since(start))
	return results, nil
}

func (e *Engine) explore(ctx context.Context, req Request) ([]models.EntryResult, error) {
	from, to, ok := normalizeRange(req.From, req.To)
	if !ok || req.Query == nil {
		return empty(), nil
	}

	var entries []models.Entry
	var err error
	switch q := req.Query.(type) {
	case DatePatternQuery:
		entries, err = e.datePattern(ctx, q, from, to)
	case StreakQuery:
		entries, err = e.streak(ctx, q)
	default:
		var ids []string
		ids, err = e.candidates(ctx, q, scope{from: from, to: to, limit: constants.MaxScanRows})
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return empty(), nil
		}
		entries, err = e.journal.Provider().ListEntries(ctx, storage.EntryFilter{
			IDs:   ids,
			ByIDs: true,
			From:  from,
			To:    to,
			Limit: constants.MaxExploreResults,
		})
	}
	if err != nil {
		return nil, err
	}
	return e.hydrate(ctx, entries)
}

func (e *Engine) hydrate(ctx context.Context, entries []models.Entry) ([]models.EntryResult, error) {
	if len(entries) > constants.MaxExploreResults {
		entries = entries[:constants.MaxExploreResults]
	}
	hydrated, err := e.journal.Hydrate(ctx, entries)
	if err != nil {
		return nil, err
	}
	results := make([]models.EntryResult, len(hydrated))
	for i, h := range hydrated {
		results[i] = h.Result()
	}
	return results, nil
}

// scope bounds a candidate scan. The date range is applied in storage ahead
// of limit; a zero limit scans every matching entry.
type scope struct {
	from, to string
	limit    int
}

// candidates returns the ids of entries matching q within sc.
func (e *Engine) candidates(ctx context.Context, q Query, sc scope) ([]string, error) {
	switch q := q.(type) {
	case NumericQuery:
		return e.numeric(ctx, q, sc)
	case PeopleQuery:
		return e.textContains(ctx, q.Name, fieldsOr(q.Fields, constants.DefaultPeopleFields), sc)
	case ActivityQuery:
		return e.textContains(ctx, q.Text, fieldsOr(q.Fields, constants.DefaultActivityFields), sc)
	case TextSearchQuery:
		return e.textContains(ctx, q.Text, fieldsOr(q.Fields, constants.DefaultTextSearchFields), sc)
	case OptionQuery:
		return e.options(ctx, q.QuestionKey, q.Options, sc)
	case RBTQuery:
		return e.rbt(ctx, q, sc)
	case CombinationQuery:
		// Each condition scans the whole range so the set algebra is exact.
		sc.limit = 0
		return e.combination(ctx, q, sc)
	}
	logger.Debug("Unsupported exploration mode", "mode", q.Mode())
	return nil, nil
}

func (e *Engine) numeric(ctx context.Context, q NumericQuery, sc scope) ([]string, error) {
	if q.Value == nil {
		return nil, nil
	}
	var upper float64
	if q.Operator == storage.OpBetween {
		if q.Value2 == nil {
			return nil, nil
		}
		upper = *q.Value2
	}
	return e.numericMatch(ctx, q.QuestionKey, q.Operator, *q.Value, upper, sc)
}

func (e *Engine) numericMatch(ctx context.Context, key, op string, value, upper float64, sc scope) ([]string, error) {
	if !storage.ValidOperator(op) {
		return nil, nil
	}
	t, ok, err := e.journal.Catalog().QuestionType(ctx, key)
	if err != nil || !ok || !t.IsNumeric() {
		return nil, err
	}
	ids, err := e.journal.Catalog().QuestionIDs(ctx, []string{key})
	if err != nil {
		return nil, err
	}
	return e.match(ctx, storage.AnswerMatch{
		QuestionIDs: ids,
		Kind:        storage.MatchNumeric,
		Operator:    op,
		Number:      value,
		Upper:       upper,
	}, sc)
}

func (e *Engine) textContains(ctx context.Context, text string, fields []string, sc scope) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	ids, err := e.journal.Catalog().QuestionIDs(ctx, fields)
	if err != nil {
		return nil, err
	}
	return e.match(ctx, storage.AnswerMatch{QuestionIDs: ids, Kind: storage.MatchTextContains, Text: text}, sc)
}

func (e *Engine) options(ctx context.Context, key string, options []string, sc scope) ([]string, error) {
	options = slices.DeleteFunc(slices.Clone(options), func(s string) bool { return strings.TrimSpace(s) == "" })
	if len(options) == 0 {
		return nil, nil
	}
	ids, err := e.journal.Catalog().QuestionIDs(ctx, []string{key})
	if err != nil {
		return nil, err
	}
	return e.match(ctx, storage.AnswerMatch{QuestionIDs: ids, Kind: storage.MatchListContainsAny, Options: options}, sc)
}

func (e *Engine) rbt(ctx context.Context, q RBTQuery, sc scope) ([]string, error) {
	switch q.Field {
	case constants.QuestionRose, constants.QuestionBud, constants.QuestionThorn:
	default:
		return nil, nil
	}
	ids, err := e.journal.Catalog().QuestionIDs(ctx, []string{q.Field})
	if err != nil {
		return nil, err
	}
	m := storage.AnswerMatch{QuestionIDs: ids, Kind: storage.MatchTextNonEmpty}
	if search := strings.TrimSpace(q.Search); search != "" {
		m.Kind = storage.MatchTextContains
		m.Text = search
	}
	return e.match(ctx, m, sc)
}

func (e *Engine) match(ctx context.Context, m storage.AnswerMatch, sc scope) ([]string, error) {
	if len(m.QuestionIDs) == 0 {
		return nil, nil
	}
	m.From, m.To, m.Limit = sc.from, sc.to, sc.limit
	return e.journal.Provider().MatchAnswers(ctx, m)
}

// combination evaluates every condition concurrently and intersects (AND)
// or unions (OR) the resulting id sets.
func (e *Engine) combination(ctx context.Context, q CombinationQuery, sc scope) ([]string, error) {
	logic := strings.ToUpper(strings.TrimSpace(q.Logic))
	if logic == "" {
		logic = LogicAnd
	}
	if (logic != LogicAnd && logic != LogicOr) || len(q.Conditions) == 0 {
		return nil, nil
	}

	sets := make([][]string, len(q.Conditions))
	g, gctx := errgroup.WithContext(ctx)
	for i, cond := range q.Conditions {
		g.Go(func() error {
			ids, err := e.conditionIDs(gctx, cond, sc)
			sets[i] = ids
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if logic == LogicOr {
		return union(sets), nil
	}
	return intersect(sets), nil
}

// conditionIDs resolves the condition's question type through the catalog and
// matches it with the operator semantics of that type. Unknown keys,
// unsupported operators and unusable values match nothing.
func (e *Engine) conditionIDs(ctx context.Context, c Condition, sc scope) ([]string, error) {
	t, ok, err := e.journal.Catalog().QuestionType(ctx, c.QuestionKey)
	if err != nil || !ok {
		return nil, err
	}
	op := strings.ToLower(strings.TrimSpace(c.Operator))

	switch {
	case t.IsNumeric():
		lower, upper, ok := conditionBounds(c, op)
		if !ok {
			return nil, nil
		}
		return e.numericMatch(ctx, c.QuestionKey, op, lower, upper, sc)

	case t.IsTextual():
		text, ok := codec.Normalize(c.Value, models.QuestionText).(models.TextValue)
		if !ok || strings.TrimSpace(string(text)) == "" {
			return nil, nil
		}
		kind := storage.MatchTextContains
		switch op {
		case OpContains:
		case OpEquals:
			kind = storage.MatchTextEquals
		default:
			return nil, nil
		}
		ids, err := e.journal.Catalog().QuestionIDs(ctx, []string{c.QuestionKey})
		if err != nil {
			return nil, err
		}
		return e.match(ctx, storage.AnswerMatch{QuestionIDs: ids, Kind: kind, Text: strings.TrimSpace(string(text))}, sc)

	case t == models.QuestionMultiselect:
		if op != OpContains {
			return nil, nil
		}
		list, _ := codec.Normalize(c.Value, models.QuestionMultiselect).(models.ListValue)
		return e.options(ctx, c.QuestionKey, list, sc)

	case t == models.QuestionBoolean:
		if op != OpEquals {
			return nil, nil
		}
		b, ok := codec.Normalize(c.Value, models.QuestionBoolean).(models.BoolValue)
		if !ok {
			return nil, nil
		}
		ids, err := e.journal.Catalog().QuestionIDs(ctx, []string{c.QuestionKey})
		if err != nil {
			return nil, err
		}
		return e.match(ctx, storage.AnswerMatch{QuestionIDs: ids, Kind: storage.MatchBoolean, Bool: bool(b)}, sc)
	}
	return nil, nil
}

// conditionBounds reads the numeric operand(s) of c. For between the upper
// bound comes from Value2, or from a two element Value list.
func conditionBounds(c Condition, op string) (float64, float64, bool) {
	if op == storage.OpBetween {
		if list, ok := c.Value.([]any); ok {
			if len(list) != 2 {
				return 0, 0, false
			}
			lo, okLo := codec.Normalize(list[0], models.QuestionNumber).(models.NumberValue)
			hi, okHi := codec.Normalize(list[1], models.QuestionNumber).(models.NumberValue)
			return float64(lo), float64(hi), okLo && okHi
		}
		lo, okLo := codec.Normalize(c.Value, models.QuestionNumber).(models.NumberValue)
		hi, okHi := codec.Normalize(c.Value2, models.QuestionNumber).(models.NumberValue)
		return float64(lo), float64(hi), okLo && okHi
	}
	n, ok := codec.Normalize(c.Value, models.QuestionNumber).(models.NumberValue)
	return float64(n), 0, ok
}

func (e *Engine) datePattern(ctx context.Context, q DatePatternQuery, from, to string) ([]models.Entry, error) {
	if (q.DayOfWeek != nil && (*q.DayOfWeek < 0 || *q.DayOfWeek > 6)) ||
		(q.Month != nil && (*q.Month < 1 || *q.Month > 12)) ||
		(q.Year != nil && (*q.Year < 1 || *q.Year > 9999)) {
		return nil, nil
	}
	from, to = patternRange(q, from, to)
	if from != "" && to != "" && from > to {
		return nil, nil
	}

	// Page backwards through the range until enough entries match.
	var out []models.Entry
	for {
		entries, err := e.journal.Provider().ListEntries(ctx, storage.EntryFilter{
			From:  from,
			To:    to,
			Limit: constants.MaxScanRows,
		})
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if q.matches(entry.Date) {
				out = append(out, entry)
				if len(out) == constants.MaxExploreResults {
					return out, nil
				}
			}
		}
		if len(entries) < constants.MaxScanRows {
			return out, nil
		}
		if to, err = utils.AddDays(entries[len(entries)-1].Date, -1); err != nil {
			return out, nil
		}
		if from != "" && to < from {
			return out, nil
		}
	}
}

// patternRange narrows from and to to the calendar year, or year and month,
// named by q.
func patternRange(q DatePatternQuery, from, to string) (string, string) {
	if q.Year == nil {
		return from, to
	}
	first := time.Date(*q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(1, 0, -1)
	if q.Month != nil {
		first = time.Date(*q.Year, time.Month(*q.Month), 1, 0, 0, 0, 0, time.UTC)
		last = first.AddDate(0, 1, -1)
	}
	if lo := first.Format(constants.DateFormat); from == "" || lo > from {
		from = lo
	}
	if hi := last.Format(constants.DateFormat); to == "" || hi < to {
		to = hi
	}
	return from, to
}

func (q DatePatternQuery) matches(date string) bool {
	d, err := utils.ParseDate(date)
	if err != nil {
		return false
	}
	if q.DayOfWeek != nil && int(d.Weekday()) != *q.DayOfWeek {
		return false
	}
	if q.Month != nil && int(d.Month()) != *q.Month {
		return false
	}
	return q.Year == nil || d.Year() == *q.Year
}

// streak keeps entries that sit in a run of at least two calendar-consecutive
// matching dates. The date range is not applied.
func (e *Engine) streak(ctx context.Context, q StreakQuery) ([]models.Entry, error) {
	if q.Condition == nil {
		return nil, nil
	}
	ids, err := e.conditionIDs(ctx, *q.Condition, scope{})
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	entries, err := e.journal.Provider().ListEntries(ctx, storage.EntryFilter{
		IDs:       ids,
		ByIDs:     true,
		Ascending: true,
	})
	if err != nil {
		return nil, err
	}

	kept := streakRuns(entries, 2)
	slices.Reverse(kept)
	return kept, nil
}

// streakRuns partitions date-ascending entries into maximal runs of
// consecutive days and returns the entries of runs at least minLen long,
// still ascending.
func streakRuns(entries []models.Entry, minLen int) []models.Entry {
	var kept []models.Entry
	start := 0
	for i := 1; i <= len(entries); i++ {
		if i < len(entries) && utils.IsNextDay(entries[i-1].Date, entries[i].Date) {
			continue
		}
		if i-start >= minLen {
			kept = append(kept, entries[start:i]...)
		}
		start = i
	}
	return kept
}

func intersect(sets [][]string) []string {
	if len(sets) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, set := range sets {
		if len(set) == 0 {
			return nil
		}
		seen := make(map[string]struct{}, len(set))
		for _, id := range set {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			counts[id]++
		}
	}
	var out []string
	for id, n := range counts {
		if n == len(sets) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func union(sets [][]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, set := range sets {
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func normalizeRange(from, to string) (string, string, bool) {
	var err error
	if from != "" {
		if from, err = journal.NormalizeDate(from); err != nil {
			return "", "", false
		}
	}
	if to != "" {
		if to, err = journal.NormalizeDate(to); err != nil {
			return "", "", false
		}
	}
	return from, to, true
}

func fieldsOr(fields, defaults []string) []string {
	if len(fields) > 0 {
		return fields
	}
	return defaults
}

func empty() []models.EntryResult {
	return []models.EntryResult{}
}
