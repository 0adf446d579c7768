package constants

import "time"

const (
	// MaxExploreResults caps the number of entries returned by one exploration or search.
	MaxExploreResults = 200
	// MaxScanRows caps the number of base rows read while selecting candidates.
	MaxScanRows = 500
	// ExploreTimeout bounds a single exploration end to end.
	ExploreTimeout = 10 * time.Second
	// CatalogCacheSize is the number of questions kept in the catalog LRU.
	CatalogCacheSize = 256

	// Question keys with a dedicated role in exploration
	QuestionWorkouts    = "workouts"
	QuestionDailyHabits = "daily_habits"
	QuestionRose        = "rose"
	QuestionBud         = "bud"
	QuestionThorn       = "thorn"
)

var (
	// DefaultPeopleFields are searched by the people and people_count modes.
	DefaultPeopleFields = []string{
		"daily_timeline_summary",
		"anchor_memory",
		"meaningful_moment",
		"reflection",
		"emotions_triggers",
		QuestionRose,
		QuestionBud,
		QuestionThorn,
	}

	// DefaultActivityFields are searched by the activity mode.
	DefaultActivityFields = []string{
		"daily_timeline_summary",
		"movement_training",
		"anchor_memory",
		"meaningful_moment",
	}

	// DefaultTextSearchFields are searched by the text_search mode.
	DefaultTextSearchFields = []string{
		"reflection",
		"emotions_triggers",
		"meaningful_moment",
		"wins_proud",
		"misses_friction",
		"lesson_next_time",
		"anchor_memory",
		"cope_reframe",
	}
)
