package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/daylog/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// Today returns the calendar date of now in the given timezone.
func Today(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return now.Format(constants.DateFormat), nil
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar day.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(constants.DateFormat, date)
}

// NormalizeDate reduces a date or timestamp string to its YYYY-MM-DD prefix
// and checks that it is a real calendar day.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(constants.DateFormat) {
		return "", fmt.Errorf("invalid date %q", s)
	}
	s = s[:len(constants.DateFormat)]
	if _, err := ParseDate(s); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return s, nil
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

// IsNextDay reports whether next is exactly one calendar day after prev.
func IsNextDay(prev, next string) bool {
	p, err := ParseDate(prev)
	if err != nil {
		return false
	}
	n, err := ParseDate(next)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Equal(n)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}
