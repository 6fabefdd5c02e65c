package utils

import (
	"time"

	"mess_tracker/internal/domain"
)

// Today returns the current local date in storage format
func Today() string {
	return time.Now().Format(domain.DateLayout)
}

// DaysAgo returns the local date n days before today
func DaysAgo(n int) string {
	return time.Now().AddDate(0, 0, -n).Format(domain.DateLayout)
}

// ParseDateOr normalizes a YYYY-MM-DD string. Empty or malformed input
// yields fallback.
func ParseDateOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return fallback
	}
	return t.Format(domain.DateLayout)
}

// RangeDate reads one end of a report range. An absent value takes
// whenEmpty, a malformed one collapses to today.
func RangeDate(s, whenEmpty string) string {
	if s == "" {
		return whenEmpty
	}
	return ParseDateOr(s, Today())
}
