package endpoints

import (
	"fmt"
	"time"
)

// Timestamp layouts expected by the history endpoints. They reject
// timezone suffixes.
const (
	LocalDateTimeLayout = "2006-01-02T15:04:05"
	LocalDateLayout     = "2006-01-02"
)

// FearIndexStart is the default lower bound of the fear index history.
const FearIndexStart = "2010-01-01T00:00:00"

// LocalDateTime normalizes s to 2006-01-02T15:04:05 without a zone. A bare
// date becomes midnight; RFC 3339 input is converted to UTC and the zone
// dropped.
func LocalDateTime(s string) (string, error) {
	if _, err := time.Parse(LocalDateTimeLayout, s); err == nil {
		return s, nil
	}
	if t, err := time.Parse(LocalDateLayout, s); err == nil {
		return t.Format(LocalDateTimeLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(LocalDateTimeLayout), nil
	}
	return "", fmt.Errorf("%q is not a date-time like %s", s, LocalDateTimeLayout)
}

// LocalDate validates s as 2006-01-02.
func LocalDate(s string) (string, error) {
	if _, err := time.Parse(LocalDateLayout, s); err != nil {
		return "", fmt.Errorf("%q is not a date like %s", s, LocalDateLayout)
	}
	return s, nil
}

// NowLocal formats now in UTC without a zone suffix.
func NowLocal(now time.Time) string {
	return now.UTC().Format(LocalDateTimeLayout)
}

func constant(v string) func(time.Time) string {
	return func(time.Time) string { return v }
}
