package envcascade

import (
	"fmt"
	"strings"
	"time"
)

// TimeParseError is returned when a value matches none of the accepted
// layouts for a date or time type.
type TimeParseError struct {
	Value    string
	TypeName string
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("cannot parse '%s' as %s", e.Value, e.TypeName)
}

// Fractional seconds are accepted after any seconds field even when the
// layout does not mention them.
var (
	dateTimeLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006/01/02 15:04:05",
		"01/02/2006 15:04:05",
	}
	dateLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
	}
	timeOfDayLayouts = []string{
		"15:04:05",
		"15:04",
	}
)

func parseLayouts(raw, typeName string, layouts []string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &TimeParseError{Value: raw, TypeName: typeName}
}

// DateTime parses a timestamp. RFC 3339 is tried first, then ISO 8601
// variants with or without seconds, space separated variants, and the
// "2006/01/02 15:04:05" and "01/02/2006 15:04:05" forms. Values without a
// zone are taken as UTC; the result is always in UTC.
func DateTime() Parser[time.Time] {
	return Func("time.Time", func(raw string) (time.Time, error) {
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw)); err == nil {
			return t.UTC(), nil
		}
		return parseLayouts(raw, "time.Time", dateTimeLayouts)
	})
}

// Date parses a calendar date ("2006-01-02", "2006/01/02" or "01/02/2006")
// as midnight UTC.
func Date() Parser[time.Time] {
	return Func("date", func(raw string) (time.Time, error) {
		return parseLayouts(raw, "date", dateLayouts)
	})
}

// TimeOfDay parses "15:04:05" or "15:04". The result carries the zero date.
func TimeOfDay() Parser[time.Time] {
	return Func("time of day", func(raw string) (time.Time, error) {
		return parseLayouts(raw, "time of day", timeOfDayLayouts)
	})
}
