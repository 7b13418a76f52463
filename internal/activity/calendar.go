// Package activity turns timestamped project, note and snippet records into
// engagement metrics: active days, streaks, a trailing timeline, a label
// ranking and the plain-text weekly payload handed to the digest generator.
//
// Every function is pure. Time-dependent functions take the reference
// instant explicitly, and all calendar arithmetic goes through a single
// Calendar so day keys and week boundaries never disagree about the zone.
package activity

import (
	"strings"
	"time"
)

// DayKeyLayout is the canonical day key format. String order equals
// chronological order.
const DayKeyLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	DayKeyLayout,
}

// ParseTimestamp parses an ISO-8601 timestamp. Zone-less forms are read as
// UTC. The second result is false for empty or malformed input.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Calendar fixes the zone used for day keys and week boundaries.
type Calendar struct {
	loc *time.Location
}

// UTC is the default engine calendar.
var UTC = Calendar{loc: time.UTC}

// NewCalendar returns a calendar in loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// Location returns the calendar zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Key normalizes an ISO-8601 timestamp to a day key, or "" when the input
// is empty or cannot be parsed.
func (c Calendar) Key(ts string) string {
	t, ok := ParseTimestamp(ts)
	if !ok {
		return ""
	}
	return c.KeyOf(t)
}

// KeyOf returns the day key of t, or "" for the zero time.
func (c Calendar) KeyOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(c.Location()).Format(DayKeyLayout)
}

// Midnight returns 00:00 of the calendar day containing t.
func (c Calendar) Midnight(t time.Time) time.Time {
	t = t.In(c.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location())
}

// ParseKey returns midnight of the day named by key.
func (c Calendar) ParseKey(key string) (time.Time, bool) {
	t, err := time.ParseInLocation(DayKeyLayout, key, c.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddDays shifts a day key by n calendar days. Invalid keys yield "".
func (c Calendar) AddDays(key string, n int) string {
	t, ok := c.ParseKey(key)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, n).Format(DayKeyLayout)
}
