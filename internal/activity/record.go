package activity

import (
	"slices"
	"time"
)

// Project is the part of a project record the engine reads.
type Project struct {
	Title     string
	Status    string
	Progress  int
	TechStack []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Note is the part of a note record the engine reads.
type Note struct {
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snippet is the part of a snippet record the engine reads.
type Snippet struct {
	Title     string
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is an immutable view of all records at one point in time.
type Snapshot struct {
	Projects []Project
	Notes    []Note
	Snippets []Snippet
}

// DaySet is a set of day keys.
type DaySet map[string]struct{}

// Has reports whether key is in the set.
func (s DaySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of days in the set.
func (s DaySet) Len() int { return len(s) }

// Sorted returns the keys in ascending order.
func (s DaySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ActiveDays collects the day of every creation and modification across
// the snapshot. Missing timestamps are skipped.
func ActiveDays(cal Calendar, snap Snapshot) DaySet {
	set := make(DaySet)
	add := func(t time.Time) {
		if key := cal.KeyOf(t); key != "" {
			set[key] = struct{}{}
		}
	}
	for _, p := range snap.Projects {
		add(p.CreatedAt)
		add(p.UpdatedAt)
	}
	for _, n := range snap.Notes {
		add(n.CreatedAt)
		add(n.UpdatedAt)
	}
	for _, s := range snap.Snippets {
		add(s.CreatedAt)
		add(s.UpdatedAt)
	}
	return set
}
