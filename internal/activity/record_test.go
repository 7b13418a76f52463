package activity

import (
	"reflect"
	"testing"
	"time"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Projects: []Project{
			{Title: "DevFlow", CreatedAt: day("2024-01-01"), UpdatedAt: day("2024-01-03")},
			{Title: "No dates"},
		},
		Notes: []Note{
			{Title: "Standup", CreatedAt: day("2024-01-03"), UpdatedAt: day("2024-01-03")},
		},
		Snippets: []Snippet{
			{Title: "retry", Language: "go", CreatedAt: day("2024-01-02"), UpdatedAt: time.Time{}},
		},
	}
}

func TestActiveDays(t *testing.T) {
	set := ActiveDays(UTC, sampleSnapshot())
	want := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	if got := set.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
	if set.Has("") {
		t.Error("empty key must never be inserted")
	}
	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}
}

func TestActiveDays_Idempotent(t *testing.T) {
	snap := sampleSnapshot()
	a := ActiveDays(UTC, snap)
	b := ActiveDays(UTC, snap)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("ActiveDays not idempotent: %v vs %v", a, b)
	}
}

func TestActiveDays_OnlyValidKeys(t *testing.T) {
	for key := range ActiveDays(UTC, sampleSnapshot()) {
		if _, ok := UTC.ParseKey(key); !ok {
			t.Errorf("invalid key %q in set", key)
		}
	}
}

func TestActiveDays_Empty(t *testing.T) {
	if n := ActiveDays(UTC, Snapshot{}).Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
	if got := (DaySet{}).Sorted(); len(got) != 0 {
		t.Errorf("Sorted() = %v", got)
	}
}
