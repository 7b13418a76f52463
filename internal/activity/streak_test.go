package activity

import (
	"math/rand"
	"testing"
	"time"
)

func day(key string) time.Time {
	t, err := time.Parse(DayKeyLayout, key)
	if err != nil {
		panic(err)
	}
	return t.Add(12 * time.Hour)
}

func TestStreaks_Empty(t *testing.T) {
	if got := LongestStreak(UTC, nil); got != 0 {
		t.Errorf("LongestStreak(empty) = %d", got)
	}
	if got := CurrentStreak(UTC, nil, day("2024-01-03")); got != 0 {
		t.Errorf("CurrentStreak(empty) = %d", got)
	}
}

func TestStreaks_ThreeConsecutiveDays(t *testing.T) {
	keys := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	if got := CurrentStreak(UTC, keys, day("2024-01-03")); got != 3 {
		t.Errorf("CurrentStreak = %d, want 3", got)
	}
	if got := LongestStreak(UTC, keys); got != 3 {
		t.Errorf("LongestStreak = %d, want 3", got)
	}
}

func TestLongestStreak_Gap(t *testing.T) {
	if got := LongestStreak(UTC, []string{"2024-01-01", "2024-01-03"}); got != 1 {
		t.Errorf("LongestStreak = %d, want 1", got)
	}
}

func TestLongestStreak_PicksMaximumRun(t *testing.T) {
	keys := []string{
		"2023-12-30", "2023-12-31", "2024-01-01", "2024-01-02",
		"2024-01-05",
		"2024-01-07", "2024-01-08",
	}
	if got := LongestStreak(UTC, keys); got != 4 {
		t.Errorf("LongestStreak = %d, want 4", got)
	}
}

func TestCurrentStreak_NoRecentActivity(t *testing.T) {
	keys := []string{"2024-01-01", "2024-01-02"}
	if got := CurrentStreak(UTC, keys, day("2024-01-05")); got != 0 {
		t.Errorf("CurrentStreak = %d, want 0", got)
	}
}

func TestCurrentStreak_GraceDayCountsFromYesterday(t *testing.T) {
	keys := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	if got := CurrentStreak(UTC, keys, day("2024-01-04")); got != 3 {
		t.Errorf("CurrentStreak = %d, want 3", got)
	}
}

func TestCurrentStreak_StopsAtFirstGap(t *testing.T) {
	keys := []string{"2024-01-01", "2024-01-03", "2024-01-04"}
	if got := CurrentStreak(UTC, keys, day("2024-01-04")); got != 2 {
		t.Errorf("CurrentStreak = %d, want 2", got)
	}
}

func TestCurrentStreak_UsesCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	cal := NewCalendar(tokyo)
	keys := []string{"2024-01-02", "2024-01-03"}
	// 20:00 UTC on Jan 2 is already Jan 3 in Tokyo.
	now := time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC)
	if got := CurrentStreak(cal, keys, now); got != 2 {
		t.Errorf("CurrentStreak = %d, want 2", got)
	}
}

func TestStreaks_LongestNeverBelowCurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := day("2024-06-30")
	for i := 0; i < 200; i++ {
		set := make(DaySet)
		for d := 0; d < 60; d++ {
			if rng.Intn(3) > 0 {
				set[UTC.KeyOf(now.AddDate(0, 0, -d))] = struct{}{}
			}
		}
		sorted := set.Sorted()
		cur := CurrentStreak(UTC, sorted, now)
		longest := LongestStreak(UTC, sorted)
		if longest < cur {
			t.Fatalf("iteration %d: longest %d < current %d for %v", i, longest, cur, sorted)
		}
	}
}
