package ledger

import (
	"testing"
	"time"
)

var testDay = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

func TestNextStreakContinuation(t *testing.T) {
	yesterday := DayKey(testDay.AddDate(0, 0, -1))
	if got := NextStreak(yesterday, testDay, 3); got != 4 {
		t.Fatalf("streak after consecutive day = %d, want 4", got)
	}
}

func TestNextStreakResetAfterGap(t *testing.T) {
	fiveDaysAgo := DayKey(testDay.AddDate(0, 0, -5))
	if got := NextStreak(fiveDaysAgo, testDay, 9); got != 1 {
		t.Fatalf("streak after 5 day gap = %d, want 1", got)
	}
}

func TestNextStreakFirstCheckIn(t *testing.T) {
	if got := NextStreak("", testDay, 0); got != 1 {
		t.Fatalf("first check-in streak = %d, want 1", got)
	}
}

func TestCheckInBonusSchedule(t *testing.T) {
	sched := DefaultSchedule()
	cases := []struct {
		streak int
		want   int
	}{
		{1, 5},
		{2, 5},
		{3, 15},  // three-day milestone
		{4, 5},   // no milestone
		{6, 15},  // three-day milestone
		{7, 20},  // weekly milestone
		{14, 20}, // weekly milestone
		{21, 20}, // weekly takes precedence over three-day
	}
	for _, tc := range cases {
		if got := sched.CheckInBonus(tc.streak); got != tc.want {
			t.Errorf("CheckInBonus(%d) = %d, want %d", tc.streak, got, tc.want)
		}
	}
}

func TestDayKey(t *testing.T) {
	if got := DayKey(testDay); got != "2025-03-10" {
		t.Fatalf("DayKey = %q, want 2025-03-10", got)
	}
}
