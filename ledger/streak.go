package ledger

import "time"

// DayLayout is the calendar-day key format, evaluated in the caller's
// location so a "day" matches the user-local date.
const DayLayout = "2006-01-02"

// DayKey formats t as a calendar-day key.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// NextStreak returns the streak after a qualifying check-in today. An empty
// lastDay means first-ever check-in. Same-day repeats must be rejected by
// the caller before streak computation.
func NextStreak(lastDay string, today time.Time, prev int) int {
	if lastDay != "" && lastDay == DayKey(today.AddDate(0, 0, -1)) {
		return prev + 1
	}
	return 1
}

// Schedule fixes the reward amounts the service hands out.
type Schedule struct {
	CheckInBase   int
	ThreeDayBonus int
	WeeklyBonus   int
	LevelUpBonus  int
}

// DefaultSchedule returns the production reward amounts.
func DefaultSchedule() Schedule {
	return Schedule{
		CheckInBase:   5,
		ThreeDayBonus: 10,
		WeeklyBonus:   15,
		LevelUpBonus:  10,
	}
}

// CheckInBonus returns the total points for a check-in that reaches the
// given streak. Weekly milestones take precedence over three-day ones.
func (s Schedule) CheckInBonus(streak int) int {
	bonus := s.CheckInBase
	switch {
	case streak%7 == 0:
		bonus += s.WeeklyBonus
	case streak%3 == 0:
		bonus += s.ThreeDayBonus
	}
	return bonus
}
