package ledger

import "testing"

func TestLevelFor(t *testing.T) {
	cases := []struct {
		points int
		level  int
	}{
		{0, 1},
		{1, 1},
		{99, 1},
		{100, 2},
		{199, 2},
		{200, 3},
		{250, 3},
		{999, 10},
		{1000, 11},
		{-5, 1},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.points); got != tc.level {
			t.Errorf("LevelFor(%d) = %d, want %d", tc.points, got, tc.level)
		}
	}
}

func TestLevelForIdempotent(t *testing.T) {
	for p := 0; p <= 500; p++ {
		if LevelFor(p) != LevelFor(p) {
			t.Fatalf("LevelFor(%d) not stable", p)
		}
		if LevelFor(p) != p/LevelStep+1 {
			t.Fatalf("LevelFor(%d) diverged from derivation rule", p)
		}
	}
}

func TestApplyDeltaSingleBonus(t *testing.T) {
	sched := DefaultSchedule()

	// Crossing two boundaries in one call still pays one bonus.
	points, level, bonus := applyDelta(95, 215, sched)
	if bonus != sched.LevelUpBonus {
		t.Fatalf("bonus = %d, want %d", bonus, sched.LevelUpBonus)
	}
	if points != 95+215+sched.LevelUpBonus {
		t.Fatalf("points = %d, want %d", points, 95+215+sched.LevelUpBonus)
	}
	if level != LevelFor(points) {
		t.Fatalf("level %d diverged from LevelFor(%d) = %d", level, points, LevelFor(points))
	}

	// No boundary crossed, no bonus.
	points, level, bonus = applyDelta(10, 5, sched)
	if bonus != 0 || points != 15 || level != 1 {
		t.Fatalf("got points=%d level=%d bonus=%d, want 15/1/0", points, level, bonus)
	}
}
