package ledger

import (
	"testing"
	"time"

	"github.com/studypal/points-api/models"
)

func TestGroupByDay(t *testing.T) {
	day2 := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	day1 := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)

	recs := []models.PointRecord{
		{ID: "c", Points: 20, Timestamp: day2.Add(time.Hour)},
		{ID: "b", Points: 5, Timestamp: day2},
		{ID: "a", Points: 10, Timestamp: day1},
	}

	groups := GroupByDay(recs)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].Day != "2025-03-11" || groups[1].Day != "2025-03-10" {
		t.Fatalf("group order = %q, %q; want newest day first", groups[0].Day, groups[1].Day)
	}
	if groups[0].Total != 25 || groups[1].Total != 10 {
		t.Fatalf("group totals = %d, %d; want 25, 10", groups[0].Total, groups[1].Total)
	}
	if len(groups[0].Records) != 2 || groups[0].Records[0].ID != "c" {
		t.Fatalf("in-day order not preserved: %+v", groups[0].Records)
	}

	// Pure view: input untouched.
	if recs[0].ID != "c" || len(recs) != 3 {
		t.Fatal("GroupByDay mutated its input")
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if groups := GroupByDay(nil); len(groups) != 0 {
		t.Fatalf("groups for empty history = %d, want 0", len(groups))
	}
}
