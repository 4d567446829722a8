package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/studypal/points-api/models"
)

var errUnreachable = errors.New("remote unreachable")

// failingRemote simulates a remote store that is down for every call.
type failingRemote struct{}

func (failingRemote) GetUser(context.Context, string) (*models.UserLedger, error) {
	return nil, errUnreachable
}
func (failingRemote) SetUser(context.Context, string, UserFields) error {
	return errUnreachable
}
func (failingRemote) AppendHistory(context.Context, *models.PointRecord) error {
	return errUnreachable
}
func (failingRemote) QueryHistory(context.Context, string, int) ([]models.PointRecord, error) {
	return nil, errUnreachable
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.UserLedger{}, &models.PointRecord{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, remote RemoteStore, now *time.Time) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		Remote: remote,
		KV:     NewMemoryKV(),
		Clock:  func() time.Time { return *now },
	})
}

func TestAwardMonotonic(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	res := svc.Award(ctx, "u1", 30, models.RecordTypeQuiz, "quiz")
	if res.Points != 30 || res.Level != 1 || res.LeveledUp {
		t.Fatalf("first award = %+v, want points=30 level=1", res)
	}

	res = svc.Award(ctx, "u1", 50, models.RecordTypeTask, "task")
	if res.Points != 80 {
		t.Fatalf("second award points = %d, want 80", res.Points)
	}

	// The remote row and the mirror both hold the new total, and the
	// persisted level equals the derivation from points.
	row, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if row.Points != 80 || row.Level != LevelFor(row.Points) {
		t.Fatalf("remote row points=%d level=%d, want 80/%d", row.Points, row.Level, LevelFor(80))
	}
	if got := svc.Mirror().GetInt("u1", fieldPoints); got != 80 {
		t.Fatalf("mirror points = %d, want 80", got)
	}
}

func TestAwardSingleLevelUpBonus(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	if err := store.SetUser(ctx, "u1", UserFields{"points": 95, "level": LevelFor(95)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// 95 -> 310 crosses two level boundaries; exactly one +10 bonus.
	res := svc.Award(ctx, "u1", 215, models.RecordTypeQuiz, "big quiz")
	if !res.LeveledUp || res.Bonus != 10 {
		t.Fatalf("award = %+v, want one +10 bonus", res)
	}
	if res.Points != 320 {
		t.Fatalf("points = %d, want 320", res.Points)
	}
	if res.Level != LevelFor(320) {
		t.Fatalf("level = %d, want %d", res.Level, LevelFor(320))
	}

	recs, err := store.QueryHistory(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("query history: %v", err)
	}
	bonuses := 0
	for _, r := range recs {
		if r.Type == models.RecordTypeAchievement {
			bonuses++
		}
	}
	if bonuses != 1 {
		t.Fatalf("achievement records = %d, want exactly 1", bonuses)
	}
}

func TestAwardConcurrentNoLostUpdates(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			svc.Award(ctx, "u1", 1, models.RecordTypeActivity, "tick")
		}()
	}
	wg.Wait()

	// Every increment survives: no interleaved read-modify-write lost one.
	row, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if row.Points != workers {
		t.Fatalf("points after %d concurrent awards = %d, want %d", workers, row.Points, workers)
	}
	if got := svc.Mirror().GetInt("u1", fieldPoints); got != workers {
		t.Fatalf("mirror points = %d, want %d", got, workers)
	}

	recs, err := store.QueryHistory(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("query history: %v", err)
	}
	if len(recs) != workers {
		t.Fatalf("history records = %d, want %d", len(recs), workers)
	}
}

func TestIdleUserLocksEvicted(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, failingRemote{}, &now)
	ctx := context.Background()

	svc.Award(ctx, "u1", 1, models.RecordTypeActivity, "tick")

	now = now.Add(userLockTTL + time.Minute)
	svc.Award(ctx, "u2", 1, models.RecordTypeActivity, "tick")

	svc.mu.Lock()
	_, u1Alive := svc.users["u1"]
	_, u2Alive := svc.users["u2"]
	svc.mu.Unlock()
	if u1Alive {
		t.Fatal("idle user lock survived the sweep")
	}
	if !u2Alive {
		t.Fatal("active user lock was evicted")
	}
}

func TestAwardFallsBackToMirror(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, failingRemote{}, &now)
	ctx := context.Background()

	res := svc.Award(ctx, "u1", 5, models.RecordTypeLogin, "test")
	if res.Points != 5 {
		t.Fatalf("fallback award points = %d, want 5", res.Points)
	}
	if got := svc.Mirror().GetInt("u1", fieldPoints); got != 5 {
		t.Fatalf("mirror points = %d, want 5", got)
	}

	sum := svc.Summary(ctx, "u1")
	if sum.Source != SourceMirror {
		t.Fatalf("summary source = %q, want %q", sum.Source, SourceMirror)
	}
	if sum.Points != 5 {
		t.Fatalf("summary points = %d, want 5", sum.Points)
	}

	recs := svc.History(ctx, "u1", 10)
	if len(recs) != 1 || recs[0].Points != 5 {
		t.Fatalf("mirror history = %+v, want one +5 record", recs)
	}
}

func TestCheckInContinuationAndMilestones(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	wantBonuses := []int{5, 5, 15} // day 3 hits the three-day milestone
	for day := 0; day < 3; day++ {
		res := svc.CheckIn(ctx, "u1")
		if res.AlreadyCheckedIn {
			t.Fatalf("day %d unexpectedly reported already checked in", day+1)
		}
		if res.Streak != day+1 {
			t.Fatalf("day %d streak = %d, want %d", day+1, res.Streak, day+1)
		}
		if res.BonusPoints != wantBonuses[day] {
			t.Fatalf("day %d bonus = %d, want %d", day+1, res.BonusPoints, wantBonuses[day])
		}
		if !res.IsNewRecord {
			t.Fatalf("day %d should be a new streak record", day+1)
		}
		now = now.AddDate(0, 0, 1)
	}

	sum := svc.Summary(ctx, "u1")
	if sum.Points != 25 {
		t.Fatalf("points after 3 check-ins = %d, want 25", sum.Points)
	}
}

func TestCheckInWeeklyMilestone(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	yesterday := DayKey(now.AddDate(0, 0, -1))
	seed := UserFields{"streak": 6, "longest_streak": 6, "last_check_in_day": yesterday}
	if err := store.SetUser(ctx, "u1", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res := svc.CheckIn(ctx, "u1")
	if res.Streak != 7 {
		t.Fatalf("streak = %d, want 7", res.Streak)
	}
	if res.BonusPoints != 20 {
		t.Fatalf("weekly milestone bonus = %d, want 20", res.BonusPoints)
	}
}

func TestCheckInResetAfterGap(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	fiveDaysAgo := DayKey(now.AddDate(0, 0, -5))
	seed := UserFields{"streak": 9, "longest_streak": 9, "last_check_in_day": fiveDaysAgo}
	if err := store.SetUser(ctx, "u1", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res := svc.CheckIn(ctx, "u1")
	if res.Streak != 1 {
		t.Fatalf("streak after gap = %d, want 1", res.Streak)
	}
	if res.LongestStreak != 9 || res.IsNewRecord {
		t.Fatalf("longest streak = %d (new record %v), want 9 kept", res.LongestStreak, res.IsNewRecord)
	}
}

func TestCheckInSameDayNoOp(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	first := svc.CheckIn(ctx, "u1")
	if first.AlreadyCheckedIn {
		t.Fatal("first check-in reported already checked in")
	}
	pointsAfterFirst := svc.Summary(ctx, "u1").Points

	second := svc.CheckIn(ctx, "u1")
	if !second.AlreadyCheckedIn {
		t.Fatal("second same-day check-in was not a no-op")
	}
	if got := svc.Summary(ctx, "u1").Points; got != pointsAfterFirst {
		t.Fatalf("points changed on same-day repeat: %d -> %d", pointsAfterFirst, got)
	}
}

func TestCheckInMirrorsAggregate(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	res := svc.CheckIn(ctx, "u1")
	if res.AlreadyCheckedIn {
		t.Fatal("first check-in reported already checked in")
	}

	snap := svc.Mirror().Snapshot("u1")
	if snap.Streak != 1 || snap.LongestStreak != 1 {
		t.Fatalf("mirror streak=%d longest=%d, want 1/1", snap.Streak, snap.LongestStreak)
	}
	if snap.LastCheckInDay != DayKey(now) {
		t.Fatalf("mirror last check-in day = %q, want %q", snap.LastCheckInDay, DayKey(now))
	}
	if snap.Points != res.BonusPoints {
		t.Fatalf("mirror points = %d, want %d", snap.Points, res.BonusPoints)
	}
}

func TestLongestStreakHighWaterMark(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		res := svc.CheckIn(ctx, "u1")
		if res.LongestStreak != day+1 {
			t.Fatalf("day %d longest = %d, want %d", day+1, res.LongestStreak, day+1)
		}
		now = now.AddDate(0, 0, 1)
	}

	// Drop the streak, then come back.
	now = now.AddDate(0, 0, 4)
	res := svc.CheckIn(ctx, "u1")
	if res.Streak != 1 {
		t.Fatalf("streak after drop = %d, want 1", res.Streak)
	}
	if res.LongestStreak != 3 {
		t.Fatalf("longest streak after drop = %d, want 3", res.LongestStreak)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	for i, typ := range []string{models.RecordTypeGoal, models.RecordTypeTask, models.RecordTypeQuiz} {
		svc.Award(ctx, "u1", (i+1)*5, typ, typ)
		now = now.Add(time.Hour)
	}

	recs := svc.History(ctx, "u1", 10)
	if len(recs) != 3 {
		t.Fatalf("history length = %d, want 3", len(recs))
	}
	wantTypes := []string{models.RecordTypeQuiz, models.RecordTypeTask, models.RecordTypeGoal}
	for i, want := range wantTypes {
		if recs[i].Type != want {
			t.Fatalf("history[%d].Type = %q, want %q", i, recs[i].Type, want)
		}
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Timestamp.After(recs[i-1].Timestamp) {
			t.Fatalf("history not newest-first at index %d", i)
		}
	}
}

func TestSummaryPrefersRemote(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, &now)
	ctx := context.Background()

	svc.Award(ctx, "u1", 42, models.RecordTypeActivity, "chat")

	sum := svc.Summary(ctx, "u1")
	if sum.Source != SourceRemote {
		t.Fatalf("summary source = %q, want %q", sum.Source, SourceRemote)
	}
	if sum.Points != 42 || sum.Level != 1 {
		t.Fatalf("summary = %+v, want points=42 level=1", sum)
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)

	_, err := store.GetUser(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
