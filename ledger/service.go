package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studypal/points-api/models"
)

// Summary sources.
const (
	SourceRemote = "remote"
	SourceMirror = "mirror"
)

// AwardResult reports the state after an award.
type AwardResult struct {
	Points    int  `json:"points"`
	Level     int  `json:"level"`
	LeveledUp bool `json:"leveled_up"`
	Bonus     int  `json:"bonus"`
}

// CheckInResult reports the outcome of a daily check-in.
type CheckInResult struct {
	AlreadyCheckedIn bool `json:"already_checked_in"`
	Streak           int  `json:"streak"`
	LongestStreak    int  `json:"longest_streak"`
	BonusPoints      int  `json:"bonus_points"`
	IsNewRecord      bool `json:"is_new_record"`
}

// Summary is the aggregate read model. Source names the store that served
// it so callers can surface possibly-stale mirror reads.
type Summary struct {
	UserID         string `json:"user_id"`
	Points         int    `json:"points"`
	Level          int    `json:"level"`
	Streak         int    `json:"streak"`
	LongestStreak  int    `json:"longest_streak"`
	LastCheckInDay string `json:"last_check_in_day"`
	Source         string `json:"source"`
}

// ServiceConfig configures a Service. Remote and KV are required; the rest
// default to production values.
type ServiceConfig struct {
	Remote     RemoteStore
	KV         KV
	Schedule   *Schedule
	HistoryCap int
	Clock      func() time.Time
	Logger     *zap.SugaredLogger
}

// Service is the points ledger. Mutating operations write the remote store
// first and degrade to the mirror when it is unreachable, so the caller
// always sees the action succeed; reads prefer the remote store and fall
// back to the mirror.
type Service struct {
	remote RemoteStore
	mirror *Mirror
	sched  Schedule
	clock  func() time.Time
	log    *zap.SugaredLogger

	mu    sync.Mutex
	users map[string]*userLock
}

// userLockTTL bounds how long an idle per-user lock entry is kept.
const userLockTTL = 5 * time.Minute

type userLock struct {
	mu       sync.Mutex
	refs     int
	lastUsed time.Time
}

// NewService builds a Service from cfg.
func NewService(cfg ServiceConfig) *Service {
	sched := DefaultSchedule()
	if cfg.Schedule != nil {
		sched = *cfg.Schedule
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		remote: cfg.Remote,
		mirror: NewMirror(cfg.KV, cfg.HistoryCap),
		sched:  sched,
		clock:  clock,
		log:    log,
		users:  map[string]*userLock{},
	}
}

// Mirror exposes the service's mirror store.
func (s *Service) Mirror() *Mirror {
	return s.mirror
}

// lockUser serializes mutating calls for one user. Two interleaved awards
// would otherwise race on the read-modify-write of points and lose an
// update. Entries idle past userLockTTL are swept so the map does not
// grow with every user ID ever seen; an entry is never evicted while a
// caller still holds or waits on it.
func (s *Service) lockUser(userID string) func() {
	s.mu.Lock()
	s.sweepLocksLocked()
	l, ok := s.users[userID]
	if !ok {
		l = &userLock{}
		s.users[userID] = l
	}
	l.refs++
	l.lastUsed = s.clock()
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		s.mu.Unlock()
	}
}

func (s *Service) sweepLocksLocked() {
	now := s.clock()
	for id, l := range s.users {
		if l.refs == 0 && now.Sub(l.lastUsed) > userLockTTL {
			delete(s.users, id)
		}
	}
}

// Award applies a point delta for userID and appends it to the history.
// Remote failures are absorbed: the same arithmetic runs against the
// mirror and the caller still sees a success. Crossing a level boundary
// grants a single flat bonus recorded as a separate achievement entry,
// regardless of how many boundaries the delta crossed.
func (s *Service) Award(ctx context.Context, userID string, delta int, recType, description string) AwardResult {
	if userID == "" {
		s.log.Warnf("award dropped: empty user id (type=%s)", recType)
		return AwardResult{Level: 1}
	}
	if !models.ValidRecordType(recType) {
		s.log.Warnf("unknown record type %q coerced to activity", recType)
		recType = models.RecordTypeActivity
	}
	unlock := s.lockUser(userID)
	defer unlock()
	return s.award(ctx, userID, delta, recType, description)
}

// award requires the caller to hold the user lock.
func (s *Service) award(ctx context.Context, userID string, delta int, recType, description string) AwardResult {
	now := s.clock()

	prev, err := s.remote.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Warnf("remote ledger read failed, awarding on mirror: user=%s err=%v", userID, err)
		return s.awardMirror(userID, delta, recType, description, now)
	}
	prevPoints := 0
	if prev != nil {
		prevPoints = prev.Points
	}

	points, level, bonus := applyDelta(prevPoints, delta, s.sched)
	if err := s.remote.SetUser(ctx, userID, UserFields{"points": points, "level": level}); err != nil {
		s.log.Warnf("remote ledger write failed, awarding on mirror: user=%s err=%v", userID, err)
		return s.awardMirror(userID, delta, recType, description, now)
	}

	s.appendBoth(ctx, s.newRecord(userID, recType, delta, description, now))
	if bonus > 0 {
		s.appendBoth(ctx, s.newRecord(userID, models.RecordTypeAchievement, bonus, levelUpDescription(level), now))
	}
	// Keep the mirror's aggregate coherent with what the remote accepted.
	s.mirror.SetPoints(userID, points)

	return AwardResult{Points: points, Level: level, LeveledUp: bonus > 0, Bonus: bonus}
}

// awardMirror applies the identical arithmetic against the mirror only.
func (s *Service) awardMirror(userID string, delta int, recType, description string, now time.Time) AwardResult {
	prevPoints := s.mirror.GetInt(userID, fieldPoints)
	points, level, bonus := applyDelta(prevPoints, delta, s.sched)
	s.mirror.SetPoints(userID, points)
	s.mirror.AppendHistory(s.newRecord(userID, recType, delta, description, now))
	if bonus > 0 {
		s.mirror.AppendHistory(s.newRecord(userID, models.RecordTypeAchievement, bonus, levelUpDescription(level), now))
	}
	return AwardResult{Points: points, Level: level, LeveledUp: bonus > 0, Bonus: bonus}
}

// applyDelta advances points by delta and grants at most one level-up
// bonus per call. The bonus joins the running total but is itself exempt
// from further cascade checks; the returned level is re-derived from the
// final total so the persisted level always equals LevelFor(points).
func applyDelta(prevPoints, delta int, sched Schedule) (points, level, bonus int) {
	prevLevel := LevelFor(prevPoints)
	points = prevPoints + delta
	if LevelFor(points) > prevLevel {
		bonus = sched.LevelUpBonus
		points += bonus
	}
	level = LevelFor(points)
	return points, level, bonus
}

// CheckIn records today's check-in for userID. A repeat on the same
// calendar day (seen by either store) is a no-op with AlreadyCheckedIn
// set. Otherwise the streak advances or resets, the bonus schedule is
// applied through Award, and the longest-streak high-water mark is kept.
func (s *Service) CheckIn(ctx context.Context, userID string) CheckInResult {
	unlock := s.lockUser(userID)
	defer unlock()

	now := s.clock()
	today := DayKey(now)

	agg, remoteOK := s.aggregate(ctx, userID)
	if agg.LastCheckInDay == today || s.mirror.LastCheckInDay(userID) == today {
		return CheckInResult{
			AlreadyCheckedIn: true,
			Streak:           agg.Streak,
			LongestStreak:    agg.LongestStreak,
		}
	}

	streak := NextStreak(agg.LastCheckInDay, now, agg.Streak)
	longest := agg.LongestStreak
	isRecord := streak > longest
	if isRecord {
		longest = streak
	}
	bonus := s.sched.CheckInBonus(streak)

	if remoteOK {
		fields := UserFields{"streak": streak, "longest_streak": longest, "last_check_in_day": today}
		if err := s.remote.SetUser(ctx, userID, fields); err != nil {
			s.log.Warnf("remote streak write failed, mirror keeps it: user=%s err=%v", userID, err)
		}
	}
	s.mirror.SetAggregate(&models.UserLedger{
		UserID:         userID,
		Points:         agg.Points,
		Streak:         streak,
		LongestStreak:  longest,
		LastCheckInDay: today,
	})

	s.award(ctx, userID, bonus, models.RecordTypeLogin, checkInDescription(streak))

	return CheckInResult{
		Streak:        streak,
		LongestStreak: longest,
		BonusPoints:   bonus,
		IsNewRecord:   isRecord,
	}
}

// History returns the newest-first point history. The remote store is
// preferred; on failure or an empty result the mirrored list answers.
func (s *Service) History(ctx context.Context, userID string, limit int) []models.PointRecord {
	recs, err := s.remote.QueryHistory(ctx, userID, limit)
	if err == nil && len(recs) > 0 {
		return recs
	}
	if err != nil {
		s.log.Debugf("remote history query failed, serving mirror: user=%s err=%v", userID, err)
	}
	return s.mirror.History(userID, limit)
}

// Summary returns the aggregate read model, remote-preferred.
func (s *Service) Summary(ctx context.Context, userID string) Summary {
	l, remoteOK := s.aggregate(ctx, userID)
	source := SourceRemote
	if !remoteOK {
		source = SourceMirror
	}
	return Summary{
		UserID:         userID,
		Points:         l.Points,
		Level:          LevelFor(l.Points),
		Streak:         l.Streak,
		LongestStreak:  l.LongestStreak,
		LastCheckInDay: l.LastCheckInDay,
		Source:         source,
	}
}

// aggregate reads the user ledger remote-first. The bool reports whether
// the remote store answered; a missing row counts as answered and yields
// the implicit zero ledger.
func (s *Service) aggregate(ctx context.Context, userID string) (*models.UserLedger, bool) {
	l, err := s.remote.GetUser(ctx, userID)
	if err == nil {
		return l, true
	}
	if errors.Is(err, ErrNotFound) {
		return &models.UserLedger{UserID: userID, Level: 1}, true
	}
	s.log.Debugf("remote ledger read failed, serving mirror: user=%s err=%v", userID, err)
	return s.mirror.Snapshot(userID), false
}

// appendBoth appends to the remote history best-effort and to the mirror
// always. History is append-only in both stores.
func (s *Service) appendBoth(ctx context.Context, rec *models.PointRecord) {
	if err := s.remote.AppendHistory(ctx, rec); err != nil {
		s.log.Warnf("remote history append failed: user=%s id=%s err=%v", rec.UserID, rec.ID, err)
	}
	s.mirror.AppendHistory(rec)
}

func (s *Service) newRecord(userID, recType string, points int, description string, now time.Time) *models.PointRecord {
	return &models.PointRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        recType,
		Points:      points,
		Description: description,
		Timestamp:   now,
		CreatedAt:   now,
	}
}

func checkInDescription(streak int) string {
	return fmt.Sprintf("Daily check-in (day %d)", streak)
}

func levelUpDescription(level int) string {
	return fmt.Sprintf("Reached level %d", level)
}
