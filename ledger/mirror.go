package ledger

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/studypal/points-api/models"
)

// Mirror key fields under the ledger:<userID>: prefix.
const (
	fieldPoints   = "points"
	fieldLevel    = "level"
	fieldStreak   = "streak"
	fieldLongest  = "longest_streak"
	fieldLastDay  = "last_check_in_day"
	fieldHistory  = "history"
	defaultHisCap = 200
)

// Mirror is the local fallback copy of user ledgers kept in a KV. Values
// are string-encoded by the mirror itself; a value that fails to decode
// (truncated write, hand-edited key) reads as zero/absent, never an error.
type Mirror struct {
	kv  KV
	cap int
}

// NewMirror wraps kv. historyCap bounds the stored history list; zero or
// negative means the default cap.
func NewMirror(kv KV, historyCap int) *Mirror {
	if historyCap <= 0 {
		historyCap = defaultHisCap
	}
	return &Mirror{kv: kv, cap: historyCap}
}

func mirrorKey(userID, field string) string {
	return "ledger:" + userID + ":" + field
}

// GetInt reads an integer field, treating absent or malformed values as 0.
func (m *Mirror) GetInt(userID, field string) int {
	raw, ok := m.kv.GetString(mirrorKey(userID, field))
	if !ok {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

// SetInt writes an integer field.
func (m *Mirror) SetInt(userID, field string, v int) {
	m.kv.SetString(mirrorKey(userID, field), strconv.Itoa(v))
}

// LastCheckInDay returns the stored day key, or "" when absent.
func (m *Mirror) LastCheckInDay(userID string) string {
	day, _ := m.kv.GetString(mirrorKey(userID, fieldLastDay))
	return day
}

// SetLastCheckInDay records the most recent qualifying check-in day.
func (m *Mirror) SetLastCheckInDay(userID, day string) {
	m.kv.SetString(mirrorKey(userID, fieldLastDay), day)
}

// Snapshot assembles the mirrored aggregate. Missing fields read as the
// implicit zero ledger; Level is re-derived from Points rather than read
// back, so a stale or corrupted level value cannot survive a snapshot.
func (m *Mirror) Snapshot(userID string) *models.UserLedger {
	points := m.GetInt(userID, fieldPoints)
	return &models.UserLedger{
		UserID:         userID,
		Points:         points,
		Level:          LevelFor(points),
		Streak:         m.GetInt(userID, fieldStreak),
		LongestStreak:  m.GetInt(userID, fieldLongest),
		LastCheckInDay: m.LastCheckInDay(userID),
	}
}

// SetAggregate mirrors every aggregate field of l.
func (m *Mirror) SetAggregate(l *models.UserLedger) {
	m.SetInt(l.UserID, fieldPoints, l.Points)
	m.SetInt(l.UserID, fieldLevel, LevelFor(l.Points))
	m.SetInt(l.UserID, fieldStreak, l.Streak)
	m.SetInt(l.UserID, fieldLongest, l.LongestStreak)
	m.SetLastCheckInDay(l.UserID, l.LastCheckInDay)
}

// SetPoints writes points and the level derived from them.
func (m *Mirror) SetPoints(userID string, points int) {
	m.SetInt(userID, fieldPoints, points)
	m.SetInt(userID, fieldLevel, LevelFor(points))
}

// AppendHistory appends rec to the mirrored history list, trimming the
// oldest entries beyond the cap. The stored list is JSON; a list that no
// longer parses is replaced rather than propagated as an error.
func (m *Mirror) AppendHistory(rec *models.PointRecord) {
	recs := m.history(rec.UserID)
	recs = append(recs, *rec)
	if len(recs) > m.cap {
		recs = recs[len(recs)-m.cap:]
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return
	}
	m.kv.SetString(mirrorKey(rec.UserID, fieldHistory), string(b))
}

// History returns mirrored records newest first, at most limit entries.
// limit <= 0 means no limit.
func (m *Mirror) History(userID string, limit int) []models.PointRecord {
	recs := m.history(userID)
	// Stable sort keeps append order for records sharing a timestamp.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.After(recs[j].Timestamp)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

func (m *Mirror) history(userID string) []models.PointRecord {
	raw, ok := m.kv.GetString(mirrorKey(userID, fieldHistory))
	if !ok {
		return nil
	}
	var recs []models.PointRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil
	}
	return recs
}
