package ledger

import (
	"testing"
	"time"

	"github.com/studypal/points-api/models"
)

func TestMirrorMalformedValueReadsAsZero(t *testing.T) {
	kv := NewMemoryKV()
	m := NewMirror(kv, 0)

	kv.SetString("ledger:u1:points", "not-a-number")
	if got := m.GetInt("u1", fieldPoints); got != 0 {
		t.Fatalf("corrupted points read as %d, want 0", got)
	}

	kv.SetString("ledger:u1:history", "{truncated")
	if recs := m.History("u1", 0); len(recs) != 0 {
		t.Fatalf("corrupted history read as %d records, want 0", len(recs))
	}
}

func TestMirrorHistoryNewestFirst(t *testing.T) {
	m := NewMirror(NewMemoryKV(), 0)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		m.AppendHistory(&models.PointRecord{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Type:      models.RecordTypeActivity,
			Points:    1,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}

	recs := m.History("u1", 0)
	if len(recs) != 3 {
		t.Fatalf("history length = %d, want 3", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Timestamp.After(recs[i-1].Timestamp) {
			t.Fatalf("history not newest-first at index %d", i)
		}
	}
	if recs[0].ID != "c" {
		t.Fatalf("newest record id = %q, want c", recs[0].ID)
	}
}

func TestMirrorHistoryCap(t *testing.T) {
	m := NewMirror(NewMemoryKV(), 5)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		m.AppendHistory(&models.PointRecord{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Points:    1,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	recs := m.History("u1", 0)
	if len(recs) != 5 {
		t.Fatalf("capped history length = %d, want 5", len(recs))
	}
	// Oldest entries were trimmed, newest kept.
	if recs[0].ID != "h" || recs[len(recs)-1].ID != "d" {
		t.Fatalf("cap trimmed wrong end: newest=%q oldest=%q", recs[0].ID, recs[len(recs)-1].ID)
	}
}

func TestMirrorSnapshotDerivesLevel(t *testing.T) {
	kv := NewMemoryKV()
	m := NewMirror(kv, 0)

	m.SetPoints("u1", 250)
	// A corrupted level field must not survive a snapshot.
	kv.SetString("ledger:u1:level", "99")

	snap := m.Snapshot("u1")
	if snap.Points != 250 || snap.Level != 3 {
		t.Fatalf("snapshot points=%d level=%d, want 250/3", snap.Points, snap.Level)
	}
}
