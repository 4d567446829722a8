package models

import "time"

// Point record types. History rows are append-only: the service creates
// them and nothing in this codebase updates or deletes them.
const (
	RecordTypeGoal        = "goal"
	RecordTypeTask        = "task"
	RecordTypeActivity    = "activity"
	RecordTypeLogin       = "login"
	RecordTypeStreak      = "streak"
	RecordTypeAchievement = "achievement"
	RecordTypeQuiz        = "quiz"
)

// PointRecord is a single point-earning event in a user's history.
type PointRecord struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:64;index;not null" json:"user_id"`
	Type        string    `gorm:"size:16;not null" json:"type"`
	Points      int       `gorm:"not null" json:"points"`
	Description string    `gorm:"size:255" json:"description"`
	Timestamp   time.Time `gorm:"index;not null" json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
}

func (PointRecord) TableName() string {
	return "point_records"
}

// ValidRecordType reports whether t is one of the known record types.
func ValidRecordType(t string) bool {
	switch t {
	case RecordTypeGoal, RecordTypeTask, RecordTypeActivity, RecordTypeLogin,
		RecordTypeStreak, RecordTypeAchievement, RecordTypeQuiz:
		return true
	}
	return false
}
