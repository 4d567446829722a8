package models

import "time"

// UserLedger is the per-user aggregate of the gamification layer. Points is
// the single source of truth; Level is a cache recomputed from Points on
// every write (see ledger.LevelFor) and must never be trusted for arithmetic.
type UserLedger struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"size:64;uniqueIndex;not null" json:"user_id"`
	Points         int       `gorm:"default:0" json:"points"`
	Level          int       `gorm:"default:1" json:"level"`
	Streak         int       `gorm:"default:0" json:"streak"`
	LongestStreak  int       `gorm:"default:0" json:"longest_streak"`
	LastCheckInDay string    `gorm:"size:10" json:"last_check_in_day"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (UserLedger) TableName() string {
	return "user_ledgers"
}
