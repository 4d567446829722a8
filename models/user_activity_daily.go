package models

import "time"

// UserActivityDaily stores one row per user per calendar day with the
// number of point-earning requests served, feeding the public stats.
type UserActivityDaily struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"index:idx_activity_date_user,unique;type:date;not null" json:"date"`
	UserID    string    `gorm:"index:idx_activity_date_user,unique;size:64;not null" json:"user_id"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserActivityDaily) TableName() string {
	return "user_activity_daily"
}
