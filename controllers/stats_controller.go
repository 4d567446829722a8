package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studypal/points-api/models"
	"github.com/studypal/points-api/utils"
)

const (
	statsCacheTTL       = time.Minute
	defaultLeaderboard  = 10
	maxLeaderboardLimit = 100
)

// StatsController provides public gamification statistics.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the gamification layer.
func (s *StatsController) GetStats(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes("stats:summary"); ok {
		var cached gin.H
		if json.Unmarshal(b, &cached) == nil {
			utils.Success(ctx, cached)
			return
		}
	}

	var userCount int64
	var recordCount int64
	var pointsToday int64
	var dailyActive int64

	if err := s.db.Model(&models.UserLedger{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}

	if err := s.db.Model(&models.PointRecord{}).Count(&recordCount).Error; err != nil {
		recordCount = 0
	}

	now := time.Now().In(time.Local)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.db.Model(&models.PointRecord{}).
		Where("timestamp >= ?", todayStart).
		Select("COALESCE(SUM(points),0)").
		Scan(&pointsToday).Error; err != nil {
		pointsToday = 0
	}

	// Daily active: distinct users with any point-earning request today.
	today := now.Format("2006-01-02")
	if err := s.db.Model(&models.UserActivityDaily{}).
		Where("date = ?", today).
		Count(&dailyActive).Error; err != nil {
		dailyActive = 0
	}

	payload := gin.H{
		"user_count":         userCount,
		"record_count":       recordCount,
		"points_today":       pointsToday,
		"daily_active_count": dailyActive,
	}
	utils.CacheSetJSON("stats:summary", payload, statsCacheTTL)
	utils.Success(ctx, payload)
}

// leaderboardEntry is one row of the public leaderboard.
type leaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Points        int    `json:"points"`
	Level         int    `json:"level"`
	Streak        int    `json:"streak"`
	LongestStreak int    `json:"longest_streak"`
}

// GetLeaderboard returns the top users by cumulative points.
func (s *StatsController) GetLeaderboard(ctx *gin.Context) {
	limit := defaultLeaderboard
	if raw := ctx.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			utils.Error(ctx, http.StatusBadRequest, 40024, "invalid limit")
			return
		}
		if v > maxLeaderboardLimit {
			v = maxLeaderboardLimit
		}
		limit = v
	}

	cacheKey := "stats:leaderboard:" + strconv.Itoa(limit)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		var cached []leaderboardEntry
		if json.Unmarshal(b, &cached) == nil {
			utils.Success(ctx, gin.H{"leaderboard": cached})
			return
		}
	}

	var ledgers []models.UserLedger
	if err := s.db.Order("points DESC, updated_at ASC").Limit(limit).Find(&ledgers).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load leaderboard")
		return
	}

	entries := make([]leaderboardEntry, 0, len(ledgers))
	for i, l := range ledgers {
		entries = append(entries, leaderboardEntry{
			Rank:          i + 1,
			UserID:        l.UserID,
			Points:        l.Points,
			Level:         l.Level,
			Streak:        l.Streak,
			LongestStreak: l.LongestStreak,
		})
	}

	utils.CacheSetJSON(cacheKey, entries, statsCacheTTL)
	utils.Success(ctx, gin.H{"leaderboard": entries})
}
