package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studypal/points-api/ledger"
	"github.com/studypal/points-api/models"
	"github.com/studypal/points-api/utils"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	leaderboardCachePrefix = "stats:"
)

// eventReward maps a UI activity event to a point delta and record type.
// Clients name an event; they never pick their own deltas.
type eventReward struct {
	points      int
	recordType  string
	description string
}

var eventRewards = map[string]eventReward{
	"chat_message":      {2, models.RecordTypeActivity, "Sent a study chat message"},
	"quiz_completed":    {20, models.RecordTypeQuiz, "Completed a quiz"},
	"chapter_completed": {15, models.RecordTypeGoal, "Finished a chapter"},
	"task_completed":    {10, models.RecordTypeTask, "Completed a task"},
	"goal_reached":      {25, models.RecordTypeGoal, "Reached a learning goal"},
}

// PointsController exposes the ledger operations to the UI.
type PointsController struct {
	svc *ledger.Service
}

// NewPointsController creates a new controller instance.
func NewPointsController(svc *ledger.Service) *PointsController {
	return &PointsController{svc: svc}
}

// CheckIn records the daily check-in and returns the streak outcome.
func (p *PointsController) CheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res := p.svc.CheckIn(ctx.Request.Context(), userID)
	if !res.AlreadyCheckedIn {
		utils.InvalidateByPrefix(leaderboardCachePrefix)
	}
	utils.Success(ctx, res)
}

// CheckInStatus returns the user's streak counters and last check-in day.
func (p *PointsController) CheckInStatus(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	sum := p.svc.Summary(ctx.Request.Context(), userID)
	utils.Success(ctx, gin.H{
		"streak":            sum.Streak,
		"longest_streak":    sum.LongestStreak,
		"last_check_in_day": sum.LastCheckInDay,
		"source":            sum.Source,
	})
}

type eventRequest struct {
	Event       string `json:"event" binding:"required"`
	Description string `json:"description"`
}

// PostEvent awards points for a named activity event.
func (p *PointsController) PostEvent(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req eventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request body")
		return
	}
	reward, known := eventRewards[req.Event]
	if !known {
		utils.Error(ctx, http.StatusBadRequest, 40022, "unknown event")
		return
	}

	description := reward.description
	if req.Description != "" {
		description = utils.Sanitize(req.Description)
	}

	res := p.svc.Award(ctx.Request.Context(), userID, reward.points, reward.recordType, description)
	utils.InvalidateByPrefix(leaderboardCachePrefix)
	utils.Success(ctx, res)
}

// History returns the newest-first point history with a per-day view.
func (p *PointsController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	limit := defaultHistoryLimit
	if raw := ctx.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			utils.Error(ctx, http.StatusBadRequest, 40023, "invalid limit")
			return
		}
		if v > maxHistoryLimit {
			v = maxHistoryLimit
		}
		limit = v
	}

	recs := p.svc.History(ctx.Request.Context(), userID, limit)
	utils.Success(ctx, gin.H{
		"records": recs,
		"by_day":  ledger.GroupByDay(recs),
	})
}

// Me returns the aggregate ledger summary for the caller.
func (p *PointsController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	utils.Success(ctx, p.svc.Summary(ctx.Request.Context(), userID))
}
