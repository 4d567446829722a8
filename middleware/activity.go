package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studypal/points-api/models"
)

// ActivityRecorder bumps the per-day counter for the authenticated user
// after each successful request. Distinct rows per day drive the
// daily-active figure in the public stats.
func ActivityRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		userID := c.GetString(ContextUserIDKey)
		if userID == "" {
			return
		}

		// Local midnight aligns with the DATE column.
		now := time.Now().In(time.Local)
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		row := models.UserActivityDaily{Date: day, UserID: userID, Count: 1}
		db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
		}).Create(&row)
	}
}
