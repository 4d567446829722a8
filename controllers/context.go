package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/studypal/points-api/middleware"
)

// getUserID extracts the authenticated user ID set by the auth middleware.
func getUserID(ctx *gin.Context) (string, bool) {
	userID := ctx.GetString(middleware.ContextUserIDKey)
	return userID, userID != ""
}
