package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studypal/points-api/utils"
)

// SessionController handles session teardown. Sessions are established by
// the host identity provider; this service only revokes its tokens.
type SessionController struct{}

// NewSessionController creates a new controller instance.
func NewSessionController() *SessionController {
	return &SessionController{}
}

// Logout blacklists the caller's token until its natural expiration.
func (s *SessionController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusBadRequest, 40026, "missing bearer token")
		return
	}
	token := strings.TrimSpace(parts[1])

	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}
	expiry := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiry)
	utils.Success(ctx, gin.H{"message": "logged out"})
}
