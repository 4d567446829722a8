package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studypal/points-api/adgate"
	"github.com/studypal/points-api/utils"
)

// AdsController decides whether an ad slot may render for the caller. The
// frequency gate is injected by the application root, not reached through
// a global.
type AdsController struct {
	gate *adgate.Gate
}

// NewAdsController creates a new controller instance.
func NewAdsController(gate *adgate.Gate) *AdsController {
	return &AdsController{gate: gate}
}

// GetSlot answers whether the named slot should show an ad right now.
func (a *AdsController) GetSlot(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	slot := ctx.Param("slot")
	if slot == "" {
		utils.Error(ctx, http.StatusBadRequest, 40025, "missing slot")
		return
	}

	show := a.gate.Allow(userID, slot)
	resp := gin.H{"slot": slot, "show": show}
	if !show {
		resp["retry_after_sec"] = int(a.gate.Interval().Seconds())
	}
	utils.Success(ctx, resp)
}
