package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studypal/points-api/adgate"
	"github.com/studypal/points-api/config"
	"github.com/studypal/points-api/controllers"
	"github.com/studypal/points-api/ledger"
	"github.com/studypal/points-api/middleware"
	"github.com/studypal/points-api/utils"
)

// SetupRouter wires routes, middlewares, and controllers. The ledger
// service and ad gate are built by main and injected here.
func SetupRouter(db *gorm.DB, svc *ledger.Service, gate *adgate.Gate) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	pointsController := controllers.NewPointsController(svc)
	statsController := controllers.NewStatsController(db)
	adsController := controllers.NewAdsController(gate)
	sessionController := controllers.NewSessionController()

	api := r.Group("/api/v1")

	// Public stats endpoints
	api.GET("/stats", statsController.GetStats)
	api.GET("/stats/leaderboard", statsController.GetLeaderboard)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware(), middleware.ActivityRecorder(db))

	pointsGroup := protected.Group("/points")
	pointsGroup.POST("/checkin", pointsController.CheckIn)
	pointsGroup.GET("/checkin/status", pointsController.CheckInStatus)
	pointsGroup.POST("/events", pointsController.PostEvent)
	pointsGroup.GET("/history", pointsController.History)
	pointsGroup.GET("/me", pointsController.Me)

	protected.GET("/ads/slot/:slot", adsController.GetSlot)
	protected.POST("/auth/logout", sessionController.Logout)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
