package main

import (
	"time"

	"github.com/studypal/points-api/adgate"
	"github.com/studypal/points-api/config"
	"github.com/studypal/points-api/ledger"
	"github.com/studypal/points-api/models"
	"github.com/studypal/points-api/routes"
	"github.com/studypal/points-api/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.UserLedger{}, &models.PointRecord{}, &models.UserActivityDaily{})

	// The mirror rides on Redis when configured, otherwise it stays
	// in-process. Either way reads never fail.
	var kv ledger.KV
	if rc := utils.GetRedis(); rc != nil {
		kv = ledger.NewRedisKV(rc, utils.Sugar)
	} else {
		utils.Sugar.Warn("no redis configured, ledger mirror is in-process only")
		kv = ledger.NewMemoryKV()
	}

	schedule := ledger.Schedule{
		CheckInBase:   cfg.CheckInBasePoints,
		ThreeDayBonus: cfg.ThreeDayBonusPoints,
		WeeklyBonus:   cfg.WeeklyBonusPoints,
		LevelUpBonus:  cfg.LevelUpBonusPoints,
	}
	svc := ledger.NewService(ledger.ServiceConfig{
		Remote:     ledger.NewGormStore(db),
		KV:         kv,
		Schedule:   &schedule,
		HistoryCap: cfg.HistoryCap,
		Logger:     utils.Sugar,
	})

	gate := adgate.New(time.Duration(cfg.AdMinIntervalSec)*time.Second, cfg.AdBurst)

	r := routes.SetupRouter(db, svc, gate)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
