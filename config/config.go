package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values. Sensitive data
// must come from the config file or the environment, never from defaults.
type AppConfig struct {
	AppPort   string
	JWTSecret string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for the ledger mirror and response caching. Empty host means
	// an in-process mirror.
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Request throttling
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Points ledger rewards
	CheckInBasePoints   int
	ThreeDayBonusPoints int
	WeeklyBonusPoints   int
	LevelUpBonusPoints  int
	HistoryCap          int
	// Ad frequency gate
	AdMinIntervalSec int
	AdBurst          int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. Precedence:
// config/config.json -> defaults -> environment variable overrides.
// It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// loadJSONConfig reads the grouped JSON file into cfg if present. A missing
// file is ignored; invalid JSON is an error.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(section, key string) string {
		if m, ok := raw[section]; ok {
			if s, ok := m[key].(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(section, key string) int {
		if m, ok := raw[section]; ok {
			switch t := m[key].(type) {
			case float64:
				return int(t)
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getBool := func(section, key string) bool {
		if m, ok := raw[section]; ok {
			if b, ok := m[key].(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(section, key string) []string {
		m, ok := raw[section]
		if !ok {
			return nil
		}
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	out.AppPort = getString("app", "AppPort")
	out.JWTSecret = getString("app", "JWTSecret")
	if v := getInt("app", "RateLimitPerMinute"); v != 0 {
		out.RateLimitPerMinute = v
	}
	if list := getStringSlice("app", "AllowedOrigins"); len(list) > 0 {
		out.AllowedOrigins = list
	}

	if v := getString("gin", "Mode"); v != "" {
		out.GinMode = v
	}
	if v := getString("gin", "LogPath"); v != "" {
		out.GinPath = v
	}

	out.DatabaseURI = getString("database", "DatabaseURI")
	out.DBHost = getString("database", "DBHost")
	out.DBPort = getString("database", "DBPort")
	out.DBUser = getString("database", "DBUser")
	out.DBPassword = getString("database", "DBPassword")
	out.DBName = getString("database", "DBName")

	out.RedisHost = getString("redis", "RedisHost")
	if v := getInt("redis", "RedisPort"); v != 0 {
		out.RedisPort = v
	}
	if v := getInt("redis", "RedisDB"); v != 0 {
		out.RedisDB = v
	}
	out.RedisPassword = getString("redis", "RedisPassword")

	if v := getString("log", "Level"); v != "" {
		out.LogLevel = v
	}
	if v := getString("log", "Path"); v != "" {
		out.LogPath = v
	}
	if v := getInt("log", "MaxSizeMB"); v != 0 {
		out.LogMaxSizeMB = v
	}
	if v := getInt("log", "MaxBackups"); v != 0 {
		out.LogMaxBackups = v
	}
	if v := getInt("log", "MaxAgeDays"); v != 0 {
		out.LogMaxAgeDays = v
	}
	out.LogCompress = getBool("log", "Compress")

	if v := getInt("points", "CheckInBasePoints"); v != 0 {
		out.CheckInBasePoints = v
	}
	if v := getInt("points", "ThreeDayBonusPoints"); v != 0 {
		out.ThreeDayBonusPoints = v
	}
	if v := getInt("points", "WeeklyBonusPoints"); v != 0 {
		out.WeeklyBonusPoints = v
	}
	if v := getInt("points", "LevelUpBonusPoints"); v != 0 {
		out.LevelUpBonusPoints = v
	}
	if v := getInt("points", "HistoryCap"); v != 0 {
		out.HistoryCap = v
	}

	if v := getInt("ads", "MinIntervalSec"); v != 0 {
		out.AdMinIntervalSec = v
	}
	if v := getInt("ads", "Burst"); v != 0 {
		out.AdBurst = v
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "studypal_points"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.CheckInBasePoints == 0 {
		c.CheckInBasePoints = 5
	}
	if c.ThreeDayBonusPoints == 0 {
		c.ThreeDayBonusPoints = 10
	}
	if c.WeeklyBonusPoints == 0 {
		c.WeeklyBonusPoints = 15
	}
	if c.LevelUpBonusPoints == 0 {
		c.LevelUpBonusPoints = 10
	}
	if c.HistoryCap == 0 {
		c.HistoryCap = 200
	}
	if c.AdMinIntervalSec == 0 {
		c.AdMinIntervalSec = 300
	}
	if c.AdBurst == 0 {
		c.AdBurst = 1
	}
}

// applyEnvOverrides maps known environment variables onto config values.
func applyEnvOverrides(c *AppConfig) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = mustParseInt(key, v)
		}
	}

	setString(&c.AppPort, "APP_PORT")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.GinMode, "GIN_MODE")
	setString(&c.GinPath, "GIN_PATH")
	setString(&c.DatabaseURI, "DATABASE_URI")
	setString(&c.DBHost, "DB_HOST")
	setString(&c.DBPort, "DB_PORT")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBName, "DB_NAME")
	setString(&c.RedisHost, "REDIS_HOST")
	setInt(&c.RedisPort, "REDIS_PORT")
	setInt(&c.RedisDB, "REDIS_DB")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogPath, "LOG_PATH")
	setInt(&c.LogMaxSizeMB, "LOG_MAX_SIZE_MB")
	setInt(&c.LogMaxBackups, "LOG_MAX_BACKUPS")
	setInt(&c.LogMaxAgeDays, "LOG_MAX_AGE_DAYS")
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = v == "true"
	}
	setInt(&c.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	setInt(&c.CheckInBasePoints, "CHECKIN_BASE_POINTS")
	setInt(&c.ThreeDayBonusPoints, "THREE_DAY_BONUS_POINTS")
	setInt(&c.WeeklyBonusPoints, "WEEKLY_BONUS_POINTS")
	setInt(&c.LevelUpBonusPoints, "LEVEL_UP_BONUS_POINTS")
	setInt(&c.HistoryCap, "HISTORY_CAP")
	setInt(&c.AdMinIntervalSec, "AD_MIN_INTERVAL_SEC")
	setInt(&c.AdBurst, "AD_BURST")
}

func mustParseInt(key, val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value for %s: %v", key, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
