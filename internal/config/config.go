package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DBConfig struct {
	Driver string
	DSN    string
}

type Config struct {
	Env      string
	LogLevel string
	HTTPPort string
	DB       DBConfig
	// RedisURL enables the persisted snapshots when set.
	RedisURL            string
	SnapshotCompression string
	SnapshotTTL         time.Duration
	DropThreshold       float64
	RefreshSchedule     string
	RepairSchedule      string
	OrphanSweepInterval time.Duration
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() *Config {
	v := viper.New()
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_PORT", "8030")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", ".tmp/db/noteforest.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SNAPSHOT_COMPRESSION", "gzip")
	v.SetDefault("SNAPSHOT_TTL", time.Hour)
	v.SetDefault("DROP_THRESHOLD", 20.0)
	v.SetDefault("REFRESH_SCHEDULE", "@every 1m")
	v.SetDefault("REPAIR_SCHEDULE", "@every 1h")
	v.SetDefault("ORPHAN_SWEEP_INTERVAL", 10*time.Minute)
	v.AutomaticEnv()

	return &Config{
		Env:      v.GetString("ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		HTTPPort: v.GetString("HTTP_PORT"),
		DB: DBConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DB_DSN"),
		},
		RedisURL:            v.GetString("REDIS_URL"),
		SnapshotCompression: v.GetString("SNAPSHOT_COMPRESSION"),
		SnapshotTTL:         v.GetDuration("SNAPSHOT_TTL"),
		DropThreshold:       v.GetFloat64("DROP_THRESHOLD"),
		RefreshSchedule:     v.GetString("REFRESH_SCHEDULE"),
		RepairSchedule:      v.GetString("REPAIR_SCHEDULE"),
		OrphanSweepInterval: v.GetDuration("ORPHAN_SWEEP_INTERVAL"),
	}
}

// ConfigureLogger applies the log level and switches to json logs in production.
func ConfigureLogger(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

// GetDb opens the database selected by the config. It panics when the
// database cannot be opened.
func GetDb(cfg *Config) *gorm.DB {
	gormConfig := &gorm.Config{}
	if cfg.Env != "development" {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DB.DSN)
	default:
		if dir := filepath.Dir(cfg.DB.DSN); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				panic(err)
			}
		}
		dialector = sqlite.Open(cfg.DB.DSN)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		panic(err)
	}

	logrus.Infof("connected to %s database", cfg.DB.Driver)
	return db
}
