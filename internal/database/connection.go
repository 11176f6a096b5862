package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/s/ecourse/internal/config"
	"github.com/s/ecourse/internal/logger"
)

// Connect opens the database through the lib/pq driver, retrying while the
// server is still starting up.
func Connect(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	attempts := cfg.Database.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	gormCfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(logger.GormLevel(cfg.Database.LogLevel)),
	}

	log := logger.DB()

	var err error
	for i := 0; i < attempts; i++ {
		var db *gorm.DB
		db, err = open(cfg, gormCfg)
		if err == nil {
			log.Info("connected to database", "attempt", i+1)
			return db, nil
		}

		log.Warn("database connection attempt failed", "attempt", i+1, "error", err)
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.Database.RetryDelay):
		}
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", attempts, err)
}

func open(cfg *config.Config, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        cfg.Database.URL,
	}), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
