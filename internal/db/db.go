package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"equipment-booking-backend/config"
	"equipment-booking-backend/internal/model"
	"equipment-booking-backend/internal/store"
)

// Open connects to the configured SQL database without migrating it.
func Open(driver string, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case store.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case store.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := logger.Warn
	if cfg.LogQueries {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}

// Migrate creates or updates the state table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.StateEntry{}); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// Init opens the database and runs migrations.
func Init(driver string, cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(driver, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("running database migrations", zap.String("driver", driver))
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database initialization complete")
	return db, nil
}
