package repository

import (
	"fmt"

	"github.com/iwtcode/conveyorControl"
	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresRepository(cfg *conveyorControl.Config, log *zap.Logger) (*gorm.DB, error) {
	// 1. Check/Create DB
	rootDB, err := gorm.Open(postgres.Open(cfg.PostgresDSN("postgres")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to root postgres db: %w", err)
	}

	var exists bool
	if err := rootDB.Raw("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = ?)", cfg.DBName).Scan(&exists).Error; err != nil {
		return nil, fmt.Errorf("check db existence: %w", err)
	}

	if !exists {
		log.Info("database does not exist, creating", zap.String("db", cfg.DBName))
		if err := rootDB.Exec(fmt.Sprintf("CREATE DATABASE %q", cfg.DBName)).Error; err != nil {
			return nil, fmt.Errorf("create database: %w", err)
		}
	}

	if sqlDB, err := rootDB.DB(); err == nil {
		sqlDB.Close()
	}

	// 2. Connect to App DB
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN(cfg.DBName)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to application database: %w", err)
	}

	// 3. Migrate
	if err := db.AutoMigrate(
		&entities.ConveyorStatus{},
		&entities.StockSummary{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}
