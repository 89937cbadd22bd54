package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/uniworld-consultancy/case-service/internal/config"
	"github.com/uniworld-consultancy/case-service/internal/models"
)

// InitDatabase opens the PostgreSQL connection and runs migrations
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Environment == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database pool: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.StaffProfile{},
		&models.StudyDestination{},
		&models.DestinationUniversity{},
		&models.DestinationIntake{},
		&models.DestinationRequirement{},
		&models.DestinationCostItem{},
		&models.DestinationProcessStep{},
		&models.DestinationFAQ{},
		&models.Application{},
		&models.ApplicationStatusHistory{},
		&models.Document{},
		&models.Message{},
	)
}
