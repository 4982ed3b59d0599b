package config

import (
	"fmt"

	"github.com/Sreehari-776/AgentMarket/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB initializes the database connection and migrates the schema
func InitDB() {
	config, err := LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	DB = db

	if err := MigrateModels(DB); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}
}

// MigrateModels migrates every persisted entity. Shared with the test setup
// so the schema under test matches production.
func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Agent{},
		&models.AgentPackage{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.WithdrawalRequest{},
		&models.PointsHistory{},
		&models.PointsExchange{},
		&models.DailyLogin{},
		&models.UserReferral{},
		&models.Order{},
		&models.AdminCommission{},
	)
}
