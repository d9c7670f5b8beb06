package repo

import (
	"log"

	"landlord-service/internal/config"
	"landlord-service/internal/model"
	"landlord-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.GlobalConfig.Database.DSN
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("Failed to connect to database",
			zap.Error(err),
		)
	}

	err = DB.AutoMigrate(
		&model.User{},
		&model.GameRecord{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
