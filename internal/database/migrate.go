package database

import (
	"github.com/s/ecourse/internal/models"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Course{},
		&models.Tag{},
		&models.Lesson{},
		&models.Comment{},
		&models.Action{},
		&models.Rating{},
		&models.ActivityLog{},
	)
}
