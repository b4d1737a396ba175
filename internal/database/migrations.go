package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/issuecal/internal/models"
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.IssueCache{},
	)
}
