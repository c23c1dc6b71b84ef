package database

import (
	"hqchat_backend/internal/models"
	"hqchat_backend/internal/models/chat"

	"gorm.io/gorm"
)

// Migrate накатывает схему чата. Схема "chat" создаётся заранее -
// AutoMigrate не умеет создавать схемы postgres.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE SCHEMA IF NOT EXISTS chat").Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&models.User{},
		&chat.Room{},
		&chat.Member{},
		&chat.Message{},
		&chat.ReadReceipt{},
	)
}
