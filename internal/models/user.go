package models

import (
	"time"

	"gorm.io/datatypes"
)

// User - владелец учётных записей внешний (выдача и отзыв токенов не
// здесь). Таблица читается только для резолва принципала по email из
// токена и для отображения собеседника в парных комнатах.
type User struct {
	ID    string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Email string `gorm:"uniqueIndex;not null"`
	// Массив строк-разрешений вида ["can_view_chat", ...], как его
	// хранит внешний сервис аккаунтов.
	Permissions datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string {
	return "users"
}
