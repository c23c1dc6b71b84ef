package chat

import (
	"hqchat_backend/internal/models/chat"

	"gorm.io/gorm"
)

type RoomRepository struct {
	DB *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{DB: db}
}

// FindByID возвращает комнату с участниками.
func (r *RoomRepository) FindByID(id string) (*chat.Room, error) {
	var room chat.Room
	err := r.DB.Preload("Members").First(&room, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindAllByUser возвращает комнаты, где пользователь - активный участник.
func (r *RoomRepository) FindAllByUser(userID string) ([]chat.Room, error) {
	var rooms []chat.Room
	err := r.DB.
		Joins("JOIN chat.members m ON m.room_id = rooms.id").
		Where("m.user_id = ? AND m.active", userID).
		Preload("Members").
		Order("rooms.updated_at DESC").
		Find(&rooms).Error
	return rooms, err
}

// Create создаёт новую комнату.
func (r *RoomRepository) Create(room *chat.Room) error {
	return r.DB.Create(room).Error
}

// Update сохраняет изменённые поля комнаты.
func (r *RoomRepository) Update(room *chat.Room) error {
	return r.DB.Save(room).Error
}

// Delete удаляет комнату вместе с участниками (hard delete).
func (r *RoomRepository) Delete(roomID string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&chat.Member{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", roomID).Delete(&chat.Room{}).Error
	})
}

// MessageCount возвращает число сообщений в комнате. Используется для
// защиты от удаления непустой комнаты.
func (r *RoomRepository) MessageCount(roomID string) (int64, error) {
	var count int64
	err := r.DB.Model(&chat.Message{}).Where("room_id = ?", roomID).Count(&count).Error
	return count, err
}
