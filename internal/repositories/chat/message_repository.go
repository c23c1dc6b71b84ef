package chat

import (
	"hqchat_backend/internal/models/chat"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

// FindByID возвращает сообщение с отправителем.
func (r *MessageRepository) FindByID(id string) (*chat.Message, error) {
	var message chat.Message
	err := r.DB.Preload("Sender").First(&message, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListByRoom возвращает сообщения комнаты по порядку создания.
// search - необязательный фильтр по тексту (icontains).
func (r *MessageRepository) ListByRoom(roomID, search string) ([]chat.Message, error) {
	q := r.DB.Preload("Sender").Where("room_id = ?", roomID)
	if search != "" {
		q = q.Where("text ILIKE ?", "%"+search+"%")
	}

	var messages []chat.Message
	err := q.Order("created_at ASC").Find(&messages).Error
	return messages, err
}

// Create сохраняет новое сообщение.
func (r *MessageRepository) Create(message *chat.Message) error {
	return r.DB.Create(message).Error
}

// Update сохраняет правку сообщения; updated_at уходит вперёд от
// created_at, что помечает сообщение как отредактированное.
func (r *MessageRepository) Update(message *chat.Message) error {
	return r.DB.Save(message).Error
}

// Delete удаляет сообщение вместе с его квитанциями.
func (r *MessageRepository) Delete(messageID string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&chat.ReadReceipt{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", messageID).Delete(&chat.Message{}).Error
	})
}
