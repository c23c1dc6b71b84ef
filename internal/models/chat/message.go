package chat

import "time"

// Message - сообщение в комнате. Мутировать и удалять его может только
// отправитель. Edited == (UpdatedAt != CreatedAt).
type Message struct {
	ID             string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RoomID         string  `gorm:"type:uuid;not null;index"`
	SenderID       string  `gorm:"type:uuid;not null;index"` // member id
	Text           *string `gorm:"type:text"`
	URL            *string `gorm:"type:varchar(500)"`
	URLContentType *string `gorm:"type:varchar(255)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Sender       *Member       `gorm:"foreignKey:SenderID"`
	ReadReceipts []ReadReceipt `gorm:"foreignKey:MessageID"`
}

func (Message) TableName() string {
	return "chat.messages"
}

// Edited - true, если сообщение правили после создания.
func (m *Message) Edited() bool {
	return !m.UpdatedAt.Equal(m.CreatedAt)
}
