package chat

import (
	"hqchat_backend/internal/models"
	"hqchat_backend/internal/models/chat"
)

// Порты сервисного слоя. Реализуются GORM-репозиториями; тесты
// подставляют in-memory фейки.

type RoomStore interface {
	FindByID(id string) (*chat.Room, error)
	FindAllByUser(userID string) ([]chat.Room, error)
	Create(room *chat.Room) error
	Update(room *chat.Room) error
	Delete(roomID string) error
	MessageCount(roomID string) (int64, error)
}

type MemberStore interface {
	Find(roomID, userID string) (*chat.Member, error)
	FindByID(id string) (*chat.Member, error)
	ListByRoom(roomID string) ([]chat.Member, error)
	ListOnline(roomID string) ([]chat.Member, error)
	GetOrCreate(roomID, userID string) (*chat.Member, error)
	SetActive(memberID string, active bool) error
	SetOnline(roomID, userID string, online bool) (int64, error)
}

type MessageStore interface {
	FindByID(id string) (*chat.Message, error)
	ListByRoom(roomID, search string) ([]chat.Message, error)
	Create(message *chat.Message) error
	Update(message *chat.Message) error
	Delete(messageID string) error
}

// ReceiptStore отвечает за квитанции прочтения. CreateMany и
// ClearUnread обязаны глотать дубликаты по (message, member) как no-op.
type ReceiptStore interface {
	CreateMany(receipts []chat.ReadReceipt) error
	Exists(memberID, messageID string) (bool, error)
	UnreadCount(roomID, memberID string) (int64, error)
	ClearUnread(roomID, memberID string) (int64, error)
}

type UserStore interface {
	FindByEmail(email string) (*models.User, error)
	FindByID(id string) (*models.User, error)
}
