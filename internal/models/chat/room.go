package chat

import "time"

type RoomKind string

const (
	RoomKindPair  RoomKind = "pair"
	RoomKindGroup RoomKind = "group"
)

// Room - логический канал, объединяющий участников и сообщения.
// Инвариант: в парной комнате ровно два участника; удаление запрещено,
// пока в комнате есть сообщения.
type Room struct {
	ID            string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Kind          RoomKind `gorm:"type:varchar(40);default:'pair'"`
	Name          *string  `gorm:"type:varchar(255)"`
	CoverImageURL *string  `gorm:"type:varchar(500)"`
	CreatedByID   *string  `gorm:"type:uuid;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Members []Member `gorm:"foreignKey:RoomID"`
}

func (Room) TableName() string {
	return "chat.rooms"
}
