package chat

import "time"

// Member - связь принципала с комнатой. Не более одной строки на пару
// (room, user). Active - мягкое удаление, Online - присутствие.
type Member struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RoomID      string `gorm:"type:uuid;not null;uniqueIndex:idx_member_room_user"`
	UserID      string `gorm:"type:uuid;not null;uniqueIndex:idx_member_room_user"`
	Active      bool   `gorm:"default:true"`
	Online      bool   `gorm:"default:false"`
	JoinedAt    time.Time
	LastUpdated time.Time `gorm:"autoUpdateTime"`
}

func (Member) TableName() string {
	return "chat.members"
}
