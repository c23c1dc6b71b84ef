package chat

import "time"

// ReadReceipt - отметка, что участник прочитал сообщение. Уникальна на
// пару (message, member); уникальный индекс превращает гонки вставки в
// no-op через ON CONFLICT DO NOTHING.
type ReadReceipt struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MessageID string `gorm:"type:uuid;not null;uniqueIndex:idx_receipt_message_member"`
	MemberID  string `gorm:"type:uuid;not null;uniqueIndex:idx_receipt_message_member"`
	ReadAt    time.Time
}

func (ReadReceipt) TableName() string {
	return "chat.read_receipts"
}
