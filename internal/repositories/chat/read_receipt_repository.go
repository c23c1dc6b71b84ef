package chat

import (
	"hqchat_backend/internal/models/chat"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReadReceiptRepository struct {
	DB *gorm.DB
}

func NewReadReceiptRepository(db *gorm.DB) *ReadReceiptRepository {
	return &ReadReceiptRepository{DB: db}
}

// CreateMany - массовая вставка квитанций. Дубликаты по уникальному
// индексу (message, member) молча пропускаются: гонка двух писателей
// схлопывается в no-op, а не в ошибку.
func (r *ReadReceiptRepository) CreateMany(receipts []chat.ReadReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&receipts).Error
}

// Exists проверяет, есть ли квитанция участника на сообщение.
func (r *ReadReceiptRepository) Exists(memberID, messageID string) (bool, error) {
	var count int64
	err := r.DB.Model(&chat.ReadReceipt{}).
		Where("member_id = ? AND message_id = ?", memberID, messageID).
		Count(&count).Error
	return count > 0, err
}

// UnreadCount возвращает число сообщений комнаты, не отправленных этим
// участником и не имеющих его квитанции.
func (r *ReadReceiptRepository) UnreadCount(roomID, memberID string) (int64, error) {
	var count int64
	err := r.DB.Raw(`
		SELECT COUNT(*) FROM chat.messages m
		WHERE m.room_id = ?
		AND m.sender_id <> ?
		AND NOT EXISTS (
			SELECT 1 FROM chat.read_receipts rr
			WHERE rr.message_id = m.id AND rr.member_id = ?
		)
	`, roomID, memberID, memberID).Scan(&count).Error
	return count, err
}

// ClearUnread закрывает все непрочитанные сообщения участника одной
// вставкой. Один оператор атомарен относительно конкурентных
// CreateMany: повторы гасятся ON CONFLICT по уникальному индексу, а
// сообщения, пришедшие после снимка SELECT, остаются непрочитанными.
func (r *ReadReceiptRepository) ClearUnread(roomID, memberID string) (int64, error) {
	res := r.DB.Exec(`
		INSERT INTO chat.read_receipts (id, message_id, member_id, read_at)
		SELECT gen_random_uuid(), m.id, ?, NOW()
		FROM chat.messages m
		WHERE m.room_id = ?
		AND m.sender_id <> ?
		AND NOT EXISTS (
			SELECT 1 FROM chat.read_receipts rr
			WHERE rr.message_id = m.id AND rr.member_id = ?
		)
		ON CONFLICT DO NOTHING
	`, memberID, roomID, memberID, memberID)
	return res.RowsAffected, res.Error
}
