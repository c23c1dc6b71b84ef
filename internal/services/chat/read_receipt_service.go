package chat

import (
	"time"

	"hqchat_backend/internal/models/chat"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// ReadReceiptService - движок состояния прочтения: счётчики
// непрочитанного, квитанции доставки и их массовое закрытие.
type ReadReceiptService struct {
	Members  MemberStore
	Receipts ReceiptStore
	Bus      Bus
}

func NewReadReceiptService(members MemberStore, receipts ReceiptStore, bus Bus) *ReadReceiptService {
	return &ReadReceiptService{
		Members:  members,
		Receipts: receipts,
		Bus:      bus,
	}
}

// RecordDeliveryReceipts создаёт квитанции нового сообщения для всех
// активных участников комнаты, которые сейчас в сети, кроме
// отправителя. Вызывается синхронно при создании сообщения, до
// рассылки: к моменту, когда подписчик видит событие, счётчики уже
// согласованы. Дубликаты гасятся хранилищем.
func (s *ReadReceiptService) RecordDeliveryReceipts(message *chat.Message) error {
	online, err := s.Members.ListOnline(message.RoomID)
	if err != nil {
		return err
	}

	now := time.Now()
	receipts := lo.FilterMap(online, func(m chat.Member, _ int) (chat.ReadReceipt, bool) {
		if m.ID == message.SenderID {
			return chat.ReadReceipt{}, false
		}
		return chat.ReadReceipt{
			MessageID: message.ID,
			MemberID:  m.ID,
			ReadAt:    now,
		}, true
	})

	return s.Receipts.CreateMany(receipts)
}

// HasRead сообщает, закрыто ли сообщение квитанцией участника. Без
// строки участника квитанции быть не может.
func (s *ReadReceiptService) HasRead(roomID, userID, messageID string) (bool, error) {
	member, err := s.Members.Find(roomID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return s.Receipts.Exists(member.ID, messageID)
}

// UnreadCount возвращает число непрочитанных сообщений пользователя в
// комнате. Если строки участника нет, пользователь никогда не вступал
// в комнату - непрочитанного для него не существует.
func (s *ReadReceiptService) UnreadCount(roomID, userID string) (int64, error) {
	member, err := s.Members.Find(roomID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return s.Receipts.UnreadCount(roomID, member.ID)
}

// ClearUnread закрывает все текущие непрочитанные сообщения участника
// и публикует unread-cleared в комнату. Без строки участника - no-op.
// Атомарность относительно конкурентных RecordDeliveryReceipts даёт
// хранилище: один INSERT..SELECT, повторы схлопываются по уникальному
// индексу, сообщения после снимка остаются непрочитанными.
func (s *ReadReceiptService) ClearUnread(roomID, userID string) error {
	member, err := s.Members.Find(roomID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	if _, err := s.Receipts.ClearUnread(roomID, member.ID); err != nil {
		return err
	}

	s.Bus.Publish(roomID, Event{Type: EventUnreadCleared, Data: roomID})
	return nil
}
