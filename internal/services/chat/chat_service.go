package chat

import (
	"time"

	"hqchat_backend/internal/auth"
	"hqchat_backend/internal/dto"
	"hqchat_backend/internal/logger"
	"hqchat_backend/internal/models/chat"
	"hqchat_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ChatService - оркестровка комнат, участников и сообщений поверх
// хранилища, Guard и шины рассылки. Отказ в доступе и отсутствие
// ресурса на защищённых путях отдаются одним и тем же ответом.
type ChatService struct {
	Rooms    RoomStore
	Members  MemberStore
	Messages MessageStore
	Users    UserStore
	Guard    *Guard
	Receipts *ReadReceiptService
	Bus      Bus
}

func NewChatService(
	rooms RoomStore,
	members MemberStore,
	messages MessageStore,
	users UserStore,
	guard *Guard,
	receipts *ReadReceiptService,
	bus Bus,
) *ChatService {
	return &ChatService{
		Rooms:    rooms,
		Members:  members,
		Messages: messages,
		Users:    users,
		Guard:    guard,
		Receipts: receipts,
		Bus:      bus,
	}
}

// CreateRoom создаёт комнату. Парная комната получает ровно двух
// участников: создателя и собеседника по email.
func (s *ChatService) CreateRoom(principal *auth.Principal, req dto.CreateRoomRequest) (*dto.RoomView, error) {
	kind := req.Kind
	if kind == "" {
		kind = chat.RoomKindPair
	}

	room := &chat.Room{
		ID:            uuid.NewString(),
		Kind:          kind,
		Name:          req.Name,
		CoverImageURL: req.CoverImageURL,
		CreatedByID:   &principal.UserID,
	}

	if kind == chat.RoomKindPair {
		if req.PairEmail == nil {
			return nil, apperrors.NewBadRequestError("pair_email is required for a pair room")
		}
		peer, err := s.Users.FindByEmail(*req.PairEmail)
		if err != nil {
			return nil, apperrors.ErrNotFound(err)
		}
		if err := s.Rooms.Create(room); err != nil {
			return nil, apperrors.InternalError(err)
		}
		for _, userID := range []string{principal.UserID, peer.ID} {
			if _, err := s.Members.GetOrCreate(room.ID, userID); err != nil {
				return nil, apperrors.InternalError(err)
			}
		}
	} else {
		if err := s.Rooms.Create(room); err != nil {
			return nil, apperrors.InternalError(err)
		}
		if _, err := s.Members.GetOrCreate(room.ID, principal.UserID); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	// Перечитываем комнату, чтобы в представление попали только что
	// созданные участники (display name парной комнаты).
	if created, err := s.Rooms.FindByID(room.ID); err == nil {
		room = created
	}
	view := s.roomView(principal, room)
	return &view, nil
}

// ListRooms возвращает комнаты принципала с display name и счётчиком
// непрочитанного.
func (s *ChatService) ListRooms(principal *auth.Principal) ([]dto.RoomView, error) {
	rooms, err := s.Rooms.FindAllByUser(principal.UserID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	views := lo.Map(rooms, func(room chat.Room, _ int) dto.RoomView {
		return s.roomView(principal, &room)
	})
	return views, nil
}

// GetRoom возвращает комнату после проверки CanView.
func (s *ChatService) GetRoom(principal *auth.Principal, roomID string) (*dto.RoomView, error) {
	if d := s.Guard.CanView(principal, roomID); !d.Allowed {
		return nil, apperrors.ErrForbidden
	}
	room, err := s.Rooms.FindByID(roomID)
	if err != nil {
		return nil, apperrors.ErrForbidden
	}
	view := s.roomView(principal, room)
	return &view, nil
}

// UpdateRoom правит имя и обложку. Разрешено только создателю.
func (s *ChatService) UpdateRoom(principal *auth.Principal, roomID string, req dto.UpdateRoomRequest) (*dto.RoomView, error) {
	room, err := s.Rooms.FindByID(roomID)
	if err != nil {
		return nil, apperrors.ErrForbidden
	}
	if room.CreatedByID == nil || *room.CreatedByID != principal.UserID {
		return nil, apperrors.ErrForbidden
	}

	if req.Name != nil {
		room.Name = req.Name
	}
	if req.CoverImageURL != nil {
		room.CoverImageURL = req.CoverImageURL
	}
	if err := s.Rooms.Update(room); err != nil {
		return nil, apperrors.InternalError(err)
	}

	view := s.roomView(principal, room)
	return &view, nil
}

// DeleteRoom удаляет комнату. Только создатель; комната с сообщениями
// защищена от удаления.
func (s *ChatService) DeleteRoom(principal *auth.Principal, roomID string) error {
	room, err := s.Rooms.FindByID(roomID)
	if err != nil {
		return apperrors.ErrForbidden
	}
	if room.CreatedByID == nil || *room.CreatedByID != principal.UserID {
		return apperrors.ErrForbidden
	}

	count, err := s.Rooms.MessageCount(roomID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if count > 0 {
		return apperrors.ErrRoomNotEmpty()
	}

	if err := s.Rooms.Delete(roomID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// ListMembers возвращает участников комнаты после проверки CanView.
func (s *ChatService) ListMembers(principal *auth.Principal, roomID string) ([]dto.MemberView, error) {
	if d := s.Guard.CanView(principal, roomID); !d.Allowed {
		return nil, apperrors.ErrForbidden
	}
	members, err := s.Members.ListByRoom(roomID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	views := lo.Map(members, func(m chat.Member, _ int) dto.MemberView {
		return dto.NewMemberView(&m)
	})
	return views, nil
}

// AddMember добавляет пользователя в комнату по email. Повторное
// добавление возвращает существующую (реактивированную) строку. Состав
// парной комнаты фиксирован: принять можно только её исходного
// участника (реактивация), третий пользователь отклоняется.
func (s *ChatService) AddMember(principal *auth.Principal, roomID, userEmail string) (*dto.MemberView, error) {
	if d := s.Guard.CanView(principal, roomID); !d.Allowed {
		return nil, apperrors.ErrForbidden
	}
	room, err := s.Rooms.FindByID(roomID)
	if err != nil {
		return nil, apperrors.ErrForbidden
	}
	user, err := s.Users.FindByEmail(userEmail)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if room.Kind == chat.RoomKindPair {
		if _, err := s.Members.Find(roomID, user.ID); err != nil {
			return nil, apperrors.ErrPairRoomFixed()
		}
	}
	member, err := s.Members.GetOrCreate(roomID, user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	view := dto.NewMemberView(member)
	return &view, nil
}

// RemoveMember - мягкое удаление участника. Разрешено создателю
// комнаты и самому участнику.
func (s *ChatService) RemoveMember(principal *auth.Principal, roomID, memberID string) error {
	room, err := s.Rooms.FindByID(roomID)
	if err != nil {
		return apperrors.ErrForbidden
	}
	member, err := s.Members.FindByID(memberID)
	if err != nil || member.RoomID != roomID {
		return apperrors.ErrForbidden
	}

	isCreator := room.CreatedByID != nil && *room.CreatedByID == principal.UserID
	if !isCreator && member.UserID != principal.UserID {
		return apperrors.ErrForbidden
	}

	if err := s.Members.SetActive(memberID, false); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// ListMessages возвращает сообщения комнаты после проверки CanView.
// search - необязательный фильтр по тексту.
func (s *ChatService) ListMessages(principal *auth.Principal, roomID, search string) ([]dto.MessageView, error) {
	if d := s.Guard.CanView(principal, roomID); !d.Allowed {
		return nil, apperrors.ErrForbidden
	}
	messages, err := s.Messages.ListByRoom(roomID, search)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	views := lo.Map(messages, func(m chat.Message, _ int) dto.MessageView {
		return dto.NewMessageView(&m)
	})
	return views, nil
}

// SendMessage - защищённая отправка: персист, синхронные квитанции
// доставки, затем рассылка message-created. Сбой бухгалтерии квитанций
// логируется и не блокирует ни запись, ни рассылку: источник истины -
// сами сообщения, квитанции пересчитываемы.
func (s *ChatService) SendMessage(principal *auth.Principal, roomID string, req dto.SendMessageRequest) (*dto.MessageView, error) {
	if d := s.Guard.CanSend(principal, roomID); !d.Allowed {
		return nil, apperrors.ErrForbidden
	}

	sender, err := s.Members.Find(roomID, principal.UserID)
	if err != nil {
		return nil, apperrors.ErrForbidden
	}

	now := time.Now()
	message := &chat.Message{
		ID:             uuid.NewString(),
		RoomID:         roomID,
		SenderID:       sender.ID,
		Text:           req.Text,
		URL:            req.URL,
		URLContentType: req.URLContentType,
		CreatedAt:      now,
		UpdatedAt:      now,
		Sender:         sender,
	}
	if err := s.Messages.Create(message); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.Receipts.RecordDeliveryReceipts(message); err != nil {
		logger.Error("Failed to record delivery receipts", "message_id", message.ID, "error", err)
	}

	view := dto.NewMessageView(message)
	s.Bus.Publish(roomID, Event{Type: EventMessageCreated, Data: view})
	return &view, nil
}

// EditMessage - правка сообщения: разрешение плюс авторство.
func (s *ChatService) EditMessage(principal *auth.Principal, messageID string, req dto.SendMessageRequest) (*dto.MessageView, error) {
	message, err := s.Messages.FindByID(messageID)
	if err != nil {
		return nil, apperrors.ErrForbidden
	}
	if d := s.Guard.CanEdit(principal, message); !d.Allowed {
		return nil, apperrors.ErrForbidden
	}

	message.Text = req.Text
	message.URL = req.URL
	message.URLContentType = req.URLContentType
	message.UpdatedAt = time.Now()
	if err := s.Messages.Update(message); err != nil {
		return nil, apperrors.InternalError(err)
	}

	view := dto.NewMessageView(message)
	s.Bus.Publish(message.RoomID, Event{Type: EventMessageEdited, Data: view})
	return &view, nil
}

// DeleteMessage удаляет сообщение. Сверка автора выполняется здесь, на
// границе мутации, независимо от Guard.
func (s *ChatService) DeleteMessage(principal *auth.Principal, messageID string) error {
	message, err := s.Messages.FindByID(messageID)
	if err != nil {
		return apperrors.ErrForbidden
	}
	sender, err := s.Members.FindByID(message.SenderID)
	if err != nil || sender.UserID != principal.UserID {
		return apperrors.ErrForbidden
	}

	if err := s.Messages.Delete(messageID); err != nil {
		return apperrors.InternalError(err)
	}

	s.Bus.Publish(message.RoomID, Event{Type: EventMessageDeleted, Data: message.ID})
	return nil
}

// MessageRead возвращает, закрыто ли сообщение квитанцией принципала.
// Сообщение должно принадлежать указанной комнате.
func (s *ChatService) MessageRead(principal *auth.Principal, roomID, messageID string) (bool, error) {
	if d := s.Guard.CanView(principal, roomID); !d.Allowed {
		return false, apperrors.ErrForbidden
	}
	message, err := s.Messages.FindByID(messageID)
	if err != nil || message.RoomID != roomID {
		return false, apperrors.ErrForbidden
	}
	return s.Receipts.HasRead(roomID, principal.UserID, messageID)
}

// ClearUnread закрывает непрочитанное принципала в комнате.
func (s *ChatService) ClearUnread(principal *auth.Principal, roomID string) error {
	if err := s.Receipts.ClearUnread(roomID, principal.UserID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// roomView собирает представление комнаты для конкретного принципала:
// display name парной комнаты - email собеседника.
func (s *ChatService) roomView(principal *auth.Principal, room *chat.Room) dto.RoomView {
	view := dto.RoomView{
		ID:            room.ID,
		Kind:          room.Kind,
		Name:          room.Name,
		CoverImageURL: room.CoverImageURL,
		DateAdded:     room.CreatedAt,
	}
	if room.Name != nil {
		view.DisplayName = *room.Name
	}

	if room.Kind == chat.RoomKindPair {
		peer, found := lo.Find(room.Members, func(m chat.Member) bool {
			return m.UserID != principal.UserID
		})
		if found {
			if user, err := s.Users.FindByID(peer.UserID); err == nil {
				view.DisplayName = user.Email
			}
		}
	}

	unread, err := s.Receipts.UnreadCount(room.ID, principal.UserID)
	if err != nil {
		logger.Warn("Failed to count unread", "room_id", room.ID, "user_id", principal.UserID, "error", err)
	}
	view.Unread = unread

	return view
}
