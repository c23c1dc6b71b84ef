package dto

import (
	"time"

	"hqchat_backend/internal/models/chat"
)

// --- Запросы ---

type CreateRoomRequest struct {
	Kind          chat.RoomKind `json:"kind" binding:"omitempty,oneof=pair group"`
	Name          *string       `json:"name" binding:"omitempty,max=255"`
	CoverImageURL *string       `json:"cover_image_url" binding:"omitempty,max=500"`
	// Для парной комнаты - email собеседника.
	PairEmail *string `json:"pair_email" binding:"omitempty,email"`
}

type UpdateRoomRequest struct {
	Name          *string `json:"name" binding:"omitempty,max=255"`
	CoverImageURL *string `json:"cover_image_url" binding:"omitempty,max=500"`
}

type SendMessageRequest struct {
	Text           *string `json:"text" binding:"required_without=URL"`
	URL            *string `json:"url" binding:"omitempty,max=500"`
	URLContentType *string `json:"url_content_type" binding:"omitempty,max=255"`
}

type AddMemberRequest struct {
	UserEmail string `json:"user_email" binding:"required,email"`
}

// --- Представления ---

type MemberView struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Active   bool      `json:"active"`
	Online   bool      `json:"online"`
	JoinedAt time.Time `json:"date_added"`
}

type MessageView struct {
	ID             string     `json:"id"`
	RoomID         string     `json:"room_id"`
	Text           *string    `json:"text"`
	URL            *string    `json:"url"`
	URLContentType *string    `json:"url_content_type"`
	DateAdded      time.Time  `json:"date_added"`
	Edited         bool       `json:"edited"`
	Sender         MemberView `json:"sender"`
}

type RoomView struct {
	ID            string        `json:"id"`
	Kind          chat.RoomKind `json:"kind"`
	Name          *string       `json:"name"`
	CoverImageURL *string       `json:"cover_image_url"`
	DateAdded     time.Time     `json:"date_added"`
	// Для парной комнаты - идентификатор собеседника, иначе имя комнаты.
	DisplayName string `json:"display_name"`
	Unread      int64  `json:"unread"`
}

// NewMemberView собирает представление участника.
func NewMemberView(m *chat.Member) MemberView {
	return MemberView{
		ID:       m.ID,
		UserID:   m.UserID,
		Active:   m.Active,
		Online:   m.Online,
		JoinedAt: m.JoinedAt,
	}
}

// NewMessageView собирает представление сообщения с отправителем.
func NewMessageView(msg *chat.Message) MessageView {
	view := MessageView{
		ID:             msg.ID,
		RoomID:         msg.RoomID,
		Text:           msg.Text,
		URL:            msg.URL,
		URLContentType: msg.URLContentType,
		DateAdded:      msg.CreatedAt,
		Edited:         msg.Edited(),
	}
	if msg.Sender != nil {
		view.Sender = NewMemberView(msg.Sender)
	} else {
		view.Sender = MemberView{ID: msg.SenderID}
	}
	return view
}
