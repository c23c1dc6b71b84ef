package ws

import (
	"net/http"

	"hqchat_backend/internal/auth"
	"hqchat_backend/internal/dto"
	"hqchat_backend/internal/logger"
	"hqchat_backend/internal/middleware"
	chatsvc "hqchat_backend/internal/services/chat"
	"hqchat_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: ограничить origin списком фронтовых хостов
	},
}

// Handler обслуживает websocket-сессии комнат.
type Handler struct {
	Hub      *Hub
	Resolver *auth.Resolver
	Guard    *chatsvc.Guard
	Presence *chatsvc.Presence
	Chat     *chatsvc.ChatService

	// Откуда читать кредентиал на рукопожатии и включён ли
	// relay-режим (см. конфиг websocket).
	TokenSource string
	Relay       bool
}

func NewHandler(hub *Hub, resolver *auth.Resolver, guard *chatsvc.Guard, presence *chatsvc.Presence, chat *chatsvc.ChatService, tokenSource string, relay bool) *Handler {
	return &Handler{
		Hub:         hub,
		Resolver:    resolver,
		Guard:       guard,
		Presence:    presence,
		Chat:        chat,
		TokenSource: tokenSource,
		Relay:       relay,
	}
}

// ServeWS проводит сессию через Connecting -> Authenticating -> Joined.
// Неудача аутентификации или join закрывает транспорт до принятия
// рукопожатия; рукопожатие принимается только после привязки
// соединения к комнате и включения присутствия.
func (h *Handler) ServeWS(c *gin.Context) {
	roomID := c.Param("roomID")

	client := &Client{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		hub:      h.Hub,
		presence: h.Presence,
		chat:     h.Chat,
		relay:    h.Relay,
	}
	client.setState(StateAuthenticating)

	token, _ := middleware.BearerFromHandshake(c.Request, h.TokenSource)
	principal, err := h.Resolver.ResolveBearer(token)
	if err != nil {
		client.setState(StateAuthFailed)
		appErr, _ := apperrors.AsAppError(err)
		if appErr == nil {
			appErr = apperrors.ErrSignatureInvalid
		}
		c.JSON(appErr.HTTPCode, apperrors.ErrorResponse{Error: appErr})
		return
	}
	client.Principal = principal

	if decision := h.Guard.CanJoin(principal, roomID); !decision.Allowed {
		client.setState(StateRejected)
		logger.Info("Join rejected", "room_id", roomID, "user_id", principal.UserID, "reason", decision.Reason)
		c.JSON(http.StatusForbidden, apperrors.ErrorResponse{Error: apperrors.ErrForbidden})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "room_id", roomID, "error", err)
		return
	}
	client.conn = conn
	client.send = make(chan []byte, 256)

	h.Hub.Register(client)
	h.Hub.BindToRoom(client, roomID)
	if err := h.Presence.SetOnline(roomID, principal.UserID, true); err != nil {
		logger.Warn("Failed to set member online", "room_id", roomID, "user_id", principal.UserID, "error", err)
	}
	client.setState(StateJoined)
	logger.Info("Websocket session joined", "conn_id", client.ID, "room_id", roomID, "user_id", principal.UserID)

	go client.writePump()
	go client.readPump()
}

func sendRequest(text, url, contentType *string) dto.SendMessageRequest {
	return dto.SendMessageRequest{
		Text:           text,
		URL:            url,
		URLContentType: contentType,
	}
}
