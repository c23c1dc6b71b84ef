package handlers

import (
	"net/http"

	"hqchat_backend/internal/dto"
	chatsvc "hqchat_backend/internal/services/chat"
	"hqchat_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ChatHandler - тонкий HTTP-адаптер над сервисным слоем чата. Вся
// авторизация и бизнес-логика живут в сервисах; здесь только биндинг
// запросов и рендер ответов.
type ChatHandler struct {
	*BaseHandler
	chat *chatsvc.ChatService
}

func NewChatHandler(base *BaseHandler, chat *chatsvc.ChatService) *ChatHandler {
	return &ChatHandler{BaseHandler: base, chat: chat}
}

// --- Комнаты ---

func (h *ChatHandler) CreateRoom(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateRoomRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.chat.CreateRoom(principal, req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *ChatHandler) ListRooms(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	views, err := h.chat.ListRooms(principal)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *ChatHandler) GetRoom(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	view, err := h.chat.GetRoom(principal, c.Param("roomID"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ChatHandler) UpdateRoom(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateRoomRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.chat.UpdateRoom(principal, c.Param("roomID"), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ChatHandler) DeleteRoom(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	if err := h.chat.DeleteRoom(principal, c.Param("roomID")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) ClearUnread(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	if err := h.chat.ClearUnread(principal, c.Param("roomID")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// --- Участники ---

func (h *ChatHandler) ListMembers(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	views, err := h.chat.ListMembers(principal, c.Param("roomID"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *ChatHandler) AddMember(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.chat.AddMember(principal, c.Param("roomID"), req.UserEmail)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *ChatHandler) RemoveMember(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	if err := h.chat.RemoveMember(principal, c.Param("roomID"), c.Param("memberID")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Сообщения ---

func (h *ChatHandler) ListMessages(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	views, err := h.chat.ListMessages(principal, c.Param("roomID"), c.Query("search"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.chat.SendMessage(principal, c.Param("roomID"), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *ChatHandler) GetMessageReadState(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	read, err := h.chat.MessageRead(principal, c.Param("roomID"), c.Param("messageID"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": read})
}

func (h *ChatHandler) EditMessage(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.chat.EditMessage(principal, c.Param("messageID"), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	principal, ok := h.GetPrincipal(c)
	if !ok {
		return
	}

	if err := h.chat.DeleteMessage(principal, c.Param("messageID")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
