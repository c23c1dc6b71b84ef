package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hqchat_backend/internal/auth"
	"hqchat_backend/internal/config"
	"hqchat_backend/internal/handlers"
	chatmodels "hqchat_backend/internal/models/chat"
	"hqchat_backend/internal/routes"
	chatsvc "hqchat_backend/internal/services/chat"
	"hqchat_backend/internal/services/chat/chattest"
	"hqchat_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// newAPI поднимает полный REST-стек поверх in-memory хранилища:
// настоящая таблица маршрутов, настоящий auth middleware.
func newAPI(t *testing.T) (*gin.Engine, *chattest.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := chattest.NewStore()
	hub := ws.NewHub()
	t.Cleanup(hub.Shutdown)

	guard := chatsvc.NewGuard(store.Members, false)
	presence := chatsvc.NewPresence(store.Members)
	receipts := chatsvc.NewReadReceiptService(store.Members, store.Receipts, hub)
	chatService := chatsvc.NewChatService(store.Rooms, store.Members, store.Messages, store.Users, guard, receipts, hub)
	resolver := auth.NewResolver(store.Users, testSecret, "HS256")

	chatHandler := handlers.NewChatHandler(handlers.NewBaseHandler(), chatService)
	wsHandler := ws.NewHandler(hub, resolver, guard, presence, chatService, config.TokenSourceBoth, false)

	engine := gin.New()
	routes.RegisterRoutes(engine, resolver, chatHandler, wsHandler)
	return engine, store
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func userToken(t *testing.T, email string) string {
	t.Helper()
	token, err := auth.GenerateToken(email, testSecret, time.Minute)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	engine, _ := newAPI(t)
	w := doJSON(t, engine, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresAuth(t *testing.T) {
	engine, _ := newAPI(t)
	w := doJSON(t, engine, http.MethodGet, "/api/v1/rooms", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoomLifecycle(t *testing.T) {
	engine, store := newAPI(t)
	creator := store.AddUser("creator@example.com", "can_view_chat", "can_send_message")
	peer := store.AddUser("peer@example.com", "can_view_chat")
	token := userToken(t, creator.Email)

	// Создание парной комнаты.
	w := doJSON(t, engine, http.MethodPost, "/api/v1/rooms", token,
		`{"kind":"pair","pair_email":"peer@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), peer.Email)

	// Список комнат обоих участников.
	w = doJSON(t, engine, http.MethodGet, "/api/v1/rooms", userToken(t, peer.Email), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"pair"`)
}

func TestSendAndListMessages(t *testing.T) {
	engine, store := newAPI(t)
	alice := store.AddUser("alice@example.com", "can_view_chat", "can_send_message")
	room := store.AddRoom(chatmodels.RoomKindGroup, alice.ID)
	store.AddMember(room.ID, alice.ID, true, false)
	token := userToken(t, alice.Email)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/rooms/"+room.ID+"/messages", token,
		`{"text":"hello"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/rooms/"+room.ID+"/messages", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"text":"hello"`)
}

func TestSendMessageValidation(t *testing.T) {
	engine, store := newAPI(t)
	alice := store.AddUser("alice@example.com", "can_view_chat", "can_send_message")
	room := store.AddRoom(chatmodels.RoomKindGroup, alice.ID)
	store.AddMember(room.ID, alice.ID, true, false)

	// Ни текста, ни вложения.
	w := doJSON(t, engine, http.MethodPost, "/api/v1/rooms/"+room.ID+"/messages",
		userToken(t, alice.Email), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForeignRoomLooksMissing(t *testing.T) {
	engine, store := newAPI(t)
	owner := store.AddUser("owner@example.com", "can_view_chat")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)
	store.AddMember(room.ID, owner.ID, true, false)
	stranger := store.AddUser("stranger@example.com", "can_view_chat")
	token := userToken(t, stranger.Email)

	// Чужая и несуществующая комнаты отвечают одинаково.
	foreign := doJSON(t, engine, http.MethodGet, "/api/v1/rooms/"+room.ID, token, "")
	missing := doJSON(t, engine, http.MethodGet, "/api/v1/rooms/does-not-exist", token, "")
	assert.Equal(t, http.StatusForbidden, foreign.Code)
	assert.Equal(t, foreign.Code, missing.Code)
	assert.JSONEq(t, foreign.Body.String(), missing.Body.String())
}

func TestClearUnreadEndpoint(t *testing.T) {
	engine, store := newAPI(t)
	alice := store.AddUser("alice@example.com", "can_view_chat")
	bob := store.AddUser("bob@example.com", "can_view_chat", "can_send_message")
	room := store.AddRoom(chatmodels.RoomKindGroup, bob.ID)
	aliceMember := store.AddMember(room.ID, alice.ID, true, false)
	bobMember := store.AddMember(room.ID, bob.ID, true, false)

	store.AddMessage(room.ID, bobMember.ID, "one")
	store.AddMessage(room.ID, bobMember.ID, "two")

	w := doJSON(t, engine, http.MethodDelete, "/api/v1/rooms/"+room.ID+"/unread",
		userToken(t, alice.Email), "")
	require.Equal(t, http.StatusOK, w.Code)

	count, err := store.Receipts.UnreadCount(room.ID, aliceMember.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteRoomWithMessagesConflicts(t *testing.T) {
	engine, store := newAPI(t)
	creator := store.AddUser("creator@example.com", "can_view_chat")
	room := store.AddRoom(chatmodels.RoomKindGroup, creator.ID)
	member := store.AddMember(room.ID, creator.ID, true, false)
	store.AddMessage(room.ID, member.ID, "keep")

	w := doJSON(t, engine, http.MethodDelete, "/api/v1/rooms/"+room.ID,
		userToken(t, creator.Email), "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPairRoomRejectsThirdMember(t *testing.T) {
	engine, store := newAPI(t)
	creator := store.AddUser("creator@example.com", "can_view_chat")
	store.AddUser("peer@example.com", "can_view_chat")
	store.AddUser("third@example.com", "can_view_chat")
	token := userToken(t, creator.Email)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/rooms", token,
		`{"kind":"pair","pair_email":"peer@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, engine, http.MethodPost, "/api/v1/rooms/"+created.ID+"/members", token,
		`{"user_email":"third@example.com"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	members, err := store.Members.ListByRoom(created.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestMessageReadStateEndpoint(t *testing.T) {
	engine, store := newAPI(t)
	alice := store.AddUser("alice@example.com", "can_view_chat")
	bob := store.AddUser("bob@example.com", "can_view_chat")
	room := store.AddRoom(chatmodels.RoomKindGroup, bob.ID)
	store.AddMember(room.ID, alice.ID, true, false)
	bobMember := store.AddMember(room.ID, bob.ID, true, false)
	message := store.AddMessage(room.ID, bobMember.ID, "hello")
	token := userToken(t, alice.Email)

	path := "/api/v1/rooms/" + room.ID + "/messages/" + message.ID + "/read"

	w := doJSON(t, engine, http.MethodGet, path, token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"read":false}`, w.Body.String())

	w = doJSON(t, engine, http.MethodDelete, "/api/v1/rooms/"+room.ID+"/unread", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodGet, path, token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"read":true}`, w.Body.String())

	// Для постороннего сообщение неотличимо от несуществующего.
	stranger := store.AddUser("stranger@example.com", "can_view_chat")
	w = doJSON(t, engine, http.MethodGet, path, userToken(t, stranger.Email), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMemberEndpoints(t *testing.T) {
	engine, store := newAPI(t)
	creator := store.AddUser("creator@example.com", "can_view_chat")
	room := store.AddRoom(chatmodels.RoomKindGroup, creator.ID)
	store.AddMember(room.ID, creator.ID, true, false)
	store.AddUser("newcomer@example.com", "can_view_chat")
	token := userToken(t, creator.Email)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/rooms/"+room.ID+"/members", token,
		`{"user_email":"newcomer@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/rooms/"+room.ID+"/members", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	members, err := store.Members.ListByRoom(room.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}
