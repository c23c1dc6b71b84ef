// Package ws реализует realtime-ядро: реестр живых соединений,
// группы рассылки по комнатам и конечный автомат сессии поверх
// websocket-транспорта.
package ws

import (
	"encoding/json"
	"sync"

	"hqchat_backend/internal/logger"
	chatsvc "hqchat_backend/internal/services/chat"
)

// Hub - реестр соединений и шина рассылки по комнатам. Создаётся явно
// на старте процесса и передаётся по ссылке; глобального состояния
// нет. Безопасен для конкурентного использования: таблицы защищены
// RWMutex, рассылка идёт по снимку группы.
type Hub struct {
	mu sync.RWMutex
	// connection id -> клиент
	clients map[string]*Client
	// room id -> connection id -> клиент
	rooms map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register добавляет соединение в реестр. Повторная регистрация того
// же id идемпотентна.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		return
	}
	h.clients[client.ID] = client
	logger.Debug("Connection registered", "conn_id", client.ID, "total", len(h.clients))
}

// Unregister снимает соединение со всех комнат и закрывает его канал
// отправки. Неизвестный id - no-op: поздний или повторный teardown
// безопасен.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	for roomID, group := range h.rooms {
		if _, ok := group[client.ID]; ok {
			delete(group, client.ID)
			if len(group) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	if !client.closed {
		client.closed = true
		close(client.send)
	}
	logger.Debug("Connection unregistered", "conn_id", client.ID, "total", len(h.clients))
}

// BindToRoom подписывает соединение на группу комнаты.
func (h *Hub) BindToRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.rooms[roomID]
	if !ok {
		group = make(map[string]*Client)
		h.rooms[roomID] = group
	}
	group[client.ID] = client
}

// UnbindFromRoom снимает подписку соединения на комнату.
func (h *Hub) UnbindFromRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if group, ok := h.rooms[roomID]; ok {
		delete(group, client.ID)
		if len(group) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Connections возвращает снимок группы комнаты.
func (h *Hub) Connections(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	group := h.rooms[roomID]
	clients := make([]*Client, 0, len(group))
	for _, c := range group {
		clients = append(clients, c)
	}
	return clients
}

// ClientCount возвращает число зарегистрированных соединений.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish доставляет событие каждому соединению, подписанному на
// комнату в момент вызова. Best-effort, не более одного раза на
// соединение; порядок между получателями не определён, но для одного
// получателя публикации одного издателя приходят по порядку.
func (h *Hub) Publish(roomID string, event chatsvc.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "type", event.Type, "error", err)
		return
	}
	h.PublishRaw(roomID, payload)
}

// PublishRaw рассылает готовый кадр группе комнаты. Используется
// Publish и relay-режимом, который передаёт входящий текст как есть.
func (h *Hub) PublishRaw(roomID string, payload []byte) {
	for _, client := range h.Connections(roomID) {
		if !h.trySend(client, payload) {
			// Переполненный буфер значит, что клиент перестал
			// читать: снимаем его, не блокируя издателя.
			logger.Warn("Dropping slow connection", "conn_id", client.ID, "room_id", roomID)
			go func(c *Client) {
				h.Unregister(c)
				c.closeTransport()
			}(client)
		}
	}
}

func (h *Hub) trySend(client *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client.ID]; !ok || client.closed {
		// Соединение закрылось посреди рассылки: остаток fan-out
		// оно просто не получает, повторов нет.
		return true
	}
	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// Shutdown закрывает все соединения. Вызывается при остановке
// процесса.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
		c.closeTransport()
	}
}
