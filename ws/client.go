package ws

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"hqchat_backend/internal/auth"
	"hqchat_backend/internal/logger"
	chatsvc "hqchat_backend/internal/services/chat"
	"hqchat_backend/pkg/apperrors"

	"github.com/gorilla/websocket"
)

// Состояния сессии соединения.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticating
	StateJoined
	StateClosed
	// Терминальные ветки: кредентиал не разрезолвился / join запрещён.
	StateAuthFailed
	StateRejected
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 64 * 1024
)

// IncomingMessage - входящий кадр от клиента.
type IncomingMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// errorFrame - индикация отказа конкретному клиенту. Соединение при
// этом остаётся открытым.
type errorFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client - одно websocket-соединение и его сессия. Входящие кадры
// обрабатываются последовательно (один read pump), исходящие события
// пишутся write pump'ом из буферизованного канала.
type Client struct {
	ID        string
	Principal *auth.Principal
	RoomID    string

	conn *websocket.Conn
	send chan []byte
	// Мутируется только под мьютексом хаба.
	closed bool

	hub      *Hub
	presence *chatsvc.Presence
	chat     *chatsvc.ChatService
	// Relay-режим: входящий текст уходит в комнату как есть, минуя
	// персист.
	relay bool

	state int32
}

func (c *Client) State() SessionState {
	return SessionState(atomic.LoadInt32(&c.state))
}

func (c *Client) setState(s SessionState) {
	atomic.StoreInt32(&c.state, int32(s))
}

// readPump читает входящие кадры до закрытия транспорта. Teardown
// выполняется в defer и поэтому срабатывает и на ошибке транспорта, и
// на штатном закрытии.
func (c *Client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Websocket read error", "conn_id", c.ID, "error", err)
			}
			return
		}
		c.handleFrame(frame)
	}
}

// writePump сериализует события шины в транспорт и держит keepalive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeTransport()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("Websocket write error", "conn_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame обрабатывает один входящий кадр. Отказ в праве на
// действие возвращается этому клиенту и не закрывает соединение.
func (c *Client) handleFrame(frame []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(frame, &msg); err != nil || msg.Action == "" {
		if c.relay {
			// Чистый чат-текст: ретрансляция как есть.
			c.hub.PublishRaw(c.RoomID, frame)
			return
		}
		logger.Debug("Unparseable inbound frame dropped", "conn_id", c.ID)
		return
	}

	switch msg.Action {
	case "send_message":
		var req struct {
			Text           *string `json:"text"`
			URL            *string `json:"url"`
			URLContentType *string `json:"url_content_type"`
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.sendError(apperrors.NewBadRequestError("Invalid send_message payload"))
			return
		}
		_, err := c.chat.SendMessage(c.Principal, c.RoomID, sendRequest(req.Text, req.URL, req.URLContentType))
		if err != nil {
			c.sendError(err)
		}

	case "clear_unread":
		if err := c.chat.ClearUnread(c.Principal, c.RoomID); err != nil {
			c.sendError(err)
		}

	default:
		logger.Debug("Unhandled action", "conn_id", c.ID, "action", msg.Action)
	}
}

func (c *Client) sendError(err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.InternalError(err)
	}
	payload, mErr := json.Marshal(errorFrame{Type: "error", Data: appErr})
	if mErr != nil {
		return
	}
	c.hub.trySend(c, payload)
}

// teardown - единый путь Joined -> Closed: offline best-effort, снятие
// привязок, закрытие транспорта. Сбой обновления присутствия
// логируется и не мешает закрытию.
func (c *Client) teardown() {
	c.setState(StateClosed)

	if err := c.presence.SetOnline(c.RoomID, c.Principal.UserID, false); err != nil {
		logger.Warn("Failed to set member offline", "conn_id", c.ID, "room_id", c.RoomID, "error", err)
	}

	c.hub.UnbindFromRoom(c, c.RoomID)
	c.hub.Unregister(c)
	c.closeTransport()
}

func (c *Client) closeTransport() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
