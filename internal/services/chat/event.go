package chat

// EventType - тип события, уходящего подписчикам комнаты.
type EventType string

const (
	EventMessageCreated EventType = "message-created"
	EventMessageEdited  EventType = "message-edited"
	EventMessageDeleted EventType = "message-deleted"
	EventUnreadCleared  EventType = "unread-cleared"
)

// Event - полезная нагрузка рассылки: представление сообщения для
// created/edited, id сообщения для deleted, id комнаты для
// unread-cleared.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Bus - шина рассылки по комнатам. Реализуется ws-хабом; доставка
// best-effort, не более одного раза на соединение за публикацию.
type Bus interface {
	Publish(roomID string, event Event)
}

// NopBus - заглушка для инструментов и тестов без живых соединений.
type NopBus struct{}

func (NopBus) Publish(string, Event) {}
