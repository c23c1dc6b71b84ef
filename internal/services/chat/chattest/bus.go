package chattest

import (
	"sync"

	chatsvc "hqchat_backend/internal/services/chat"
)

// RecordingBus копит опубликованные события для проверок в тестах.
type RecordingBus struct {
	mu     sync.Mutex
	events []PublishedEvent
}

type PublishedEvent struct {
	RoomID string
	Event  chatsvc.Event
}

func NewRecordingBus() *RecordingBus {
	return &RecordingBus{}
}

func (b *RecordingBus) Publish(roomID string, event chatsvc.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, PublishedEvent{RoomID: roomID, Event: event})
}

// Events возвращает снимок опубликованного.
func (b *RecordingBus) Events() []PublishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PublishedEvent, len(b.events))
	copy(out, b.events)
	return out
}

// ByType отбирает события заданного типа.
func (b *RecordingBus) ByType(t chatsvc.EventType) []PublishedEvent {
	var out []PublishedEvent
	for _, e := range b.Events() {
		if e.Event.Type == t {
			out = append(out, e)
		}
	}
	return out
}
