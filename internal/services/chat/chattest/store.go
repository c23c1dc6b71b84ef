// Package chattest содержит in-memory реализацию портов сервисного
// слоя для юнит- и сессионных тестов.
package chattest

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"hqchat_backend/internal/models"
	"hqchat_backend/internal/models/chat"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store - потокобезопасное in-memory хранилище. Сами порты реализуют
// фасады Rooms/Members/Messages/Receipts/Users поверх общего состояния.
type Store struct {
	mu       sync.Mutex
	users    map[string]*models.User
	rooms    map[string]*chat.Room
	members  map[string]*chat.Member
	messages map[string]*chat.Message
	receipts map[string]chat.ReadReceipt // key: messageID + "/" + memberID

	Users    *UserStore
	Rooms    *RoomStore
	Members  *MemberStore
	Messages *MessageStore
	Receipts *ReceiptStore
}

func NewStore() *Store {
	s := &Store{
		users:    make(map[string]*models.User),
		rooms:    make(map[string]*chat.Room),
		members:  make(map[string]*chat.Member),
		messages: make(map[string]*chat.Message),
		receipts: make(map[string]chat.ReadReceipt),
	}
	s.Users = &UserStore{s}
	s.Rooms = &RoomStore{s}
	s.Members = &MemberStore{s}
	s.Messages = &MessageStore{s}
	s.Receipts = &ReceiptStore{s}
	return s
}

// --- Хелперы наполнения и проверок ---

func (s *Store) AddUser(email string, permissions ...string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, _ := json.Marshal(permissions)
	user := &models.User{
		ID:          uuid.NewString(),
		Email:       email,
		Permissions: datatypes.JSON(raw),
	}
	s.users[user.ID] = user
	return user
}

func (s *Store) AddRoom(kind chat.RoomKind, createdBy string) *chat.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	room := &chat.Room{
		ID:          uuid.NewString(),
		Kind:        kind,
		CreatedByID: &createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.rooms[room.ID] = room
	return room
}

func (s *Store) AddMember(roomID, userID string, active, online bool) *chat.Member {
	s.mu.Lock()
	defer s.mu.Unlock()

	member := &chat.Member{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		UserID:      userID,
		Active:      active,
		Online:      online,
		JoinedAt:    time.Now(),
		LastUpdated: time.Now(),
	}
	s.members[member.ID] = member
	return member
}

func (s *Store) AddMessage(roomID, senderMemberID, text string) *chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	message := &chat.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		SenderID:  senderMemberID,
		Text:      &text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.messages[message.ID] = message
	return message
}

// ReceiptCount возвращает число квитанций на сообщение.
func (s *Store) ReceiptCount(messageID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, r := range s.receipts {
		if r.MessageID == messageID {
			count++
		}
	}
	return count
}

// HasReceipt проверяет наличие квитанции (message, member).
func (s *Store) HasReceipt(messageID, memberID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.receipts[messageID+"/"+memberID]
	return ok
}

// Member возвращает копию актуальной строки участника.
func (s *Store) Member(id string) *chat.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[id]; ok {
		cp := *m
		return &cp
	}
	return nil
}

// Message возвращает копию актуальной строки сообщения.
func (s *Store) Message(id string) *chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.messages[id]; ok {
		cp := *m
		return &cp
	}
	return nil
}

// Room возвращает копию актуальной строки комнаты.
func (s *Store) Room(id string) *chat.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

func (s *Store) roomMembersLocked(roomID string) []chat.Member {
	var members []chat.Member
	for _, m := range s.members {
		if m.RoomID == roomID {
			members = append(members, *m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members
}

func (s *Store) unreadLocked(roomID, memberID string) []string {
	var unread []string
	for _, m := range s.messages {
		if m.RoomID != roomID || m.SenderID == memberID {
			continue
		}
		if _, ok := s.receipts[m.ID+"/"+memberID]; !ok {
			unread = append(unread, m.ID)
		}
	}
	return unread
}

// --- UserStore ---

type UserStore struct{ s *Store }

func (u *UserStore) FindByEmail(email string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, user := range u.s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (u *UserStore) FindByID(id string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if user, ok := u.s.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// --- RoomStore ---

type RoomStore struct{ s *Store }

func (r *RoomStore) FindByID(id string) (*chat.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *room
	cp.Members = r.s.roomMembersLocked(id)
	return &cp, nil
}

func (r *RoomStore) FindAllByUser(userID string) ([]chat.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var rooms []chat.Room
	for _, m := range r.s.members {
		if m.UserID == userID && m.Active {
			if room, ok := r.s.rooms[m.RoomID]; ok {
				cp := *room
				cp.Members = r.s.roomMembersLocked(room.ID)
				rooms = append(rooms, cp)
			}
		}
	}
	return rooms, nil
}

func (r *RoomStore) Create(room *chat.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	cp := *room
	cp.Members = nil
	r.s.rooms[room.ID] = &cp
	return nil
}

func (r *RoomStore) Update(room *chat.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *room
	cp.Members = nil
	r.s.rooms[room.ID] = &cp
	return nil
}

func (r *RoomStore) Delete(roomID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.rooms, roomID)
	for id, m := range r.s.members {
		if m.RoomID == roomID {
			delete(r.s.members, id)
		}
	}
	return nil
}

func (r *RoomStore) MessageCount(roomID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var count int64
	for _, m := range r.s.messages {
		if m.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

// --- MemberStore ---

type MemberStore struct{ s *Store }

func (m *MemberStore) Find(roomID, userID string) (*chat.Member, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, member := range m.s.members {
		if member.RoomID == roomID && member.UserID == userID {
			cp := *member
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemberStore) FindByID(id string) (*chat.Member, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if member, ok := m.s.members[id]; ok {
		cp := *member
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemberStore) ListByRoom(roomID string) ([]chat.Member, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.roomMembersLocked(roomID), nil
}

func (m *MemberStore) ListOnline(roomID string) ([]chat.Member, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var members []chat.Member
	for _, member := range m.s.members {
		if member.RoomID == roomID && member.Active && member.Online {
			members = append(members, *member)
		}
	}
	return members, nil
}

func (m *MemberStore) GetOrCreate(roomID, userID string) (*chat.Member, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, member := range m.s.members {
		if member.RoomID == roomID && member.UserID == userID {
			member.Active = true
			cp := *member
			return &cp, nil
		}
	}
	member := &chat.Member{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		UserID:      userID,
		Active:      true,
		JoinedAt:    time.Now(),
		LastUpdated: time.Now(),
	}
	m.s.members[member.ID] = member
	cp := *member
	return &cp, nil
}

func (m *MemberStore) SetActive(memberID string, active bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if member, ok := m.s.members[memberID]; ok {
		member.Active = active
	}
	return nil
}

func (m *MemberStore) SetOnline(roomID, userID string, online bool) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, member := range m.s.members {
		if member.RoomID == roomID && member.UserID == userID && member.Active && member.Online != online {
			member.Online = online
			member.LastUpdated = time.Now()
			return 1, nil
		}
	}
	return 0, nil
}

// --- MessageStore ---

type MessageStore struct{ s *Store }

func (ms *MessageStore) FindByID(id string) (*chat.Message, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	message, ok := ms.s.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *message
	if sender, ok := ms.s.members[message.SenderID]; ok {
		sc := *sender
		cp.Sender = &sc
	}
	return &cp, nil
}

func (ms *MessageStore) ListByRoom(roomID, search string) ([]chat.Message, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	var messages []chat.Message
	for _, m := range ms.s.messages {
		if m.RoomID != roomID {
			continue
		}
		if search != "" && (m.Text == nil || !strings.Contains(strings.ToLower(*m.Text), strings.ToLower(search))) {
			continue
		}
		cp := *m
		if sender, ok := ms.s.members[m.SenderID]; ok {
			sc := *sender
			cp.Sender = &sc
		}
		messages = append(messages, cp)
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].CreatedAt.Before(messages[j].CreatedAt) })
	return messages, nil
}

func (ms *MessageStore) Create(message *chat.Message) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	cp := *message
	cp.Sender = nil
	ms.s.messages[message.ID] = &cp
	return nil
}

func (ms *MessageStore) Update(message *chat.Message) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	cp := *message
	cp.Sender = nil
	ms.s.messages[message.ID] = &cp
	return nil
}

func (ms *MessageStore) Delete(messageID string) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	delete(ms.s.messages, messageID)
	for key, r := range ms.s.receipts {
		if r.MessageID == messageID {
			delete(ms.s.receipts, key)
		}
	}
	return nil
}

// --- ReceiptStore ---

type ReceiptStore struct{ s *Store }

func (r *ReceiptStore) CreateMany(receipts []chat.ReadReceipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, receipt := range receipts {
		key := receipt.MessageID + "/" + receipt.MemberID
		if _, ok := r.s.receipts[key]; ok {
			continue // дубликат - no-op, как ON CONFLICT DO NOTHING
		}
		if receipt.ID == "" {
			receipt.ID = uuid.NewString()
		}
		r.s.receipts[key] = receipt
	}
	return nil
}

func (r *ReceiptStore) Exists(memberID, messageID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.receipts[messageID+"/"+memberID]
	return ok, nil
}

func (r *ReceiptStore) UnreadCount(roomID, memberID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.unreadLocked(roomID, memberID))), nil
}

func (r *ReceiptStore) ClearUnread(roomID, memberID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	unread := r.s.unreadLocked(roomID, memberID)
	now := time.Now()
	for _, messageID := range unread {
		r.s.receipts[messageID+"/"+memberID] = chat.ReadReceipt{
			ID:        uuid.NewString(),
			MessageID: messageID,
			MemberID:  memberID,
			ReadAt:    now,
		}
	}
	return int64(len(unread)), nil
}
