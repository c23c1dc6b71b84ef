package chat_test

import (
	"testing"

	chatmodels "hqchat_backend/internal/models/chat"
	chatsvc "hqchat_backend/internal/services/chat"
	"hqchat_backend/internal/services/chat/chattest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceSetOnline(t *testing.T) {
	store := chattest.NewStore()
	presence := chatsvc.NewPresence(store.Members)

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)
	user := store.AddUser("user@example.com")
	member := store.AddMember(room.ID, user.ID, true, false)

	require.NoError(t, presence.SetOnline(room.ID, user.ID, true))
	assert.True(t, store.Member(member.ID).Online)

	require.NoError(t, presence.SetOnline(room.ID, user.ID, false))
	assert.False(t, store.Member(member.ID).Online)
}

func TestPresenceSetOnlineIdempotent(t *testing.T) {
	store := chattest.NewStore()
	presence := chatsvc.NewPresence(store.Members)

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)
	user := store.AddUser("user@example.com")
	member := store.AddMember(room.ID, user.ID, true, true)

	// Повторная установка того же значения - no-op без ошибки.
	require.NoError(t, presence.SetOnline(room.ID, user.ID, true))
	assert.True(t, store.Member(member.ID).Online)
}

func TestPresenceSetOnlineMissingMember(t *testing.T) {
	store := chattest.NewStore()
	presence := chatsvc.NewPresence(store.Members)

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)

	// Строки участника нет - вызов молча игнорируется.
	assert.NoError(t, presence.SetOnline(room.ID, "no-such-user", false))
}

func TestPresenceIgnoresInactiveMember(t *testing.T) {
	store := chattest.NewStore()
	presence := chatsvc.NewPresence(store.Members)

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)
	user := store.AddUser("user@example.com")
	member := store.AddMember(room.ID, user.ID, false, false)

	require.NoError(t, presence.SetOnline(room.ID, user.ID, true))
	assert.False(t, store.Member(member.ID).Online)
}
