package chat_test

import (
	"sync"
	"testing"

	chatmodels "hqchat_backend/internal/models/chat"
	chatsvc "hqchat_backend/internal/services/chat"
	"hqchat_backend/internal/services/chat/chattest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReceiptService(store *chattest.Store, bus chatsvc.Bus) *chatsvc.ReadReceiptService {
	return chatsvc.NewReadReceiptService(store.Members, store.Receipts, bus)
}

func TestRecordDeliveryReceipts(t *testing.T) {
	store := chattest.NewStore()
	svc := newReceiptService(store, chatsvc.NopBus{})

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)

	sender := store.AddMember(room.ID, store.AddUser("sender@example.com").ID, true, true)
	online1 := store.AddMember(room.ID, store.AddUser("a@example.com").ID, true, true)
	online2 := store.AddMember(room.ID, store.AddUser("b@example.com").ID, true, true)
	offline := store.AddMember(room.ID, store.AddUser("c@example.com").ID, true, false)
	inactive := store.AddMember(room.ID, store.AddUser("d@example.com").ID, false, true)

	message := store.AddMessage(room.ID, sender.ID, "hello")
	require.NoError(t, svc.RecordDeliveryReceipts(message))

	// Квитанции получают только активные онлайн-участники, кроме
	// отправителя.
	assert.Equal(t, 2, store.ReceiptCount(message.ID))
	assert.True(t, store.HasReceipt(message.ID, online1.ID))
	assert.True(t, store.HasReceipt(message.ID, online2.ID))
	assert.False(t, store.HasReceipt(message.ID, sender.ID))
	assert.False(t, store.HasReceipt(message.ID, offline.ID))
	assert.False(t, store.HasReceipt(message.ID, inactive.ID))
}

func TestRecordDeliveryReceiptsIdempotent(t *testing.T) {
	store := chattest.NewStore()
	svc := newReceiptService(store, chatsvc.NopBus{})

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)
	sender := store.AddMember(room.ID, store.AddUser("sender@example.com").ID, true, true)
	store.AddMember(room.ID, store.AddUser("a@example.com").ID, true, true)

	message := store.AddMessage(room.ID, sender.ID, "hello")
	require.NoError(t, svc.RecordDeliveryReceipts(message))
	require.NoError(t, svc.RecordDeliveryReceipts(message))

	assert.Equal(t, 1, store.ReceiptCount(message.ID))
}

func TestRecordDeliveryReceiptsEmptyRoom(t *testing.T) {
	store := chattest.NewStore()
	svc := newReceiptService(store, chatsvc.NopBus{})

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)
	sender := store.AddMember(room.ID, store.AddUser("sender@example.com").ID, true, true)

	message := store.AddMessage(room.ID, sender.ID, "hello")
	require.NoError(t, svc.RecordDeliveryReceipts(message))
	assert.Equal(t, 0, store.ReceiptCount(message.ID))
}

func TestUnreadCount(t *testing.T) {
	store := chattest.NewStore()
	svc := newReceiptService(store, chatsvc.NopBus{})

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)

	alice := store.AddUser("alice@example.com")
	aliceMember := store.AddMember(room.ID, alice.ID, true, false)
	bob := store.AddUser("bob@example.com")
	bobMember := store.AddMember(room.ID, bob.ID, true, false)

	store.AddMessage(room.ID, bobMember.ID, "one")
	store.AddMessage(room.ID, bobMember.ID, "two")
	read := store.AddMessage(room.ID, bobMember.ID, "three")
	// Собственные сообщения в счётчик не входят.
	store.AddMessage(room.ID, aliceMember.ID, "mine")

	require.NoError(t, store.Receipts.CreateMany([]chatmodels.ReadReceipt{
		{MessageID: read.ID, MemberID: aliceMember.ID},
	}))

	count, err := svc.UnreadCount(room.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestHasRead(t *testing.T) {
	store := chattest.NewStore()
	svc := newReceiptService(store, chatsvc.NopBus{})

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)
	alice := store.AddUser("alice@example.com")
	aliceMember := store.AddMember(room.ID, alice.ID, true, false)
	bobMember := store.AddMember(room.ID, store.AddUser("bob@example.com").ID, true, false)

	message := store.AddMessage(room.ID, bobMember.ID, "hello")

	read, err := svc.HasRead(room.ID, alice.ID, message.ID)
	require.NoError(t, err)
	assert.False(t, read)

	require.NoError(t, store.Receipts.CreateMany([]chatmodels.ReadReceipt{
		{MessageID: message.ID, MemberID: aliceMember.ID},
	}))

	read, err = svc.HasRead(room.ID, alice.ID, message.ID)
	require.NoError(t, err)
	assert.True(t, read)

	// Без строки участника квитанции нет и ошибки нет.
	stranger := store.AddUser("stranger@example.com")
	read, err = svc.HasRead(room.ID, stranger.ID, message.ID)
	require.NoError(t, err)
	assert.False(t, read)
}

func TestUnreadCountNonMember(t *testing.T) {
	store := chattest.NewStore()
	svc := newReceiptService(store, chatsvc.NopBus{})

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)
	stranger := store.AddUser("stranger@example.com")

	// Пользователь никогда не вступал в комнату - непрочитанного нет.
	count, err := svc.UnreadCount(room.ID, stranger.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestClearUnread(t *testing.T) {
	store := chattest.NewStore()
	bus := chattest.NewRecordingBus()
	svc := newReceiptService(store, bus)

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)

	alice := store.AddUser("alice@example.com")
	store.AddMember(room.ID, alice.ID, true, false)
	bobMember := store.AddMember(room.ID, store.AddUser("bob@example.com").ID, true, false)

	store.AddMessage(room.ID, bobMember.ID, "one")
	store.AddMessage(room.ID, bobMember.ID, "two")

	require.NoError(t, svc.ClearUnread(room.ID, alice.ID))

	count, err := svc.UnreadCount(room.ID, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	events := bus.ByType(chatsvc.EventUnreadCleared)
	require.Len(t, events, 1)
	assert.Equal(t, room.ID, events[0].RoomID)
	assert.Equal(t, room.ID, events[0].Event.Data)
}

func TestClearUnreadNonMember(t *testing.T) {
	store := chattest.NewStore()
	bus := chattest.NewRecordingBus()
	svc := newReceiptService(store, bus)

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)
	stranger := store.AddUser("stranger@example.com")

	// Без строки участника - no-op, события нет.
	require.NoError(t, svc.ClearUnread(room.ID, stranger.ID))
	assert.Empty(t, bus.Events())
}

func TestClearUnreadConcurrentWithDeliveries(t *testing.T) {
	store := chattest.NewStore()
	svc := newReceiptService(store, chatsvc.NopBus{})

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)

	alice := store.AddUser("alice@example.com")
	aliceMember := store.AddMember(room.ID, alice.ID, true, false)
	charlie := store.AddUser("charlie@example.com")
	charlieMember := store.AddMember(room.ID, charlie.ID, true, true)
	bobMember := store.AddMember(room.ID, store.AddUser("bob@example.com").ID, true, true)

	const total = 200
	ids := make([]string, total)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			message := store.AddMessage(room.ID, bobMember.ID, "m")
			ids[i] = message.ID
			assert.NoError(t, svc.RecordDeliveryReceipts(message))
		}
	}()
	for g := 0; g < 2; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, svc.ClearUnread(room.ID, alice.ID))
			}
		}()
	}
	wg.Wait()

	// Онлайн-участник получил ровно одну квитанцию доставки на каждое
	// сообщение, гонки не породили дублей.
	charlieUnread, err := svc.UnreadCount(room.ID, charlie.ID)
	require.NoError(t, err)
	assert.Zero(t, charlieUnread)

	read := 0
	for _, id := range ids {
		assert.True(t, store.HasReceipt(id, charlieMember.ID))
		// Не больше двух квитанций на сообщение: charlie и,
		// возможно, alice.
		assert.LessOrEqual(t, store.ReceiptCount(id), 2)
		if store.HasReceipt(id, aliceMember.ID) {
			read++
		}
	}

	// Каждое сообщение ровно в одном состоянии: закрыто квитанцией
	// либо числится непрочитанным.
	aliceUnread, err := svc.UnreadCount(room.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, total, read+int(aliceUnread))

	// Финальное закрытие добирает пришедшее после последнего снимка.
	require.NoError(t, svc.ClearUnread(room.ID, alice.ID))
	aliceUnread, err = svc.UnreadCount(room.ID, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, aliceUnread)
}

func TestClearUnreadLeavesLaterMessagesUnread(t *testing.T) {
	store := chattest.NewStore()
	svc := newReceiptService(store, chatsvc.NopBus{})

	owner := store.AddUser("owner@example.com")
	room := store.AddRoom(chatmodels.RoomKindGroup, owner.ID)

	alice := store.AddUser("alice@example.com")
	store.AddMember(room.ID, alice.ID, true, false)
	bobMember := store.AddMember(room.ID, store.AddUser("bob@example.com").ID, true, false)

	store.AddMessage(room.ID, bobMember.ID, "before")
	require.NoError(t, svc.ClearUnread(room.ID, alice.ID))

	// Сообщение после закрытия остаётся непрочитанным.
	store.AddMessage(room.ID, bobMember.ID, "after")

	count, err := svc.UnreadCount(room.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
