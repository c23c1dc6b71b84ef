package chat

import (
	"hqchat_backend/internal/auth"
	"hqchat_backend/internal/models/chat"
)

// Reason - код причины отказа. Наружу не отдаётся (клиент видит общий
// forbidden), но попадает в логи и проверяется тестами.
type Reason string

const (
	ReasonAllowed           Reason = ""
	ReasonMissingPermission Reason = "missing_permission"
	ReasonNotAMember        Reason = "not_a_member"
	ReasonNotSender         Reason = "not_sender"
)

// Decision - результат проверки Guard.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Guard проверяет права принципала на действия в комнате. Членство
// читается из хранилища при каждой проверке; набор разрешений
// неизменен на всё время сессии.
type Guard struct {
	members MemberStore
	// Открытые комнаты: для входа достаточно can_view_chat, строка
	// участника не требуется.
	openRooms bool
}

func NewGuard(members MemberStore, openRooms bool) *Guard {
	return &Guard{members: members, openRooms: openRooms}
}

// CanView - просмотр комнаты и её сообщений.
func (g *Guard) CanView(principal *auth.Principal, roomID string) Decision {
	if !principal.Can(auth.PermViewChat) {
		return deny(ReasonMissingPermission)
	}
	if g.openRooms {
		return allow()
	}
	if !g.isActiveMember(principal, roomID) {
		return deny(ReasonNotAMember)
	}
	return allow()
}

// CanJoin - подписка соединения на комнату. Правила совпадают с
// CanView: кто видит комнату, тот может к ней подключиться.
func (g *Guard) CanJoin(principal *auth.Principal, roomID string) Decision {
	return g.CanView(principal, roomID)
}

// CanSend - отправка сообщения в комнату.
func (g *Guard) CanSend(principal *auth.Principal, roomID string) Decision {
	if !principal.Can(auth.PermSendMessage) {
		return deny(ReasonMissingPermission)
	}
	if !g.isActiveMember(principal, roomID) {
		return deny(ReasonNotAMember)
	}
	return allow()
}

// CanEdit - правка сообщения. Требует разрешения и авторства; сверка
// автора при удалении дублируется на границе мутации.
func (g *Guard) CanEdit(principal *auth.Principal, message *chat.Message) Decision {
	if !principal.Can(auth.PermEditMessage) {
		return deny(ReasonMissingPermission)
	}
	sender, err := g.members.FindByID(message.SenderID)
	if err != nil || sender.UserID != principal.UserID {
		return deny(ReasonNotSender)
	}
	return allow()
}

func (g *Guard) isActiveMember(principal *auth.Principal, roomID string) bool {
	member, err := g.members.Find(roomID, principal.UserID)
	return err == nil && member.Active
}
