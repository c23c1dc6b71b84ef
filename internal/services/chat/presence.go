package chat

import (
	"hqchat_backend/internal/logger"
)

// Presence поддерживает флаг онлайн-статуса участников. Мутируется на
// подключении и отключении сессии.
type Presence struct {
	members MemberStore
}

func NewPresence(members MemberStore) *Presence {
	return &Presence{members: members}
}

// SetOnline выставляет флаг присутствия участника. Идемпотентен:
// повторная установка того же значения не имеет побочных эффектов.
// Если активной строки участника нет (соединение закрылось без
// членства), вызов молча игнорируется - это не ошибка.
func (p *Presence) SetOnline(roomID, userID string, online bool) error {
	affected, err := p.members.SetOnline(roomID, userID, online)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.Debug("Presence update skipped", "room_id", roomID, "user_id", userID, "online", online)
	}
	return nil
}
