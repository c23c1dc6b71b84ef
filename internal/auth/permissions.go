package auth

// Permission - типизированный тег возможности. Заменяет динамический
// поиск по произвольному JSON-блобу пользовательских данных: набор
// разрешений разбирается один раз при аутентификации и дальше живёт
// неизменным на Principal.
type Permission string

const (
	PermViewChat    Permission = "can_view_chat"
	PermSendMessage Permission = "can_send_message"
	PermEditMessage Permission = "can_edit_message"
)

// PermissionSet - множество разрешений принципала.
type PermissionSet map[Permission]struct{}

// NewPermissionSet собирает множество из сырых строк, отбрасывая
// неизвестные теги.
func NewPermissionSet(raw []string) PermissionSet {
	set := make(PermissionSet, len(raw))
	for _, s := range raw {
		switch p := Permission(s); p {
		case PermViewChat, PermSendMessage, PermEditMessage:
			set[p] = struct{}{}
		}
	}
	return set
}

// Has проверяет наличие разрешения.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Principal - аутентифицированный актор. Неизменен в рамках сессии
// соединения.
type Principal struct {
	UserID      string
	Email       string
	Permissions PermissionSet
}

// Can - удобный шорткат для проверок в Guard.
func (p *Principal) Can(perm Permission) bool {
	return p != nil && p.Permissions.Has(perm)
}
