package chat

import (
	"time"

	"hqchat_backend/internal/models/chat"

	"gorm.io/gorm"
)

type MemberRepository struct {
	DB *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{DB: db}
}

// Find возвращает участника по паре (room, user).
func (r *MemberRepository) Find(roomID, userID string) (*chat.Member, error) {
	var member chat.Member
	err := r.DB.First(&member, "room_id = ? AND user_id = ?", roomID, userID).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByID возвращает участника по ID.
func (r *MemberRepository) FindByID(id string) (*chat.Member, error) {
	var member chat.Member
	err := r.DB.First(&member, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListByRoom возвращает всех участников комнаты.
func (r *MemberRepository) ListByRoom(roomID string) ([]chat.Member, error) {
	var members []chat.Member
	err := r.DB.Where("room_id = ?", roomID).Find(&members).Error
	return members, err
}

// ListOnline возвращает активных участников комнаты, которые сейчас в
// сети. По этому списку сеются квитанции доставки.
func (r *MemberRepository) ListOnline(roomID string) ([]chat.Member, error) {
	var members []chat.Member
	err := r.DB.Where("room_id = ? AND active AND online", roomID).Find(&members).Error
	return members, err
}

// Create добавляет участника.
func (r *MemberRepository) Create(member *chat.Member) error {
	return r.DB.Create(member).Error
}

// GetOrCreate возвращает существующего участника или создаёт нового.
// Неактивная строка реактивируется - пара (room, user) уникальна.
func (r *MemberRepository) GetOrCreate(roomID, userID string) (*chat.Member, error) {
	member, err := r.Find(roomID, userID)
	if err == nil {
		if !member.Active {
			err = r.DB.Model(member).Update("active", true).Error
			member.Active = true
		}
		return member, err
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	member = &chat.Member{
		RoomID:   roomID,
		UserID:   userID,
		Active:   true,
		JoinedAt: time.Now(),
	}
	if err := r.DB.Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// SetActive включает/выключает мягкое удаление участника.
func (r *MemberRepository) SetActive(memberID string, active bool) error {
	return r.DB.Model(&chat.Member{}).Where("id = ?", memberID).Update("active", active).Error
}

// SetOnline обновляет флаг присутствия активного участника и двигает
// last_updated. Повторная установка того же значения не трогает строку,
// поэтому вызов идемпотентен. Возвращает число затронутых строк: 0
// означает либо отсутствие участника, либо no-op.
func (r *MemberRepository) SetOnline(roomID, userID string, online bool) (int64, error) {
	res := r.DB.Model(&chat.Member{}).
		Where("room_id = ? AND user_id = ? AND active AND online <> ?", roomID, userID, online).
		Updates(map[string]interface{}{"online": online, "last_updated": time.Now()})
	return res.RowsAffected, res.Error
}
