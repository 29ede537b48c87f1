package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	MemberStatusActive = "active"
	MemberStatusLeft   = "left"
)

type GroupMember struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member_pair;column:group_id" json:"group_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member_pair;column:user_id" json:"user_id"`
	Status    string    `gorm:"not null;default:'active';column:status" json:"status"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (GroupMember) TableName() string {
	return "group_member"
}
