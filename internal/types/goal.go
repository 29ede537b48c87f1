package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CadenceDaily  = "daily"
	CadenceWeekly = "weekly"
)

type Goal struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	GroupID   uuid.UUID      `gorm:"type:uuid;not null;index;column:group_id" json:"group_id"`
	Title     string         `gorm:"not null;column:title" json:"title"`
	Cadence   string         `gorm:"not null;default:'daily';column:cadence" json:"cadence"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Goal) TableName() string {
	return "goal"
}
