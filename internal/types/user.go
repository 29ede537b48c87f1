package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	DisplayName string         `gorm:"not null;column:display_name" json:"display_name"`
	Timezone    string         `gorm:"not null;default:'UTC';column:timezone" json:"timezone"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "user"
}
