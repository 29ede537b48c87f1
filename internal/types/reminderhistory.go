package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TierGentle     = "gentle"
	TierSupportive = "supportive"
	TierLastChance = "last_chance"
)

// TierRank orders escalation tiers (gentle < supportive < last_chance).
// Unknown tiers rank lowest.
func TierRank(tier string) int {
	switch tier {
	case TierGentle:
		return 1
	case TierSupportive:
		return 2
	case TierLastChance:
		return 3
	default:
		return 0
	}
}

// ReminderHistory is one sent reminder. WasEffective is tri-state: nil until
// the daily effectiveness job labels it, then immutable.
type ReminderHistory struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_reminder_history_pair;column:user_id" json:"user_id"`
	GoalID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_reminder_history_pair;column:goal_id" json:"goal_id"`
	Tier            string         `gorm:"not null;column:tier" json:"tier"`
	SentAt          time.Time      `gorm:"not null;index;column:sent_at" json:"sent_at"`
	SentAtLocalDate string         `gorm:"not null;column:sent_at_local_date" json:"sent_at_local_date"`
	WasEffective    *bool          `gorm:"column:was_effective" json:"was_effective,omitempty"`
	UserTimezone    string         `gorm:"not null;column:user_timezone" json:"user_timezone"`
	SocialContext   datatypes.JSON `gorm:"column:social_context" json:"social_context,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ReminderHistory) TableName() string {
	return "reminder_history"
}
