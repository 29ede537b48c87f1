package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReminderModeSmart    = "smart"
	ReminderModeFixed    = "fixed"
	ReminderModeDisabled = "disabled"
)

const (
	AggressivenessGentle     = "gentle"
	AggressivenessBalanced   = "balanced"
	AggressivenessPersistent = "persistent"
)

// ReminderPreference is the optional per user-goal reminder configuration.
// Absence of a row means "use defaults"; FixedHour is only meaningful in
// fixed mode, and the quiet-hour bounds are set both-or-neither.
type ReminderPreference struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reminder_pref_pair;column:user_id" json:"user_id"`
	GoalID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reminder_pref_pair;column:goal_id" json:"goal_id"`
	Enabled         bool      `gorm:"not null;default:true;column:enabled" json:"enabled"`
	Mode            string    `gorm:"not null;default:'smart';column:mode" json:"mode"`
	FixedHour       *int      `gorm:"column:fixed_hour" json:"fixed_hour,omitempty"`
	Aggressiveness  string    `gorm:"not null;default:'balanced';column:aggressiveness" json:"aggressiveness"`
	QuietHoursStart *int      `gorm:"column:quiet_hours_start" json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   *int      `gorm:"column:quiet_hours_end" json:"quiet_hours_end,omitempty"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ReminderPreference) TableName() string {
	return "reminder_preference"
}
