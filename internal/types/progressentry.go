package types

import (
	"time"

	"github.com/google/uuid"
)

// ProgressEntry records one logged unit of progress. PeriodStart is the
// user-local calendar date (YYYY-MM-DD) the entry counts toward, which is not
// necessarily the UTC date of CreatedAt.
type ProgressEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	GoalID      uuid.UUID `gorm:"type:uuid;not null;index:idx_progress_goal_user_period;column:goal_id" json:"goal_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_progress_goal_user_period;column:user_id" json:"user_id"`
	PeriodStart string    `gorm:"not null;index:idx_progress_goal_user_period;column:period_start" json:"period_start"`
	Note        string    `gorm:"column:note" json:"note"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ProgressEntry) TableName() string {
	return "progress_entry"
}
