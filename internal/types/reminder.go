package types

import (
	"github.com/google/uuid"
)

// ReminderCandidate is the transient (user, goal) tuple produced once per
// reminder run. It is never persisted.
type ReminderCandidate struct {
	UserID       uuid.UUID `gorm:"column:user_id" json:"user_id"`
	GoalID       uuid.UUID `gorm:"column:goal_id" json:"goal_id"`
	GroupID      uuid.UUID `gorm:"column:group_id" json:"group_id"`
	UserTimezone string    `gorm:"column:user_timezone" json:"user_timezone"`
	GoalTitle    string    `gorm:"column:goal_title" json:"goal_title"`
}

// PairKey keys in-memory batch maps by user and goal.
func PairKey(userID, goalID uuid.UUID) string {
	return userID.String() + ":" + goalID.String()
}

func (c *ReminderCandidate) PairKey() string {
	return PairKey(c.UserID, c.GoalID)
}

// TopPerformer is the highest-streak member of the group other than the
// reminded user.
type TopPerformer struct {
	Name   string `json:"name"`
	Streak int    `json:"streak"`
}

// SocialContext is computed fresh per send and persisted only as a JSON
// snapshot on the reminder history row.
type SocialContext struct {
	GroupID         uuid.UUID     `json:"group_id"`
	GroupName       string        `json:"group_name"`
	TotalMembers    int           `json:"total_members"`
	LoggedToday     int           `json:"logged_today"`
	PercentComplete float64       `json:"percent_complete"`
	UserStreak      int           `json:"user_streak"`
	TopPerformer    *TopPerformer `json:"top_performer,omitempty"`
	GroupStreak     int           `json:"group_streak,omitempty"`
}

// ReminderRunStats summarizes one 15-minute send run.
type ReminderRunStats struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// EffectivenessRunStats summarizes one daily effectiveness-labeling run.
type EffectivenessRunStats struct {
	Updated int `json:"updated"`
}

// PatternRunStats summarizes one weekly pattern recalculation run.
type PatternRunStats struct {
	Updated int `json:"updated"`
	Created int `json:"created"`
	Removed int `json:"removed"`
}
