package types

import (
	"time"

	"github.com/google/uuid"
)

// patternScopeGeneral is the storage sentinel for the aggregate
// (all-weekdays) pattern row. It never appears outside this file.
const patternScopeGeneral = -1

// PatternScope distinguishes the aggregate pattern from per-weekday patterns
// without leaking the storage sentinel into calling code.
type PatternScope struct {
	dayOfWeek int
}

func GeneralScope() PatternScope {
	return PatternScope{dayOfWeek: patternScopeGeneral}
}

func WeekdayScope(d time.Weekday) PatternScope {
	return PatternScope{dayOfWeek: int(d)}
}

// ScopeFromDayOfWeek converts the stored day_of_week column back into a scope.
func ScopeFromDayOfWeek(v int) PatternScope {
	if v < 0 || v > 6 {
		return GeneralScope()
	}
	return PatternScope{dayOfWeek: v}
}

func (s PatternScope) IsGeneral() bool {
	return s.dayOfWeek == patternScopeGeneral
}

// Weekday returns the weekday filter; ok is false for the general scope.
func (s PatternScope) Weekday() (time.Weekday, bool) {
	if s.IsGeneral() {
		return 0, false
	}
	return time.Weekday(s.dayOfWeek), true
}

// DayOfWeek is the storage encoding of the scope.
func (s PatternScope) DayOfWeek() int {
	return s.dayOfWeek
}

// LoggingPattern is a statistically derived "typical logging window" for one
// user-goal pair. ConfidenceScore blends sample-size adequacy, circular
// standard deviation and inter-quartile tightness; rows are always recomputed
// wholesale, never incrementally updated.
type LoggingPattern struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_logging_pattern_key;column:user_id" json:"user_id"`
	GoalID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_logging_pattern_key;column:goal_id" json:"goal_id"`
	DayOfWeek        int       `gorm:"not null;default:-1;uniqueIndex:idx_logging_pattern_key;column:day_of_week" json:"day_of_week"`
	TypicalHourStart int       `gorm:"not null;column:typical_hour_start" json:"typical_hour_start"`
	TypicalHourEnd   int       `gorm:"not null;column:typical_hour_end" json:"typical_hour_end"`
	ConfidenceScore  float64   `gorm:"not null;column:confidence_score" json:"confidence_score"`
	SampleSize       int       `gorm:"not null;column:sample_size" json:"sample_size"`
	LastCalculatedAt time.Time `gorm:"not null;column:last_calculated_at" json:"last_calculated_at"`
	CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LoggingPattern) TableName() string {
	return "logging_pattern"
}

func (p *LoggingPattern) Scope() PatternScope {
	return ScopeFromDayOfWeek(p.DayOfWeek)
}
