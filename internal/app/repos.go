package app

import (
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/repos"
)

type Repos struct {
	User               repos.UserRepo
	Group              repos.GroupRepo
	GroupMember        repos.GroupMemberRepo
	Goal               repos.GoalRepo
	ProgressEntry      repos.ProgressEntryRepo
	ReminderPreference repos.ReminderPreferenceRepo
	ReminderHistory    repos.ReminderHistoryRepo
	LoggingPattern     repos.LoggingPatternRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:               repos.NewUserRepo(db, log),
		Group:              repos.NewGroupRepo(db, log),
		GroupMember:        repos.NewGroupMemberRepo(db, log),
		Goal:               repos.NewGoalRepo(db, log),
		ProgressEntry:      repos.NewProgressEntryRepo(db, log),
		ReminderPreference: repos.NewReminderPreferenceRepo(db, log),
		ReminderHistory:    repos.NewReminderHistoryRepo(db, log),
		LoggingPattern:     repos.NewLoggingPatternRepo(db, log),
	}
}
