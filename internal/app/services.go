package app

import (
	"math/rand"
	"time"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/services"
)

type Services struct {
	Pattern       services.PatternService
	Social        services.SocialContextService
	Notification  services.NotificationService
	Effectiveness services.EffectivenessService
	Reminders     services.ReminderOrchestrator
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	pattern := services.NewPatternService(log, cfg.Reminder, reposet.ProgressEntry, reposet.LoggingPattern, reposet.User)
	social := services.NewSocialContextService(log, cfg.Reminder, reposet.Goal, reposet.Group, reposet.GroupMember, reposet.User, reposet.ProgressEntry)

	notification, err := services.NewNotificationService(log, reposet.ReminderHistory, clients.Push, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return Services{}, err
	}

	effectiveness := services.NewEffectivenessService(log, reposet.ReminderHistory, reposet.ProgressEntry)
	reminders := services.NewReminderOrchestrator(log, cfg.Reminder, reposet.Goal, reposet.ReminderPreference, reposet.LoggingPattern, reposet.ProgressEntry, reposet.ReminderHistory, social, notification, clients.RunLock)

	return Services{
		Pattern:       pattern,
		Social:        social,
		Notification:  notification,
		Effectiveness: effectiveness,
		Reminders:     reminders,
	}, nil
}
