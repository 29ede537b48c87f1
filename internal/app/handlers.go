package app

import (
	"github.com/pursue-app/pursue-backend/internal/handlers"
	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
)

type Handlers struct {
	ReminderJobs *handlers.ReminderJobsHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		ReminderJobs: handlers.NewReminderJobsHandler(services.Reminders, services.Effectiveness, services.Pattern),
	}
}
