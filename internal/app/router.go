package app

import (
	"github.com/gin-gonic/gin"

	"github.com/pursue-app/pursue-backend/internal/server"
)

func wireRouter(handlers Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ReminderJobsHandler: handlers.ReminderJobs,
	})
}
