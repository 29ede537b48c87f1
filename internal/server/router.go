package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pursue-app/pursue-backend/internal/handlers"
)

type RouterConfig struct {
	ReminderJobsHandler *handlers.ReminderJobsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("pursue-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Internal  ||
	// ===============
	// Driven by the platform cron; not reachable through the public ingress.
	internalJobs := router.Group("/internal/jobs")
	{
		internalJobs.POST("/process-reminders", cfg.ReminderJobsHandler.ProcessReminders)
		internalJobs.POST("/update-effectiveness", cfg.ReminderJobsHandler.UpdateEffectiveness)
		internalJobs.POST("/recalculate-patterns", cfg.ReminderJobsHandler.RecalculatePatterns)
	}

	return router
}
