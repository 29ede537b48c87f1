package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/pursue-app/pursue-backend/internal/pkg/errors"
	"github.com/pursue-app/pursue-backend/internal/services"
)

// ReminderJobsHandler exposes the engine's batch entry points so an external
// cron can drive the runs instead of the in-process scheduler.
type ReminderJobsHandler struct {
	reminders     services.ReminderOrchestrator
	effectiveness services.EffectivenessService
	patterns      services.PatternService
}

func NewReminderJobsHandler(reminders services.ReminderOrchestrator, effectiveness services.EffectivenessService, patterns services.PatternService) *ReminderJobsHandler {
	return &ReminderJobsHandler{
		reminders:     reminders,
		effectiveness: effectiveness,
		patterns:      patterns,
	}
}

// POST /internal/jobs/process-reminders
func (h *ReminderJobsHandler) ProcessReminders(c *gin.Context) {
	stats, err := h.reminders.ProcessReminders(c.Request.Context())
	if errors.Is(err, pkgerrors.ErrRunInProgress) {
		RespondError(c, http.StatusConflict, "run_in_progress", err)
		return
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "run_failed", err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}

// POST /internal/jobs/update-effectiveness
func (h *ReminderJobsHandler) UpdateEffectiveness(c *gin.Context) {
	stats, err := h.effectiveness.UpdateEffectiveness(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "run_failed", err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}

// POST /internal/jobs/recalculate-patterns
func (h *ReminderJobsHandler) RecalculatePatterns(c *gin.Context) {
	stats, err := h.patterns.RecalculateAll(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "run_failed", err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}
