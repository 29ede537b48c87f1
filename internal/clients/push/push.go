package push

import (
	"context"

	"github.com/google/uuid"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
)

// Sender is the notification delivery collaborator. Delivery is
// fire-and-forget; no receipt contract is assumed by the engine.
type Sender interface {
	SendNotificationToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error
}

// LogSender "delivers" notifications to the structured log. It stands in for
// a real provider in development and tests.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(baseLog *logger.Logger) *LogSender {
	return &LogSender{log: baseLog.With("client", "LogSender")}
}

func (s *LogSender) SendNotificationToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	s.log.Info("Delivering push notification",
		"user_id", userID, "title", title, "body", body, "data", data)
	return nil
}
