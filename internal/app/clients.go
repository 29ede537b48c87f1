package app

import (
	"os"
	"strings"

	"github.com/pursue-app/pursue-backend/internal/clients/push"
	redisclient "github.com/pursue-app/pursue-backend/internal/clients/redis"
	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/services"
)

type Clients struct {
	RunLock services.RunLock
	Push    push.Sender

	redisLock *redisclient.RunLock
}

func wireClients(log *logger.Logger) Clients {
	log.Info("Wiring clients...")

	var (
		lock      services.RunLock
		redisLock *redisclient.RunLock
	)
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		rl, err := redisclient.NewRunLock(log)
		if err != nil {
			log.Warn("Redis run lock unavailable, using in-process lock", "error", err)
			lock = services.NewLocalRunLock()
		} else {
			redisLock = rl
			lock = rl
		}
	} else {
		log.Info("REDIS_ADDR not set, using in-process run lock")
		lock = services.NewLocalRunLock()
	}

	return Clients{
		RunLock:   lock,
		Push:      push.NewLogSender(log),
		redisLock: redisLock,
	}
}

func (c Clients) Close() {
	if c.redisLock != nil {
		_ = c.redisLock.Close()
	}
}
