package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
)

// releaseScript deletes the lease only when the stored token matches, so a
// run that outlived its ttl cannot release a lease acquired by a newer run.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RunLock is a redis-backed lease used to keep scheduled job runs from
// overlapping across processes.
type RunLock struct {
	log *logger.Logger
	rdb *goredis.Client

	mu     sync.Mutex
	tokens map[string]string
}

func NewRunLock(log *logger.Logger) (*RunLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RunLock{
		log:    log.With("client", "RedisRunLock"),
		rdb:    rdb,
		tokens: map[string]string{},
	}, nil
}

func (l *RunLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	acquired, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire run lease: %w", err)
	}
	if !acquired {
		return false, nil
	}
	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

func (l *RunLock) Release(ctx context.Context, key string) {
	l.mu.Lock()
	token, held := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !held {
		return
	}
	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil && err != goredis.Nil {
		l.log.Warn("Could not release run lease", "key", key, "error", err)
	}
}

func (l *RunLock) Close() error {
	return l.rdb.Close()
}
