package services

import (
	"context"
	"sync"
	"time"
)

// RunLock guards job entry points against overlapping scheduler invocations
// (a slow run still executing when the next tick fires).
type RunLock interface {
	// TryAcquire returns false without blocking when the lease is held.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string)
}

// localRunLock is the single-process fallback used when redis is not
// configured. The ttl still applies so a crashed run cannot wedge the lease.
type localRunLock struct {
	mu     sync.Mutex
	leases map[string]time.Time
}

func NewLocalRunLock() RunLock {
	return &localRunLock{leases: map[string]time.Time{}}
}

func (l *localRunLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if expiry, held := l.leases[key]; held && now.Before(expiry) {
		return false, nil
	}
	l.leases[key] = now.Add(ttl)
	return true, nil
}

func (l *localRunLock) Release(ctx context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.leases, key)
}
