package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryList is a process-local revocation list for tests and single
// instance deployments without Redis.
type InMemoryList struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewInMemoryList() *InMemoryList {
	return &InMemoryList{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *InMemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expires[jti] = l.now().Add(ttl)
	return nil
}

func (l *InMemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.RLock()
	until, ok := l.expires[jti]
	l.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if l.now().After(until) {
		l.mu.Lock()
		delete(l.expires, jti)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}
