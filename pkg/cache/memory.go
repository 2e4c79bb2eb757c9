package cache

import (
	"context"
	"sync"
	"time"
)

type memLease struct {
	holder  string
	expires time.Time
}

// MemoryCache implements Locker for replicas sharing one process.
type MemoryCache struct {
	mutex sync.Mutex
	locks map[string]memLease
	now   func() time.Time
}

// NewMemoryCache creates an in-memory locker.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{locks: make(map[string]memLease), now: time.Now}
}

func (mc *MemoryCache) Acquire(_ context.Context, key, holder string, ttl time.Duration) (bool, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	if l, ok := mc.locks[key]; ok && now.Before(l.expires) && l.holder != holder {
		return false, nil
	}
	mc.locks[key] = memLease{holder: holder, expires: now.Add(ttl)}
	return true, nil
}

func (mc *MemoryCache) Release(_ context.Context, key, holder string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	l, ok := mc.locks[key]
	if !ok || l.holder != holder || !mc.now().Before(l.expires) {
		return ErrNotHeld
	}
	delete(mc.locks, key)
	return nil
}

func (mc *MemoryCache) Close() error { return nil }
