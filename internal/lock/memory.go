package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a process-local Locker. Leases are not shared with other
// instances and do not survive a restart.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]time.Time
	now    func() time.Time
}

// NewMemoryLocker creates an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]time.Time), now: time.Now}
}

// held reports whether key has a live lease, dropping it once expired.
// The caller holds m.mu.
func (m *MemoryLocker) held(key string) bool {
	expiresAt, ok := m.leases[key]
	if ok && !m.now().Before(expiresAt) {
		delete(m.leases, key)
		return false
	}
	return ok
}

// Acquire takes key unless a live lease exists.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held(key) {
		return false, nil
	}
	m.leases[key] = m.now().Add(ttl)
	return true, nil
}

// Extend renews a live lease.
func (m *MemoryLocker) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.held(key) {
		return false, nil
	}
	m.leases[key] = m.now().Add(ttl)
	return true, nil
}

// Release drops the lease on key.
func (m *MemoryLocker) Release(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.held(key)
	delete(m.leases, key)
	return live, nil
}

var _ Locker = (*MemoryLocker)(nil)
