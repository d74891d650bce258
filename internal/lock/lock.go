// Package lock keeps background jobs from running on two server instances at
// once. A single node uses MemoryLocker; a fleet shares a Redis lock.
package lock

import (
	"context"
	"time"
)

// RecurringRunKey is held while due recurring payments are posted.
const RecurringRunKey = "lock:recurring:run"

// Locker is a lease on a named key. A lease expires after its TTL unless it
// is extended, so a crashed holder never blocks the job for good.
type Locker interface {
	// Acquire takes key for ttl. It returns false, without error, when
	// another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Extend pushes the expiry of a held key to ttl from now. It returns
	// false when the lease was lost.
	Extend(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release gives key up. It returns false when this holder no longer had it.
	Release(ctx context.Context, key string) (bool, error)
}
