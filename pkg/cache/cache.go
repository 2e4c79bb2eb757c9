package cache

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
)

// ErrNotHeld is returned by Release when the caller does not own the lease.
var ErrNotHeld = errors.New("cache: lease not held")

// Locker grants renewable leases keyed by name. Acquire takes a free or
// expired key and extends one the holder already owns.
type Locker interface {
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, holder string) error
	Close() error
}

// NewHolderID returns a lease holder identity unique to this process.
func NewHolderID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "tickerwatch"
	}
	return host + "-" + uuid.NewString()
}
