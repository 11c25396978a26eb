package ports

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

// KeyLocker serializes work per key. Distinct keys never block each other.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
