// Package redis provides a per-key lock shared by every server instance
// connected to the same Redis.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/timedpoll/internal/core/domain"
)

const (
	defaultExpiry     = 8 * time.Second
	defaultTries      = 64
	defaultRetryDelay = 25 * time.Millisecond
	lockPrefix        = "timedpoll:lock:"
)

type Locker struct {
	rs         *redsync.Redsync
	expiry     time.Duration
	tries      int
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewLocker(client goredislib.UniversalClient, logger *slog.Logger) *Locker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{
		rs:         redsync.New(goredis.NewPool(client)),
		expiry:     defaultExpiry,
		tries:      defaultTries,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(lockPrefix+key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(l.retryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return nil, lockError(ctx, key, err)
	}

	return func() {
		// The caller's context may already be done; release with a fresh one.
		unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); err != nil || !ok {
			l.logger.Warn("failed to release lock", "key", key, "error", err)
		}
	}, nil
}

// lockError reports a lock that could not be won within its tries as a
// transient conflict, whether the key stayed held or Redis did not answer.
// Cancellation and deadline errors of ctx pass through.
func lockError(ctx context.Context, key string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("failed to lock %s: %w", key, ctxErr)
	}
	return fmt.Errorf("failed to lock %s: %v: %w", key, err, domain.ErrLedgerConflict)
}
