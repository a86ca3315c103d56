package state

import (
	"context"
	"time"
)

// Backend persists sessions keyed by Telegram user id.
// Load reports found=false, without error, for users that have no session yet.
type Backend[S any] interface {
	Load(ctx context.Context, userID int64) (s S, found bool, err error)
	Save(ctx context.Context, userID int64, s S) error
	Delete(ctx context.Context, userID int64) error
}

// UnlockFunc releases a lock obtained from a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes work on a key across processes.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
