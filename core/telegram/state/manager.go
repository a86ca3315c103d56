package state

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Pleso100/Kolgidrat/core/logger"
)

const defaultLockTTL = 30 * time.Second

type options struct {
	locker  Locker
	lockTTL time.Duration
}

// Option configures a Manager.
type Option func(*options)

// WithLocker adds a cross-process lock taken after the local one.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(o *options) {
		o.locker = l
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

// lockEntry is a per-user mutex that can be awaited with a context.
type lockEntry struct {
	ch   chan struct{}
	refs int
}

// Manager hands out sessions and serializes transitions per user.
type Manager[S any] struct {
	backend Backend[S]
	newS    func() S
	opts    options

	mu    sync.Mutex
	locks map[int64]*lockEntry
}

// NewManager builds a Manager; newSession produces the default record for unseen users.
func NewManager[S any](backend Backend[S], newSession func() S, opts ...Option) *Manager[S] {
	o := options{lockTTL: defaultLockTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if newSession == nil {
		newSession = func() S { var zero S; return zero }
	}
	return &Manager[S]{
		backend: backend,
		newS:    newSession,
		opts:    o,
		locks:   make(map[int64]*lockEntry),
	}
}

// Get returns the stored session or a fresh default one. Nothing is persisted.
func (m *Manager[S]) Get(ctx context.Context, userID int64) (S, error) {
	s, found, err := m.backend.Load(ctx, userID)
	if err != nil {
		var zero S
		return zero, fmt.Errorf("state: load user %d: %w", userID, err)
	}
	if !found {
		return m.newS(), nil
	}
	return s, nil
}

// Set replaces the session of a user.
func (m *Manager[S]) Set(ctx context.Context, userID int64, s S) error {
	return m.withLock(ctx, userID, func(ctx context.Context) error {
		if err := m.backend.Save(ctx, userID, s); err != nil {
			return fmt.Errorf("state: save user %d: %w", userID, err)
		}
		return nil
	})
}

// Clear removes the session of a user; the next Get yields the default again.
func (m *Manager[S]) Clear(ctx context.Context, userID int64) error {
	return m.withLock(ctx, userID, func(ctx context.Context) error {
		if err := m.backend.Delete(ctx, userID); err != nil {
			return fmt.Errorf("state: delete user %d: %w", userID, err)
		}
		return nil
	})
}

// Update loads the session, applies fn and saves the result while holding the
// user's lock. When fn fails nothing is saved.
func (m *Manager[S]) Update(ctx context.Context, userID int64, fn func(ctx context.Context, s S) (S, error)) error {
	return m.withLock(ctx, userID, func(ctx context.Context) error {
		cur, err := m.Get(ctx, userID)
		if err != nil {
			return err
		}
		next, err := fn(ctx, cur)
		if err != nil {
			return err
		}
		if err := m.backend.Save(ctx, userID, next); err != nil {
			return fmt.Errorf("state: save user %d: %w", userID, err)
		}
		return nil
	})
}

func (m *Manager[S]) withLock(ctx context.Context, userID int64, fn func(context.Context) error) error {
	entry := m.acquire(userID)
	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(userID)
		return fmt.Errorf("state: lock user %d: %w", userID, ctx.Err())
	}
	defer func() {
		<-entry.ch
		m.release(userID)
	}()

	if m.opts.locker != nil {
		unlock, err := m.opts.locker.Lock(ctx, strconv.FormatInt(userID, 10), m.opts.lockTTL)
		if err != nil {
			return fmt.Errorf("state: distributed lock user %d: %w", userID, err)
		}
		defer func() {
			// Released with a fresh context so a cancelled request still frees the key.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := unlock(rctx); err != nil {
				logger.SESS.Warn("unlock failed",
					slog.String("event", "session.unlock"),
					slog.Int64("user_id", userID),
					slog.String("err", err.Error()),
				)
			}
		}()
	}
	return fn(ctx)
}

func (m *Manager[S]) acquire(userID int64) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.locks[userID]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		m.locks[userID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager[S]) release(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.locks[userID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, userID)
	}
}

// activeLocks reports the number of lock entries currently held or awaited.
func (m *Manager[S]) activeLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
