// Package serial runs jobs in submission order per key while different keys
// proceed in parallel.
package serial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Pleso100/Kolgidrat/core/logger"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("serial: queue closed")

// Queue keeps one FIFO per key. A key with pending jobs owns exactly one
// goroutine, started on first submit and stopped when its FIFO drains.
type Queue struct {
	mu      sync.Mutex
	pending map[int64][]func()
	closed  bool
	wg      sync.WaitGroup
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{pending: make(map[int64][]func())}
}

// Submit appends job to the FIFO of key. It never blocks on other jobs.
func (q *Queue) Submit(key int64, job func()) error {
	if job == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	jobs, running := q.pending[key]
	q.pending[key] = append(jobs, job)
	if !running {
		q.wg.Add(1)
		go q.drain(key)
	}
	return nil
}

// Keys is the number of keys with queued or running jobs.
func (q *Queue) Keys() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close rejects new jobs and waits until queued ones finish or ctx ends.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("serial: close: %w", ctx.Err())
	}
}

// drain holds the map entry of key until the FIFO is empty; Submit treats a
// present entry as a running drainer.
func (q *Queue) drain(key int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		jobs := q.pending[key]
		if len(jobs) == 0 {
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		job := jobs[0]
		jobs[0] = nil
		q.pending[key] = jobs[1:]
		q.mu.Unlock()

		run(key, job)
	}
}

func run(key int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(logger.Background(), "tg", "serial.panic",
				slog.Int64("user_id", key),
				slog.String("err", fmt.Sprint(r)),
			)
		}
	}()
	job()
}
