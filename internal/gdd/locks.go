package gdd

import (
	"context"
	"sync"
	"time"
)

// modelLocks serializes recomputes per model. Each model ID maps to a
// one-slot semaphore; acquisition waits up to the configured bound before
// giving up with ErrConflict so a stuck writer cannot wedge callers.
type modelLocks struct {
	mu    sync.Mutex
	locks map[int]chan struct{}
	wait  time.Duration
}

func newModelLocks(wait time.Duration) *modelLocks {
	return &modelLocks{
		locks: make(map[int]chan struct{}),
		wait:  wait,
	}
}

func (l *modelLocks) sem(modelID int) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.locks[modelID]
	if !ok {
		s = make(chan struct{}, 1)
		l.locks[modelID] = s
	}
	return s
}

// acquire takes the model's lock, waiting at most the configured bound.
// The returned release function must be called exactly once.
func (l *modelLocks) acquire(ctx context.Context, modelID int) (func(), error) {
	s := l.sem(modelID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		return func() { <-s }, nil
	case <-timer.C:
		return nil, ErrConflict
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
