package state

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/placementbot/core/logger"
)

type entry[T any] struct {
	mu      sync.Mutex
	value   T
	touched atomic.Int64
	dead    atomic.Bool
}

// Memory keeps sessions in process memory. Calls for the same user are
// serialized; different users proceed in parallel.
type Memory[T any] struct {
	mu       sync.Mutex
	sessions map[int64]*entry[T]
	ttl      time.Duration
	now      func() time.Time
	onExpire func(userID int64)
}

var _ Manager[int] = (*Memory[int])(nil)

// NewMemory constructs an in-memory session manager.
func NewMemory[T any](opts Options) *Memory[T] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Memory[T]{
		sessions: make(map[int64]*entry[T]),
		ttl:      opts.TTL,
		now:      now,
		onExpire: opts.OnExpire,
	}
}

func (m *Memory[T]) acquire(userID int64, create func() T) (*entry[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[userID]
	if !ok {
		if create == nil {
			return nil, false
		}
		e = &entry[T]{value: create()}
		m.sessions[userID] = e
	}
	e.touched.Store(m.now().UnixNano())
	return e, true
}

// Do runs fn with exclusive access to the user's session, creating it with
// create when absent. The session is removed when fn reports drop.
func (m *Memory[T]) Do(userID int64, create func() T, fn func(T) (drop bool, err error)) error {
	for {
		e, ok := m.acquire(userID, create)
		if !ok {
			return ErrNoSession
		}

		e.mu.Lock()
		if e.dead.Load() {
			// removed while we waited; start over with a fresh lookup
			e.mu.Unlock()
			continue
		}
		drop, err := fn(e.value)
		if drop {
			e.dead.Store(true)
			m.mu.Lock()
			if m.sessions[userID] == e {
				delete(m.sessions, userID)
			}
			m.mu.Unlock()
		}
		e.mu.Unlock()
		return err
	}
}

// InProgress reports whether the user has an open session.
func (m *Memory[T]) InProgress(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID]
	return ok
}

// Clear removes the entire session for a user.
func (m *Memory[T]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[userID]; ok {
		e.dead.Store(true)
		delete(m.sessions, userID)
	}
}

// Len returns the number of open sessions.
func (m *Memory[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many were removed.
func (m *Memory[T]) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl).UnixNano()

	var expired []int64
	m.mu.Lock()
	for id, e := range m.sessions {
		if e.touched.Load() < cutoff {
			e.dead.Store(true)
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	if m.onExpire != nil {
		for _, id := range expired {
			m.onExpire(id)
		}
	}
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Memory[T]) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if n := m.Sweep(); n > 0 {
				logger.Info(ctx, logger.CompState, "session.sweep",
					slog.String("status", "ok"),
					slog.Int("count", n),
					slog.Int("pending_count", m.Len()),
					slog.Duration("duration", logger.RoundMS(time.Since(start))),
				)
			}
		}
	}
}
