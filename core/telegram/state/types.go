package state

import (
	"errors"
	"time"
)

// ErrNoSession is returned by Do when no session exists and no constructor was given.
var ErrNoSession = errors.New("state: no session")

// Options configures a Memory manager.
type Options struct {
	// TTL is the idle time after which Sweep discards a session; 0 disables expiry.
	TTL time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
	// OnExpire is called for every session removed by Sweep.
	OnExpire func(userID int64)
}

// Manager is the session surface consumed by conversation handlers.
type Manager[T any] interface {
	Do(userID int64, create func() T, fn func(T) (drop bool, err error)) error
	InProgress(userID int64) bool
	Clear(userID int64)
	Len() int
}
