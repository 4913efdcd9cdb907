// Package observability wires optional error reporting.
package observability

import (
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

var enabled atomic.Bool

// InitSentry configures the Sentry client. An empty DSN disables reporting and
// returns a no-op flush function.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	enabled.Store(true)
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr reports err when Sentry is configured.
func CaptureErr(err error) {
	if err != nil && enabled.Load() {
		sentry.CaptureException(err)
	}
}

// CapturePanic reports a recovered panic value when Sentry is configured.
func CapturePanic(r any) {
	if r != nil && enabled.Load() {
		sentry.CurrentHub().Recover(r)
	}
}
