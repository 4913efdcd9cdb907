// Package bootstrap brings up the process-wide infrastructure a bot needs
// before it starts polling: logging, error reporting and the metrics listener.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/placementbot/core/buildinfo"
	coreconfig "github.com/m3rciful/placementbot/core/config"
	"github.com/m3rciful/placementbot/core/logger"
	"github.com/m3rciful/placementbot/core/metrics"
	"github.com/m3rciful/placementbot/core/observability"
)

// Options control the bootstrap pipeline. Nil hooks fall back to the defaults.
type Options struct {
	Config  *coreconfig.Config
	AppName string

	LoggerInit  func(*coreconfig.Config) error
	SentryInit  func(dsn, env, release string) (func(), error)
	StartServer func(ctx context.Context, addr string, health func(context.Context) error) *metrics.Server
	Health      func(context.Context) error
}

// Result exposes what the pipeline started. Close releases it in reverse order.
type Result struct {
	Metrics *metrics.Server

	cancel      context.CancelFunc
	flushSentry func()
}

// Close stops the metrics listener and flushes pending Sentry events.
func (r *Result) Close() {
	if r == nil {
		return
	}
	if r.cancel != nil {
		r.cancel()
		r.Metrics.Wait()
	}
	if r.flushSentry != nil {
		r.flushSentry()
	}
}

// Run initializes the logger, Sentry (when a DSN is configured) and the
// metrics endpoint (when metrics.listen is set).
func Run(opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	ctx := context.Background()

	if cfg.Sentry.DSN != "" {
		sentryInit := opts.SentryInit
		if sentryInit == nil {
			sentryInit = observability.InitSentry
		}
		app := opts.AppName
		if app == "" {
			app = "bot"
		}
		flush, err := sentryInit(cfg.Sentry.DSN, cfg.Sentry.Environment, buildinfo.Release(app))
		if err != nil {
			logger.Warn(ctx, logger.CompApp, "sentry.init",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		} else {
			res.flushSentry = flush
			logger.Info(ctx, logger.CompApp, "sentry.init", slog.String("status", "ok"))
		}
	}

	if cfg.Metrics.Listen != "" {
		start := opts.StartServer
		if start == nil {
			start = metrics.StartServer
		}
		srvCtx, cancel := context.WithCancel(ctx)
		res.cancel = cancel
		res.Metrics = start(srvCtx, cfg.Metrics.Listen, opts.Health)
	}

	return res, nil
}
