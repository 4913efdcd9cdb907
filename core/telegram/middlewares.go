package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/placementbot/core/config"
	"github.com/m3rciful/placementbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the global chain: recover first, then the rate
// limit when rate_limit.interval_ms is set, then logging and metrics.
// onLimited, when set, answers updates dropped by the limiter.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}

	if rl, ok := rateLimitOptions(cfg); ok {
		rl.OnLimited = onLimited
		mws = append(mws, Middleware{Name: "rate_limit", Use: middleware.RateLimitMiddleware(rl)})
	}

	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}

func rateLimitOptions(cfg *coreconfig.Config) (middleware.RateLimitOptions, bool) {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return middleware.RateLimitOptions{}, false
	}
	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
	}
	return middleware.RateLimitOptions{
		Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:  exclude,
	}, true
}
