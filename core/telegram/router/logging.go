package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/placementbot/core/logger"
	"github.com/m3rciful/placementbot/core/metrics"
	"github.com/m3rciful/placementbot/core/observability"
	tghelpers "github.com/m3rciful/placementbot/core/telegram/helpers"
	"github.com/m3rciful/placementbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// handleWithSummary runs fn and writes one handler.handled line. started is
// the update_start value stored by the logger middleware; when absent the
// clock starts now. The error ends here: handlers have already told the user,
// so telebot's OnError only sees failures raised outside routed handlers.
func handleWithSummary(c tele.Context, handlerName string, started any, fn func() error, extras ...slog.Attr) error {
	start := startTime(started)
	tghelpers.WithHandler(c, handlerName)
	err := fn()
	logHandlerSummary(c, handlerName, start, "", err, extras...)
	return nil
}

func startTime(v any) time.Time {
	if t, ok := v.(time.Time); ok && !t.IsZero() {
		return t
	}
	return time.Now()
}

func logHandlerSummary(c tele.Context, handlerName string, start time.Time, statusOverride string, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)

	status := statusOverride
	if status == "" {
		status = "ok"
		if err != nil {
			status = "fail"
		}
	}
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	level := slog.LevelInfo
	if err != nil {
		code := deriveErrorCode(err)
		metrics.HandlerErrors.WithLabelValues(code).Inc()
		if !hasCode(err) {
			observability.CaptureErr(err)
		}
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", code),
			slog.String("cause", handlerName),
		)
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.Component(logger.CompTG), level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

type coder interface{ Code() string }

// hasCode reports whether err belongs to the domain taxonomy. Anything else
// is unexpected and worth reporting.
func hasCode(err error) bool {
	var c coder
	return errors.As(err, &c)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
