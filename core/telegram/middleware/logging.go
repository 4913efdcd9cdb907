package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/placementbot/core/logger"
	tghelpers "github.com/m3rciful/placementbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// recentUpdates remembers update ids for a few seconds so the receipt line is
// written once even when the middleware wraps both the bot and a route.
var (
	recentMu     sync.Mutex
	recentUpdate = make(map[int]time.Time)
	keepFor      = 10 * time.Second
)

func alreadyLogged(updateID int) bool {
	now := time.Now()
	recentMu.Lock()
	defer recentMu.Unlock()
	for id, ts := range recentUpdate {
		if now.Sub(ts) > keepFor {
			delete(recentUpdate, id)
		}
	}
	if _, ok := recentUpdate[updateID]; ok {
		return true
	}
	recentUpdate[updateID] = now
	return false
}

// UpdateKind classifies an update for logging and rate limiting:
// "command", "photo", "message" or "other".
func UpdateKind(c tele.Context) string {
	msg := c.Message()
	switch {
	case msg == nil:
		return "other"
	case msg.Photo != nil:
		return "photo"
	case len(msg.Text) > 0 && msg.Text[0] == '/':
		return "command"
	}
	return "message"
}

// LoggerMiddleware sets the request id, stores a logging context on c and
// writes one sampled debug line per received update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		user := c.Sender()
		if user != nil {
			userID = user.ID
		}

		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component(logger.CompTG))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && !alreadyLogged(upd.ID) {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("kind", UpdateKind(c)),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user != nil {
				attrs = append(attrs,
					slog.String("username", logger.SanitizeLimit(user.Username, 64)),
					slog.String("lang", user.LanguageCode),
				)
			}
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
			logger.Debug(ctx, logger.CompTG, "update.received", attrs...)
		}

		return next(c)
	}
}
