package router

import (
	"log/slog"

	tg "github.com/m3rciful/placementbot/core/telegram"
	"github.com/m3rciful/placementbot/core/telegram/middleware"
	"github.com/m3rciful/placementbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the dialogue that owns free text and photos. It opens a
// session itself for users it has not seen yet.
type Conversation interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
	HandlePhoto(c tele.Context) error
}

// MessageOptions controls fallback behaviour for text and media updates.
type MessageOptions struct {
	Fallback ui.FallbackProvider
	// Admin guards admin-only commands reached through the text route.
	Admin middleware.AdminOptions
}

// MessageRoutes builds the handlers for text, photo and document updates.
// Slash-prefixed text never reaches the dialogue: known commands telebot did
// not match (other case, foreign @mention) are dispatched, unknown ones get
// the fallback hint.
func MessageRoutes(conv Conversation, reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		started := c.Get("update_start")
		text := c.Text()

		if name := tg.CommandName(text); name != "" {
			if reg != nil {
				if key, cmd, ok := reg.LookupCommand(text); ok {
					h := cmd.Handler
					if cmd.AdminOnly {
						h = middleware.AdminOnlyMiddleware(opts.Admin)(h)
					}
					return handleWithSummary(c, "cmd."+normalizeHandlerName(key), started, func() error {
						return h(c)
					}, slog.String("via", "text"))
				}
			}
			return unknown(c, "unknown_command", started, opts.fallback(ui.FallbackProvider.UnknownCommand),
				slog.String("cmd", name))
		}

		if conv == nil {
			return unknown(c, "unknown_text", started, nil)
		}
		return handleWithSummary(c, conversationHandler(conv, c, "text"), started, func() error {
			return conv.HandleText(c)
		})
	}

	photoHandler := func(c tele.Context) error {
		started := c.Get("update_start")
		if conv == nil {
			return unknown(c, "unexpected_photo", started, opts.fallback(ui.FallbackProvider.UnknownMedia))
		}
		return handleWithSummary(c, conversationHandler(conv, c, "photo"), started, func() error {
			return conv.HandlePhoto(c)
		})
	}

	docHandler := func(c tele.Context) error {
		return unknown(c, "unexpected_document", c.Get("update_start"), opts.fallback(ui.FallbackProvider.UnknownMedia))
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(photoHandler)},
		{Endpoint: tele.OnDocument, Handler: wrap(docHandler)},
	}
}

func (o MessageOptions) fallback(pick func(ui.FallbackProvider) tele.HandlerFunc) tele.HandlerFunc {
	if o.Fallback == nil {
		return nil
	}
	return pick(o.Fallback)
}

func conversationHandler(conv Conversation, c tele.Context, kind string) string {
	if sender := c.Sender(); sender != nil && conv.InProgress(sender.ID) {
		return "fsm." + kind
	}
	return "fsm.open." + kind
}

func unknown(c tele.Context, name string, started any, h tele.HandlerFunc, extras ...slog.Attr) error {
	if h == nil {
		logHandlerSummary(c, name, startTime(started), "skip", nil, extras...)
		return nil
	}
	return handleWithSummary(c, name, started, func() error { return h(c) }, extras...)
}
