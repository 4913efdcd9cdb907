package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/placementbot/core/logger"
	"github.com/m3rciful/placementbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// With no dispatcher set, helpers send synchronously.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// Dispatch runs send on the shared dispatcher, or inline when none is set or
// the queue cannot take it.
func Dispatch(ctx context.Context, action, endpoint string, send func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return send()
	}
	err := disp.Enqueue(ctx, action, endpoint, send)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, logger.CompSender, "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return send()
	}
	return err
}

// SendText sends plain text (no parse mode) to the current chat.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	return SendTexts(c, []string{text}, opts...)
}

// SendTexts sends texts in order as separate messages. They share one
// dispatcher job so a long listing cannot arrive shuffled. opts apply to the
// last message only, so a keyboard is attached once.
func SendTexts(c tele.Context, texts []string, opts ...*tele.SendOptions) error {
	if len(texts) == 0 {
		return nil
	}
	var last *tele.SendOptions
	if len(opts) > 0 {
		last = opts[0]
	}
	return Dispatch(BuildContext(c), "send.text", "sendMessage", func() error {
		for i, text := range texts {
			var err error
			if i == len(texts)-1 && last != nil {
				err = c.Send(text, last)
			} else {
				err = c.Send(text)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SendDocument uploads doc to the current chat.
func SendDocument(c tele.Context, doc *tele.Document) error {
	return Dispatch(BuildContext(c), "send.document", "sendDocument", func() error {
		return c.Send(doc)
	})
}
