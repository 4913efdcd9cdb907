package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/placementbot/internal/apperr"

	tele "gopkg.in/telebot.v4"
)

// errNoBot is returned when a notification is attempted before the bot started.
var errNoBot = errors.New("notifier: bot not started")

// Sender is the part of *tele.Bot used to reach users outside a handler.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier sends messages to users other than the one being served. Calls
// bypass the sender queue and wait for the Bot API, so failures reach the
// caller as TransportFailure.
type Notifier struct {
	sender Sender
}

// Bind sets the live bot. It is called from the run hook once the bot exists.
func (n *Notifier) Bind(s Sender) {
	n.sender = s
}

// NotifyText sends plain text to userID.
func (n *Notifier) NotifyText(ctx context.Context, userID int64, text string) error {
	return n.send(ctx, "notify.text", func(s Sender) error {
		_, err := s.Send(tele.ChatID(userID), text)
		return err
	})
}

// NotifyPhoto forwards an already uploaded photo by its file id.
func (n *Notifier) NotifyPhoto(ctx context.Context, userID int64, fileID, caption string) error {
	return n.send(ctx, "notify.photo", func(s Sender) error {
		photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
		_, err := s.Send(tele.ChatID(userID), photo)
		return err
	})
}

func (n *Notifier) send(ctx context.Context, op string, fn func(Sender) error) error {
	s := n.sender
	if s == nil {
		return apperr.Wrap(apperr.TransportFailure, op, errNoBot)
	}
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.TransportFailure, op, err)
	}
	if err := fn(s); err != nil {
		return apperr.Wrap(apperr.TransportFailure, op, fmt.Errorf("send: %w", err))
	}
	return nil
}
