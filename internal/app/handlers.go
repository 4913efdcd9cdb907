package app

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	tghelpers "github.com/m3rciful/placementbot/core/telegram/helpers"
	"github.com/m3rciful/placementbot/core/telegram/keyboard"
	"github.com/m3rciful/placementbot/internal/admin"
	"github.com/m3rciful/placementbot/internal/apperr"
	"github.com/m3rciful/placementbot/internal/reference"
	"github.com/m3rciful/placementbot/internal/registration"

	tele "gopkg.in/telebot.v4"
)

const (
	verifyUsage     = "Please provide a user ID or payment reference: /verify <user_id|reference>"
	unknownCommand  = "Unknown command. Use /start to register or /status to check your payment."
	unexpectedMedia = "Please send the payment screenshot as a photo, not as a file."
	exportCaption   = "Spreadsheet of all registered students and payments."
)

// handlers adapts telebot updates to the registration and admin services.
type handlers struct {
	reg   *registration.Service
	admin *admin.Service
	now   func() time.Time
	refs  *reference.Generator
	// byReference resolves a payment reference to the paying user.
	byReference func(ref string) (int64, bool)
}

func senderID(c tele.Context) (int64, bool) {
	if u := c.Sender(); u != nil {
		return u.ID, true
	}
	return 0, false
}

// fail tells the user what went wrong and hands err back for the handler summary.
func fail(c tele.Context, err error) error {
	if sendErr := tghelpers.SendText(c, apperr.UserMessage(err)); sendErr != nil {
		return apperr.Wrap(apperr.TransportFailure, "reply", sendErr)
	}
	return err
}

// sendReplies delivers dialogue replies in order. The keyboard of the last
// reply is attached to the last message.
func sendReplies(c tele.Context, replies []registration.Reply) error {
	if len(replies) == 0 {
		return nil
	}
	texts := make([]string, 0, len(replies))
	for _, r := range replies {
		texts = append(texts, r.Text)
	}
	var opts []*tele.SendOptions
	last := replies[len(replies)-1]
	switch {
	case len(last.Choices) > 0:
		opts = append(opts, &tele.SendOptions{ReplyMarkup: keyboard.Choices(last.Choices)})
	case last.HideChoices:
		opts = append(opts, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
	}
	return tghelpers.SendTexts(c, texts, opts...)
}

func (h *handlers) start(c tele.Context) error {
	id, ok := senderID(c)
	if !ok {
		return nil
	}
	out, err := h.reg.Start(tghelpers.BuildContext(c), id)
	if err != nil {
		return fail(c, err)
	}
	return sendReplies(c, out.Replies)
}

func (h *handlers) status(c tele.Context) error {
	id, ok := senderID(c)
	if !ok {
		return nil
	}
	text, err := h.reg.Status(tghelpers.BuildContext(c), id)
	if err != nil {
		return fail(c, err)
	}
	return tghelpers.SendText(c, text)
}

func (h *handlers) handle(c tele.Context, in registration.Input) error {
	id, ok := senderID(c)
	if !ok {
		return nil
	}
	out, err := h.reg.Handle(tghelpers.BuildContext(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return sendReplies(c, out.Replies)
}

// InProgress reports whether userID is in the middle of registering.
func (h *handlers) InProgress(userID int64) bool {
	return h.reg.InProgress(userID)
}

// HandleText feeds a free-text message into the dialogue.
func (h *handlers) HandleText(c tele.Context) error {
	return h.handle(c, registration.Input{Text: c.Text()})
}

// HandlePhoto feeds a photo into the dialogue. The caption, if any, is kept as text.
func (h *handlers) HandlePhoto(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return nil
	}
	return h.handle(c, registration.Input{Text: msg.Caption, PhotoFileID: msg.Photo.FileID})
}

func (h *handlers) adminCall(c tele.Context, fn func(ctx context.Context, caller int64) error) error {
	id, ok := senderID(c)
	if !ok {
		return nil
	}
	if err := fn(tghelpers.BuildContext(c), id); err != nil {
		return fail(c, err)
	}
	return nil
}

func (h *handlers) dashboard(c tele.Context) error {
	return h.adminCall(c, func(ctx context.Context, caller int64) error {
		text, err := h.admin.Dashboard(ctx, caller)
		if err != nil {
			return err
		}
		return tghelpers.SendText(c, text)
	})
}

func (h *handlers) stats(c tele.Context) error {
	return h.adminCall(c, func(ctx context.Context, caller int64) error {
		st, err := h.admin.Stats(ctx, caller)
		if err != nil {
			return err
		}
		return tghelpers.SendText(c, st.String())
	})
}

func (h *handlers) list(c tele.Context) error {
	return h.adminCall(c, func(ctx context.Context, caller int64) error {
		chunks, err := h.admin.List(ctx, caller)
		if err != nil {
			return err
		}
		return tghelpers.SendTexts(c, chunks)
	})
}

func (h *handlers) verify(c tele.Context) error {
	return h.adminCall(c, func(ctx context.Context, caller int64) error {
		target, err := h.verifyTarget(c.Text())
		if err != nil {
			return err
		}
		v, err := h.admin.Verify(ctx, caller, target)
		if err != nil {
			return err
		}
		return tghelpers.SendText(c, admin.VerifiedText(v))
	})
}

func (h *handlers) export(c tele.Context) error {
	return h.adminCall(c, func(ctx context.Context, caller int64) error {
		data, err := h.admin.Export(ctx, caller)
		if err != nil {
			return err
		}
		doc := &tele.Document{
			File:     tele.FromReader(bytes.NewReader(data)),
			FileName: admin.ExportFileName(h.now()),
			MIME:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Caption:  exportCaption,
		}
		return tghelpers.SendDocument(c, doc)
	})
}

// verifyTarget reads the argument of "/verify": a user id, or a payment
// reference when one was issued.
func (h *handlers) verifyTarget(text string) (int64, error) {
	id, ref, err := parseVerifyTarget(text)
	if err != nil || ref == "" {
		return id, err
	}
	if h.refs == nil || !h.refs.Validate(ref) {
		return 0, apperr.New(apperr.MalformedInput, "admin.verify", verifyUsage)
	}
	if h.byReference != nil {
		if id, ok := h.byReference(ref); ok {
			return id, nil
		}
	}
	return 0, apperr.New(apperr.NotFound, "admin.verify", "No payment found for reference "+ref+".")
}

// parseVerifyTarget splits "/verify <arg>" into a user id or a reference.
func parseVerifyTarget(text string) (int64, string, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, "", apperr.New(apperr.MalformedInput, "admin.verify", verifyUsage)
	}
	arg := fields[1]
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if id <= 0 {
			return 0, "", apperr.New(apperr.MalformedInput, "admin.verify", verifyUsage)
		}
		return id, "", nil
	}
	return 0, strings.ToUpper(arg), nil
}

// fallbacks answers updates nothing else claimed.
type fallbacks struct{}

func (fallbacks) UnknownCommand() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, unknownCommand)
	}
}

func (fallbacks) UnknownMedia() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, unexpectedMedia)
	}
}
