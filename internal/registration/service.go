// Package registration drives the step-by-step student registration dialogue
// and records the finished registration.
package registration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/placementbot/core/logger"
	"github.com/m3rciful/placementbot/core/metrics"
	"github.com/m3rciful/placementbot/core/telegram/state"
	"github.com/m3rciful/placementbot/internal/apperr"
	"github.com/m3rciful/placementbot/internal/store"
)

// Records is the part of the record store the dialogue writes into.
type Records interface {
	PutStudent(userID int64, rec store.StudentRecord)
	PutPayment(userID int64, rec store.PaymentRecord)
	Student(userID int64) (store.StudentRecord, bool)
	Payment(userID int64) (store.PaymentRecord, bool)
}

// ReferenceGenerator issues payment references.
type ReferenceGenerator interface {
	Generate(studentID string) (string, error)
}

// Notifier delivers best-effort messages to users other than the sender.
type Notifier interface {
	NotifyText(ctx context.Context, userID int64, text string) error
	NotifyPhoto(ctx context.Context, userID int64, fileID, caption string) error
}

// Options wires a Service.
type Options struct {
	Sessions   state.Manager[*Session]
	Records    Records
	References ReferenceGenerator
	Notifier   Notifier
	Admins     []int64
	Texts      Texts
	Now        func() time.Time
	NewID      func() string
}

// Service owns the per-user sessions and turns completed dialogues into records.
type Service struct {
	sessions state.Manager[*Session]
	records  Records
	refs     ReferenceGenerator
	notifier Notifier
	admins   []int64
	texts    Texts
	now      func() time.Time
	newID    func() string
}

// Outcome is what the caller has to send back to the submitting user.
type Outcome struct {
	Replies   []Reply
	Completed bool
	Student   store.StudentRecord
	Payment   store.PaymentRecord
}

// NewService constructs a Service. Sessions, Records and References are required.
func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{
		sessions: opts.Sessions,
		records:  opts.Records,
		refs:     opts.References,
		notifier: opts.Notifier,
		admins:   append([]int64(nil), opts.Admins...),
		texts:    opts.Texts.withDefaults(),
		now:      now,
		newID:    newID,
	}
}

func (s *Service) newSession() *Session {
	return NewSession(s.texts)
}

// InProgress reports whether userID has an open dialogue.
func (s *Service) InProgress(userID int64) bool {
	return s.sessions.InProgress(userID)
}

// Start discards any open dialogue, opens a fresh one and returns the
// welcome message.
func (s *Service) Start(ctx context.Context, userID int64) (Outcome, error) {
	s.sessions.Clear(userID)
	err := s.sessions.Do(userID, s.newSession, func(*Session) (bool, error) { return false, nil })
	if err != nil {
		logger.Error(ctx, logger.CompRegistration, "session.start",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return Outcome{}, err
	}
	logger.Debug(ctx, logger.CompRegistration, "session.start", slog.Int64("user_id", userID))
	return Outcome{Replies: []Reply{{Text: welcomeText, HideChoices: true}}}, nil
}

// Handle feeds one inbound event into the user's dialogue, opening a session
// for users seen for the first time.
func (s *Service) Handle(ctx context.Context, userID int64, in Input) (Outcome, error) {
	var out Outcome
	err := s.sessions.Do(userID, s.newSession, func(sess *Session) (bool, error) {
		from := sess.Step()
		res, err := sess.Advance(ctx, in)
		if err != nil {
			return true, err
		}
		out.Replies = res.Replies

		if !res.Completed {
			logger.Debug(ctx, logger.CompRegistration, "step",
				slog.Int64("user_id", userID),
				slog.String("from", string(from)),
				slog.String("to", string(sess.Step())),
			)
			return false, nil
		}

		student, payment, err := s.record(userID, res)
		if err != nil {
			return false, err
		}
		if err := sess.Finish(ctx); err != nil {
			return true, err
		}
		out.Completed = true
		out.Student = student
		out.Payment = payment
		out.Replies = []Reply{{Text: successText(student, payment)}}
		return true, nil
	})
	if err != nil {
		logger.Error(ctx, logger.CompRegistration, "handle",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return Outcome{}, err
	}

	if out.Completed {
		metrics.RegistrationsCompleted.WithLabelValues(string(out.Payment.Method)).Inc()
		logger.Info(ctx, logger.CompRegistration, "completed",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.String("student_id", out.Student.StudentID),
			slog.String("reference", out.Payment.Reference),
			slog.String("method", string(out.Payment.Method)),
		)
		s.notifyAdmins(ctx, out.Student, out.Payment)
	}
	return out, nil
}

func (s *Service) record(userID int64, res Result) (store.StudentRecord, store.PaymentRecord, error) {
	ref, err := s.refs.Generate(res.Draft.StudentID)
	if err != nil {
		return store.StudentRecord{}, store.PaymentRecord{}, fmt.Errorf("registration: payment reference: %w", err)
	}
	now := s.now()

	student := store.StudentRecord{
		UserID:       userID,
		StudentID:    res.Draft.StudentID,
		FullName:     res.Draft.FullName,
		Email:        res.Draft.Email,
		Section:      res.Draft.Section,
		RegisteredAt: now,
	}
	payment := store.PaymentRecord{
		ID:               s.newID(),
		UserID:           userID,
		StudentID:        student.StudentID,
		FTNumber:         res.Draft.FTNumber,
		Reference:        ref,
		Amount:           s.texts.Amount,
		Method:           res.Draft.PaymentMethod,
		ScreenshotFileID: res.ScreenshotFileID,
		PaidAt:           now,
		Status:           store.StatusPending,
	}

	s.records.PutStudent(userID, student)
	s.records.PutPayment(userID, payment)
	return student, payment, nil
}

func (s *Service) notifyAdmins(ctx context.Context, student store.StudentRecord, payment store.PaymentRecord) {
	if s.notifier == nil || len(s.admins) == 0 {
		return
	}
	alert := adminAlertText(student, payment)
	caption := screenshotCaption(student)
	for _, adminID := range s.admins {
		if err := s.notifier.NotifyText(ctx, adminID, alert); err != nil {
			s.logNotifyFailure(ctx, "notify.admin.text", adminID, err)
		}
		if payment.ScreenshotFileID == "" {
			continue
		}
		if err := s.notifier.NotifyPhoto(ctx, adminID, payment.ScreenshotFileID, caption); err != nil {
			s.logNotifyFailure(ctx, "notify.admin.photo", adminID, err)
		}
	}
}

func (s *Service) logNotifyFailure(ctx context.Context, op string, to int64, err error) {
	err = apperr.Wrap(apperr.TransportFailure, op, err)
	logger.Warn(ctx, logger.CompRegistration, op,
		slog.String("status", "fail"),
		slog.Int64("to", to),
		slog.String("err", err.Error()),
		slog.String("err_code", "TRANSPORT_FAILURE"),
	)
}

// Status describes the payment state of a registered user.
func (s *Service) Status(ctx context.Context, userID int64) (string, error) {
	student, ok := s.records.Student(userID)
	if !ok {
		return "", apperr.New(apperr.NotFound, "registration.status",
			"You need to register first. Please use /start command.")
	}
	payment, ok := s.records.Payment(userID)
	logger.Debug(ctx, logger.CompRegistration, "status",
		slog.Int64("user_id", userID),
		slog.Bool("has_payment", ok),
	)
	return statusText(student, payment, ok), nil
}
