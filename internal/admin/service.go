// Package admin implements the operator commands: dashboard, statistics,
// student listing, payment verification and spreadsheet export.
package admin

import (
	"context"
	"log/slog"

	"github.com/m3rciful/placementbot/core/logger"
	"github.com/m3rciful/placementbot/core/metrics"
	"github.com/m3rciful/placementbot/core/telegram/format"
	"github.com/m3rciful/placementbot/internal/apperr"
	"github.com/m3rciful/placementbot/internal/store"
)

// Records is the read side of the record store plus the status update used by Verify.
type Records interface {
	Student(userID int64) (store.StudentRecord, bool)
	Payment(userID int64) (store.PaymentRecord, bool)
	Students() []store.StudentRecord
	Payments() []store.PaymentRecord
	FindPaymentByStudentID(studentID string, match func(store.PaymentRecord) bool) (store.PaymentRecord, bool)
	SetPaymentStatus(userID int64, status store.PaymentStatus) (store.PaymentRecord, bool)
}

// Notifier delivers the access message to a verified student.
type Notifier interface {
	NotifyText(ctx context.Context, userID int64, text string) error
}

// Options wires a Service.
type Options struct {
	Allow      AllowList
	Records    Records
	Notifier   Notifier
	AccessLink string
	ChunkUnits int
}

// Service answers admin commands. Every operation checks the caller first.
type Service struct {
	allow      AllowList
	records    Records
	notifier   Notifier
	accessLink string
	chunkUnits int
}

// NewService constructs a Service.
func NewService(opts Options) *Service {
	units := opts.ChunkUnits
	if units <= 0 {
		units = format.MaxMessageUnits
	}
	return &Service{
		allow:      opts.Allow,
		records:    opts.Records,
		notifier:   opts.Notifier,
		accessLink: opts.AccessLink,
		chunkUnits: units,
	}
}

// AccessCheck reports whether userID is on the allow-list.
func (s *Service) AccessCheck(userID int64) bool {
	return s.allow.Allows(userID)
}

func (s *Service) authorize(ctx context.Context, op string, caller int64) error {
	if s.allow.Allows(caller) {
		return nil
	}
	logger.Warn(ctx, logger.CompAdmin, op,
		slog.String("status", "denied"),
		slog.Int64("user_id", caller),
	)
	return apperr.New(apperr.Unauthorized, "admin."+op, "")
}

// Dashboard returns the /admin help text.
func (s *Service) Dashboard(ctx context.Context, caller int64) (string, error) {
	if err := s.authorize(ctx, "dashboard", caller); err != nil {
		return "", err
	}
	return dashboardText, nil
}

// Stats aggregates the current records for an admin caller.
func (s *Service) Stats(ctx context.Context, caller int64) (Stats, error) {
	if err := s.authorize(ctx, "stats", caller); err != nil {
		return Stats{}, err
	}
	st := ComputeStats(s.records.Students(), s.records.Payments())
	logger.Debug(ctx, logger.CompAdmin, "stats",
		slog.Int("students", st.TotalStudents),
		slog.Int("payments", st.TotalPayments),
	)
	return st, nil
}

// List renders every registered student joined to its payment by student ID,
// split into ordered messages that fit a single Telegram message.
func (s *Service) List(ctx context.Context, caller int64) ([]string, error) {
	if err := s.authorize(ctx, "list", caller); err != nil {
		return nil, err
	}
	students := s.records.Students()
	entries := make([]listEntry, 0, len(students))
	for _, st := range students {
		p, ok := s.records.FindPaymentByStudentID(st.StudentID, nil)
		entries = append(entries, listEntry{student: st, payment: p, paid: ok})
	}
	chunks := format.Chunk(listText(entries), s.chunkUnits)
	logger.Debug(ctx, logger.CompAdmin, "list",
		slog.Int("students", len(students)),
		slog.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

// Verification is the outcome of Verify. Notified is false when the access
// message could not be delivered to the student.
type Verification struct {
	Student  store.StudentRecord
	Notified bool
}

// Verify marks the payment of targetUserID as verified and sends the student
// the access instructions. A failed notification does not undo the status
// change; it is logged and reported through Verification.Notified.
func (s *Service) Verify(ctx context.Context, caller, targetUserID int64) (Verification, error) {
	if err := s.authorize(ctx, "verify", caller); err != nil {
		return Verification{}, err
	}
	notFound := apperr.New(apperr.NotFound, "admin.verify", "Student or payment record not found.")
	student, ok := s.records.Student(targetUserID)
	if !ok {
		return Verification{}, notFound
	}
	if _, ok := s.records.Payment(targetUserID); !ok {
		return Verification{}, notFound
	}
	if _, ok := s.records.SetPaymentStatus(targetUserID, store.StatusVerified); !ok {
		return Verification{}, notFound
	}
	metrics.PaymentsVerified.Inc()
	logger.Info(ctx, logger.CompAdmin, "verify",
		slog.String("status", "ok"),
		slog.Int64("user_id", caller),
		slog.Int64("target", targetUserID),
		slog.String("student_id", student.StudentID),
	)

	return Verification{Student: student, Notified: s.notifyAccess(ctx, targetUserID)}, nil
}

func (s *Service) notifyAccess(ctx context.Context, targetUserID int64) bool {
	if s.notifier == nil {
		return false
	}
	err := s.notifier.NotifyText(ctx, targetUserID, accessText(s.accessLink))
	if err == nil {
		return true
	}
	err = apperr.Wrap(apperr.TransportFailure, "admin.verify.notify", err)
	logger.Warn(ctx, logger.CompAdmin, "verify.notify",
		slog.String("status", "fail"),
		slog.Int64("to", targetUserID),
		slog.String("err", err.Error()),
		slog.String("err_code", "TRANSPORT_FAILURE"),
	)
	return false
}

// Export builds an xlsx workbook with one sheet for students and one for payments.
func (s *Service) Export(ctx context.Context, caller int64) ([]byte, error) {
	if err := s.authorize(ctx, "export", caller); err != nil {
		return nil, err
	}
	data, err := buildWorkbook(s.records.Students(), s.records.Payments())
	if err != nil {
		logger.Error(ctx, logger.CompAdmin, "export",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	logger.Info(ctx, logger.CompAdmin, "export",
		slog.String("status", "ok"),
		slog.Int64("user_id", caller),
		slog.Int("bytes", len(data)),
	)
	return data, nil
}
