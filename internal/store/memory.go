// Package store keeps registered students and their payments in process memory.
package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/m3rciful/placementbot/core/logger"
)

// Memory is a process-lifetime record store keyed by Telegram user ID.
// Writes are last-write-wins per key.
type Memory struct {
	mu       sync.RWMutex
	students map[int64]StudentRecord
	payments map[int64]PaymentRecord
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		students: make(map[int64]StudentRecord),
		payments: make(map[int64]PaymentRecord),
	}
}

// PutStudent stores rec under userID.
func (m *Memory) PutStudent(userID int64, rec StudentRecord) {
	m.mu.Lock()
	_, replaced := m.students[userID]
	m.students[userID] = rec
	m.mu.Unlock()

	logger.Debug(context.Background(), logger.CompStore, "student.put",
		slog.Int64("user_id", userID),
		slog.String("student_id", rec.StudentID),
		slog.Bool("replaced", replaced),
	)
}

// PutPayment stores rec under userID.
func (m *Memory) PutPayment(userID int64, rec PaymentRecord) {
	m.mu.Lock()
	_, replaced := m.payments[userID]
	m.payments[userID] = rec
	m.mu.Unlock()

	logger.Debug(context.Background(), logger.CompStore, "payment.put",
		slog.Int64("user_id", userID),
		slog.String("reference", rec.Reference),
		slog.Bool("replaced", replaced),
	)
}

// Student returns the student registered by userID.
func (m *Memory) Student(userID int64) (StudentRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.students[userID]
	return rec, ok
}

// Payment returns the payment submitted by userID.
func (m *Memory) Payment(userID int64) (PaymentRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.payments[userID]
	return rec, ok
}

// Students returns all students ordered by registration time.
func (m *Memory) Students() []StudentRecord {
	m.mu.RLock()
	out := make([]StudentRecord, 0, len(m.students))
	for _, rec := range m.students {
		out = append(out, rec)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Payments returns all payments ordered by payment time.
func (m *Memory) Payments() []PaymentRecord {
	m.mu.RLock()
	out := make([]PaymentRecord, 0, len(m.payments))
	for _, rec := range m.payments {
		out = append(out, rec)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.Before(out[j].PaidAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// FindPaymentByStudentID returns the first payment (in payment order) for
// studentID accepted by match. A nil match accepts any payment.
func (m *Memory) FindPaymentByStudentID(studentID string, match func(PaymentRecord) bool) (PaymentRecord, bool) {
	for _, p := range m.Payments() {
		if p.StudentID != studentID {
			continue
		}
		if match == nil || match(p) {
			return p, true
		}
	}
	return PaymentRecord{}, false
}

// PaymentByReference looks a payment up by its generated reference.
func (m *Memory) PaymentByReference(ref string) (PaymentRecord, bool) {
	if ref == "" {
		return PaymentRecord{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.Reference == ref {
			return p, true
		}
	}
	return PaymentRecord{}, false
}

// SetPaymentStatus changes the status of the payment stored under userID and
// returns the updated record.
func (m *Memory) SetPaymentStatus(userID int64, status PaymentStatus) (PaymentRecord, bool) {
	m.mu.Lock()
	rec, ok := m.payments[userID]
	if !ok {
		m.mu.Unlock()
		return PaymentRecord{}, false
	}
	prev := rec.Status
	rec.Status = status
	m.payments[userID] = rec
	m.mu.Unlock()

	logger.Info(context.Background(), logger.CompStore, "payment.status",
		slog.Int64("user_id", userID),
		slog.String("from", string(prev)),
		slog.String("to", string(status)),
	)
	return rec, true
}

// Counts reports the number of stored students and payments.
func (m *Memory) Counts() (students, payments int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), len(m.payments)
}
