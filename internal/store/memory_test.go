package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryPutAndGet(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	m.PutStudent(7, StudentRecord{UserID: 7, StudentID: "S1", FullName: "Abebe", RegisteredAt: now})
	m.PutPayment(7, PaymentRecord{UserID: 7, StudentID: "S1", Reference: "HUPS-000001-0000000A", Amount: DefaultAmount, Method: MethodCBE, Status: StatusPending, PaidAt: now})

	s, ok := m.Student(7)
	require.True(t, ok)
	require.Equal(t, "Abebe", s.FullName)

	p, ok := m.Payment(7)
	require.True(t, ok)
	require.Equal(t, MethodCBE, p.Method)

	_, ok = m.Student(8)
	require.False(t, ok)
	_, ok = m.Payment(8)
	require.False(t, ok)

	byRef, ok := m.PaymentByReference("HUPS-000001-0000000A")
	require.True(t, ok)
	require.Equal(t, int64(7), byRef.UserID)
	_, ok = m.PaymentByReference("")
	require.False(t, ok)
}

func TestMemoryLastWriteWins(t *testing.T) {
	m := NewMemory()
	m.PutStudent(1, StudentRecord{StudentID: "old"})
	m.PutStudent(1, StudentRecord{StudentID: "new"})

	s, _ := m.Student(1)
	require.Equal(t, "new", s.StudentID)
	students, payments := m.Counts()
	require.Equal(t, 1, students)
	require.Equal(t, 0, payments)
}

func TestMemoryOrderingAndFind(t *testing.T) {
	m := NewMemory()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m.PutStudent(3, StudentRecord{UserID: 3, StudentID: "C", RegisteredAt: base.Add(2 * time.Minute)})
	m.PutStudent(1, StudentRecord{UserID: 1, StudentID: "A", RegisteredAt: base})
	m.PutStudent(2, StudentRecord{UserID: 2, StudentID: "B", RegisteredAt: base.Add(time.Minute)})

	got := m.Students()
	require.Len(t, got, 3)
	require.Equal(t, []string{"A", "B", "C"}, []string{got[0].StudentID, got[1].StudentID, got[2].StudentID})

	m.PutPayment(1, PaymentRecord{UserID: 1, StudentID: "A", Method: MethodPending, PaidAt: base})
	m.PutPayment(2, PaymentRecord{UserID: 2, StudentID: "A", Method: MethodSubmitted, PaidAt: base.Add(time.Second)})

	p, ok := m.FindPaymentByStudentID("A", func(p PaymentRecord) bool { return p.Method == MethodSubmitted })
	require.True(t, ok)
	require.Equal(t, int64(2), p.UserID)

	p, ok = m.FindPaymentByStudentID("A", nil)
	require.True(t, ok)
	require.Equal(t, int64(1), p.UserID)

	_, ok = m.FindPaymentByStudentID("A", func(p PaymentRecord) bool { return p.Method == MethodCompleted })
	require.False(t, ok)
}

func TestMemorySetPaymentStatus(t *testing.T) {
	m := NewMemory()
	_, ok := m.SetPaymentStatus(5, StatusVerified)
	require.False(t, ok)

	m.PutPayment(5, PaymentRecord{UserID: 5, Amount: DefaultAmount, Method: MethodTeleBirr, Status: StatusPending})
	rec, ok := m.SetPaymentStatus(5, StatusVerified)
	require.True(t, ok)
	require.True(t, rec.Verified())
	require.Equal(t, MethodTeleBirr, rec.Method)
	require.Equal(t, DefaultAmount, rec.Amount)

	stored, _ := m.Payment(5)
	require.Equal(t, StatusVerified, stored.Status)
}

func TestMemoryConcurrentWriters(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.PutStudent(id, StudentRecord{UserID: id})
			m.PutPayment(id, PaymentRecord{UserID: id})
			_ = m.Students()
		}(i)
	}
	wg.Wait()

	students, payments := m.Counts()
	require.Equal(t, 50, students)
	require.Equal(t, 50, payments)
}
