package registration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/placementbot/core/telegram/state"
	"github.com/m3rciful/placementbot/internal/apperr"
	"github.com/m3rciful/placementbot/internal/reference"
	"github.com/m3rciful/placementbot/internal/store"
)

type sentText struct {
	to   int64
	text string
}

type sentPhoto struct {
	to      int64
	fileID  string
	caption string
}

type fakeNotifier struct {
	mu       sync.Mutex
	texts    []sentText
	photos   []sentPhoto
	failText error
}

func (f *fakeNotifier) NotifyText(_ context.Context, to int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failText != nil {
		return f.failText
	}
	f.texts = append(f.texts, sentText{to: to, text: text})
	return nil
}

func (f *fakeNotifier) NotifyPhoto(_ context.Context, to int64, fileID, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentPhoto{to: to, fileID: fileID, caption: caption})
	return nil
}

type failingRefs struct{}

func (failingRefs) Generate(string) (string, error) { return "", errors.New("no entropy") }

var fixedNow = time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, notifier Notifier, admins ...int64) (*Service, *store.Memory, *state.Memory[*Session]) {
	t.Helper()
	records := store.NewMemory()
	sessions := state.NewMemory[*Session](state.Options{})
	refs := reference.New(reference.DefaultPrefix)
	refs.Now = func() time.Time { return fixedNow }

	svc := NewService(Options{
		Sessions:   sessions,
		Records:    records,
		References: refs,
		Notifier:   notifier,
		Admins:     admins,
		Now:        func() time.Time { return fixedNow },
		NewID:      func() string { return "pay-1" },
	})
	return svc, records, sessions
}

func feed(t *testing.T, svc *Service, userID int64, inputs ...Input) Outcome {
	t.Helper()
	var out Outcome
	for _, in := range inputs {
		var err error
		out, err = svc.Handle(context.Background(), userID, in)
		require.NoError(t, err)
	}
	return out
}

func janeDoe() []Input {
	return []Input{
		{Text: "S1001"},
		{Text: "Jane Doe"},
		{Text: "jane@x.edu"},
		{Text: "FN-1"},
		{Text: "1"},
		{Text: "FT123456"},
		{PhotoFileID: "file-abc"},
	}
}

func TestServiceEndToEnd(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, records, sessions := newTestService(t, notifier, 900, 901)

	out := feed(t, svc, 42, janeDoe()...)
	require.True(t, out.Completed)
	require.False(t, sessions.InProgress(42))

	student, ok := records.Student(42)
	require.True(t, ok)
	require.Equal(t, store.StudentRecord{
		UserID:       42,
		StudentID:    "S1001",
		FullName:     "Jane Doe",
		Email:        "jane@x.edu",
		Section:      "FN-1",
		RegisteredAt: fixedNow,
	}, student)

	payment, ok := records.Payment(42)
	require.True(t, ok)
	require.Equal(t, "S1001", payment.StudentID)
	require.Equal(t, student.StudentID, payment.StudentID)
	require.Equal(t, "FT123456", payment.FTNumber)
	require.Equal(t, store.MethodCBE, payment.Method)
	require.Equal(t, 100, payment.Amount)
	require.Equal(t, store.StatusPending, payment.Status)
	require.Equal(t, "file-abc", payment.ScreenshotFileID)
	require.Equal(t, "pay-1", payment.ID)
	require.True(t, reference.Validate(payment.Reference), payment.Reference)

	require.Len(t, out.Replies, 1)
	require.Contains(t, out.Replies[0].Text, "Registration and Payment Successful")
	require.Contains(t, out.Replies[0].Text, payment.Reference)

	students, payments := records.Counts()
	require.Equal(t, 1, students)
	require.Equal(t, 1, payments)

	require.Len(t, notifier.texts, 2)
	require.Len(t, notifier.photos, 2)
	for i, admin := range []int64{900, 901} {
		require.Equal(t, admin, notifier.texts[i].to)
		require.Contains(t, notifier.texts[i].text, "/verify 42")
		require.Equal(t, admin, notifier.photos[i].to)
		require.Equal(t, "file-abc", notifier.photos[i].fileID)
		require.Contains(t, notifier.photos[i].caption, "Jane Doe")
	}
}

func TestServiceCompletionSignalledOnce(t *testing.T) {
	svc, records, _ := newTestService(t, nil)
	inputs := janeDoe()

	completions := 0
	for _, in := range inputs {
		out, err := svc.Handle(context.Background(), 7, in)
		require.NoError(t, err)
		if out.Completed {
			completions++
		}
	}
	require.Equal(t, 1, completions)

	// the next message opens a fresh dialogue instead of re-completing
	out, err := svc.Handle(context.Background(), 7, Input{PhotoFileID: "file-abc"})
	require.NoError(t, err)
	require.False(t, out.Completed)
	require.Equal(t, askStudentID, out.Replies[0].Text)
	students, payments := records.Counts()
	require.Equal(t, 1, students)
	require.Equal(t, 1, payments)
}

func TestServiceAdminNotificationFailureDoesNotRollBack(t *testing.T) {
	notifier := &fakeNotifier{failText: errors.New("chat not found")}
	svc, records, _ := newTestService(t, notifier, 900)

	out := feed(t, svc, 11, janeDoe()...)
	require.True(t, out.Completed)
	_, ok := records.Payment(11)
	require.True(t, ok)
	require.Len(t, notifier.photos, 1)
}

func TestServiceReferenceFailureKeepsSession(t *testing.T) {
	records := store.NewMemory()
	sessions := state.NewMemory[*Session](state.Options{})
	svc := NewService(Options{Sessions: sessions, Records: records, References: failingRefs{}})

	inputs := janeDoe()
	feed(t, svc, 5, inputs[:6]...)
	_, err := svc.Handle(context.Background(), 5, inputs[6])
	require.ErrorContains(t, err, "no entropy")

	require.Equal(t, StepScreenshot, sessionOf(t, sessions, 5).Step())
	students, _ := records.Counts()
	require.Zero(t, students)
}

func TestServiceStartResetsDialogue(t *testing.T) {
	svc, _, sessions := newTestService(t, nil)
	feed(t, svc, 3, Input{Text: "S1"}, Input{Text: "Name"})

	before := sessionOf(t, sessions, 3)
	require.Equal(t, "Name", before.Draft.FullName)

	out, err := svc.Start(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.Replies[0].Text, "Welcome"))
	sess := sessionOf(t, sessions, 3)
	require.NotSame(t, before, sess)
	require.Equal(t, StepStart, sess.Step())
	require.Equal(t, Draft{}, sess.Draft)
	require.True(t, svc.InProgress(3))
	require.Equal(t, 1, sessions.Len())
}

func TestServiceUsersAreIndependent(t *testing.T) {
	svc, records, _ := newTestService(t, nil)
	var wg sync.WaitGroup
	for id := int64(1); id <= 20; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for _, in := range janeDoe() {
				_, _ = svc.Handle(context.Background(), id, in)
			}
		}(id)
	}
	wg.Wait()

	students, payments := records.Counts()
	require.Equal(t, 20, students)
	require.Equal(t, 20, payments)
}

func TestServiceStatus(t *testing.T) {
	svc, records, _ := newTestService(t, nil)

	_, err := svc.Status(context.Background(), 8)
	require.True(t, apperr.Is(err, apperr.NotFound))

	feed(t, svc, 8, janeDoe()...)
	msg, err := svc.Status(context.Background(), 8)
	require.NoError(t, err)
	require.Contains(t, msg, "awaiting verification")

	records.SetPaymentStatus(8, store.StatusVerified)
	msg, err = svc.Status(context.Background(), 8)
	require.NoError(t, err)
	require.Contains(t, msg, "verified")
	require.Contains(t, msg, "2025-02-10")
}

// sessionOf returns the open session of userID without creating one.
func sessionOf(t *testing.T, sessions *state.Memory[*Session], userID int64) *Session {
	t.Helper()
	var sess *Session
	require.NoError(t, sessions.Do(userID, nil, func(s *Session) (bool, error) {
		sess = s
		return false, nil
	}))
	return sess
}
