package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/placementbot/core/config"
	coretelegram "github.com/m3rciful/placementbot/core/telegram"
	"github.com/m3rciful/placementbot/internal/admin"
	"github.com/m3rciful/placementbot/internal/apperr"
	"github.com/m3rciful/placementbot/internal/store"
)

const (
	adminID   int64 = 900
	studentID int64 = 42
)

func newTestApp(t *testing.T) (*App, *fakeBot) {
	t.Helper()
	cfg := &Config{
		Config: coreconfig.Config{
			Telegram: coreconfig.TelegramConfig{Token: "123:abc", AdminIDs: []int64{adminID}},
		},
		Payment: PaymentConfig{AccessLink: "https://t.me/+placement"},
		Session: SessionConfig{TTL: time.Hour, SweepInterval: time.Minute},
	}
	a, err := New(cfg)
	require.NoError(t, err)
	a.handlers.now = func() time.Time { return time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC) }
	bot := &fakeBot{}
	a.Notifier.Bind(bot)
	return a, bot
}

func register(t *testing.T, a *App, userID int64, sid string) *fakeContext {
	t.Helper()
	h := a.handlers
	require.NoError(t, h.start(textFrom(userID, "/start")))
	for _, in := range []string{sid, "Abebe Kebede", "abebe@x.edu", "FN-1", "1", "FT123"} {
		require.NoError(t, h.HandleText(textFrom(userID, in)))
	}
	c := photoFrom(userID, "photo-"+sid)
	require.NoError(t, h.HandlePhoto(c))
	return c
}

func TestRegistrationDialogue(t *testing.T) {
	a, bot := newTestApp(t)
	h := a.handlers

	start := textFrom(studentID, "/start")
	require.NoError(t, h.start(start))
	require.Contains(t, start.lastText(), "Student ID")
	require.True(t, a.Sessions.InProgress(studentID))

	for _, in := range []string{"S1001", "Abebe Kebede", "abebe@x.edu"} {
		require.NoError(t, h.HandleText(textFrom(studentID, in)))
	}
	section := textFrom(studentID, "FN-1")
	require.NoError(t, h.HandleText(section))
	require.Contains(t, section.lastText(), "payment method")
	require.Len(t, section.opts[0], 1)
	markup := section.opts[0][0].(*tele.SendOptions).ReplyMarkup
	require.Equal(t, "1", markup.ReplyKeyboard[0][0].Text)

	bad := textFrom(studentID, "3")
	require.NoError(t, h.HandleText(bad))
	require.Contains(t, bad.lastText(), `"1" for CBE`)

	require.NoError(t, h.HandleText(textFrom(studentID, "2")))
	require.NoError(t, h.HandleText(textFrom(studentID, "FT123")))

	notPhoto := textFrom(studentID, "here it is")
	require.NoError(t, h.HandleText(notPhoto))
	require.Contains(t, notPhoto.lastText(), "photo")

	done := photoFrom(studentID, "photo-file")
	require.NoError(t, h.HandlePhoto(done))
	require.Contains(t, done.lastText(), "Registration and Payment Successful")
	require.False(t, a.Sessions.InProgress(studentID))

	s, ok := a.Records.Student(studentID)
	require.True(t, ok)
	p, ok := a.Records.Payment(studentID)
	require.True(t, ok)
	require.Equal(t, "S1001", s.StudentID)
	require.Equal(t, s.StudentID, p.StudentID)
	require.Equal(t, store.MethodTeleBirr, p.Method)
	require.Equal(t, store.StatusPending, p.Status)
	require.Equal(t, 100, p.Amount)

	msgs := bot.messages()
	require.Len(t, msgs, 2)
	require.Equal(t, adminID, msgs[0].to)
	require.Contains(t, msgs[0].what, "/verify 42")
	photo, ok := msgs[1].what.(*tele.Photo)
	require.True(t, ok)
	require.Equal(t, "photo-file", photo.FileID)
}

func TestFirstMessageOpensSession(t *testing.T) {
	a, _ := newTestApp(t)
	c := textFrom(7, "S7")
	require.NoError(t, a.handlers.HandleText(c))
	require.True(t, a.Sessions.InProgress(7))
	require.Contains(t, c.lastText(), "full name")
}

func TestRegistrationSurvivesNotificationFailure(t *testing.T) {
	a, bot := newTestApp(t)
	bot.err = errors.New("Forbidden: bot was blocked by the user")

	c := register(t, a, studentID, "S1001")
	require.Contains(t, c.lastText(), "Registration and Payment Successful")
	_, ok := a.Records.Payment(studentID)
	require.True(t, ok)
}

func TestStatus(t *testing.T) {
	a, _ := newTestApp(t)

	c := textFrom(studentID, "/status")
	err := a.handlers.status(c)
	require.True(t, apperr.Is(err, apperr.NotFound))
	require.Contains(t, c.lastText(), "/start")

	register(t, a, studentID, "S1001")
	c = textFrom(studentID, "/status")
	require.NoError(t, a.handlers.status(c))
	require.Contains(t, c.lastText(), "awaiting verification")
}

func TestVerifyFlow(t *testing.T) {
	a, bot := newTestApp(t)
	register(t, a, studentID, "S1001")

	c := textFrom(adminID, "/verify 42")
	require.NoError(t, a.handlers.verify(c))
	require.Contains(t, c.lastText(), "S1001")

	p, _ := a.Records.Payment(studentID)
	require.True(t, p.Verified())

	msgs := bot.messages()
	last := msgs[len(msgs)-1]
	require.Equal(t, studentID, last.to)
	require.Contains(t, last.what, "https://t.me/+placement")

	status := textFrom(studentID, "/status")
	require.NoError(t, a.handlers.status(status))
	require.Contains(t, status.lastText(), "verified")
}

func TestVerifyReportsUndeliveredAccessMessage(t *testing.T) {
	a, bot := newTestApp(t)
	register(t, a, studentID, "S1001")
	bot.err = errors.New("Forbidden: bot was blocked by the user")

	c := textFrom(adminID, "/verify 42")
	require.NoError(t, a.handlers.verify(c))
	require.Contains(t, c.lastText(), "could not be delivered")
	require.NotContains(t, c.lastText(), "has been notified")

	p, _ := a.Records.Payment(studentID)
	require.True(t, p.Verified())
}

func TestVerifyErrors(t *testing.T) {
	a, _ := newTestApp(t)

	missing := textFrom(adminID, "/verify")
	err := a.handlers.verify(missing)
	require.True(t, apperr.Is(err, apperr.MalformedInput))
	require.Equal(t, verifyUsage, missing.lastText())

	unknown := textFrom(adminID, "/verify 77")
	err = a.handlers.verify(unknown)
	require.True(t, apperr.Is(err, apperr.NotFound))
	require.Equal(t, "Student or payment record not found.", unknown.lastText())

	outsider := textFrom(5, "/verify 42")
	err = a.handlers.verify(outsider)
	require.True(t, apperr.Is(err, apperr.Unauthorized))
	require.Equal(t, "Unauthorized access.", outsider.lastText())
}

func TestParseVerifyTarget(t *testing.T) {
	cases := []struct {
		text string
		id   int64
		ref  string
		ok   bool
	}{
		{"/verify 42", 42, "", true},
		{"/verify@placementbot   42 extra", 42, "", true},
		{"/verify hups-123456-abcdef01", 0, "HUPS-123456-ABCDEF01", true},
		{"/verify", 0, "", false},
		{"/verify -3", 0, "", false},
	}
	for _, tc := range cases {
		id, ref, err := parseVerifyTarget(tc.text)
		if !tc.ok {
			require.True(t, apperr.Is(err, apperr.MalformedInput), tc.text)
			continue
		}
		require.NoError(t, err, tc.text)
		require.Equal(t, tc.id, id)
		require.Equal(t, tc.ref, ref)
	}
}

func TestVerifyByReference(t *testing.T) {
	a, _ := newTestApp(t)
	register(t, a, studentID, "S1001")
	p, _ := a.Records.Payment(studentID)

	c := textFrom(adminID, "/verify "+strings.ToLower(p.Reference))
	require.NoError(t, a.handlers.verify(c))
	p, _ = a.Records.Payment(studentID)
	require.True(t, p.Verified())

	bad := textFrom(adminID, "/verify abc")
	require.True(t, apperr.Is(a.handlers.verify(bad), apperr.MalformedInput))

	unknown := textFrom(adminID, "/verify HUPS-000000-00000000")
	require.True(t, apperr.Is(a.handlers.verify(unknown), apperr.NotFound))
}

func TestAdminCommands(t *testing.T) {
	a, _ := newTestApp(t)
	register(t, a, studentID, "S1001")
	register(t, a, 43, "S1002")

	dash := textFrom(adminID, "/admin")
	require.NoError(t, a.handlers.dashboard(dash))
	require.Contains(t, dash.lastText(), "/verify")

	stats := textFrom(adminID, "/stats")
	require.NoError(t, a.handlers.stats(stats))
	require.Contains(t, stats.lastText(), "Total Students Registered: 2")
	require.Contains(t, stats.lastText(), "Total Amount Collected: 200 ETB")

	list := textFrom(adminID, "/list")
	require.NoError(t, a.handlers.list(list))
	require.Contains(t, list.lastText(), "S1002")

	export := textFrom(adminID, "/export")
	require.NoError(t, a.handlers.export(export))
	require.Len(t, export.sent, 1)
	doc, ok := export.sent[0].(*tele.Document)
	require.True(t, ok)
	require.Equal(t, admin.ExportFileName(a.handlers.now()), doc.FileName)
}

func TestAdminRejectReply(t *testing.T) {
	a, _ := newTestApp(t)
	c := textFrom(5, "/stats")
	err := a.adminOptions().OnReject(c)
	require.True(t, apperr.Is(err, apperr.Unauthorized))
	require.Equal(t, "Unauthorized access.", c.lastText())
	require.False(t, a.adminOptions().Allow.Allows(5))
	require.True(t, a.adminOptions().Allow.Allows(adminID))
}

func TestFallbacks(t *testing.T) {
	c := textFrom(1, "/nope")
	require.NoError(t, fallbacks{}.UnknownCommand()(c))
	require.Equal(t, unknownCommand, c.lastText())

	d := textFrom(1, "")
	require.NoError(t, fallbacks{}.UnknownMedia()(d))
	require.Equal(t, unexpectedMedia, d.lastText())
}

func TestTelegramRunOptionsAndLifecycle(t *testing.T) {
	a, _ := newTestApp(t)
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	require.Same(t, &a.cfg.Config, opts.Config)
	require.Len(t, opts.Registry.Commands(), 7)
	require.Len(t, opts.Routes, 7+3)
	require.NotEmpty(t, opts.Middlewares)

	visible := opts.Registry.ListCommands(true)
	require.Len(t, visible, 2)

	stopped := false
	a.OnStop(func() { stopped = true })

	require.Error(t, a.Health(context.Background()))
	require.NoError(t, opts.OnStart(context.Background(), coretelegram.Runtime{}))
	require.NoError(t, a.Health(context.Background()))
	require.NoError(t, opts.OnStop(context.Background(), coretelegram.Runtime{}))
	require.Error(t, a.Health(context.Background()))
	require.True(t, stopped)
}

func TestNotifierWithoutBot(t *testing.T) {
	n := &Notifier{}
	err := n.NotifyText(context.Background(), 1, "hi")
	require.True(t, apperr.Is(err, apperr.TransportFailure))
}

func TestLoadConfig(t *testing.T) {
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "BOT_TOKEN", "TELEGRAM_ADMIN_IDS", "ADMIN_IDS",
		"PAYMENT_ACCESS_LINK", "ACCESS_LINK", "SESSION_SESSION_TTL", "SESSION_TTL",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: "123:abc"
  admin_ids: [900]
payment:
  cbe_account: "1000"
  access_link: "https://t.me/+yaml"
session:
  ttl: 2h
`), 0o600))
	t.Setenv("ACCESS_LINK", "https://t.me/+env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.Telegram.Token)
	require.Equal(t, []int64{900}, cfg.Telegram.AdminIDs)
	require.Equal(t, "1000", cfg.Payment.CBEAccount)
	require.Equal(t, "https://t.me/+env", cfg.Payment.AccessLink)
	require.Equal(t, 2*time.Hour, cfg.Session.TTL)
	require.Equal(t, defaultSweepInterval, cfg.Session.SweepInterval)
	require.Equal(t, "HUPS", cfg.Payment.ReferencePrefix)
	require.Same(t, &cfg.Config, cfg.CoreConfig())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
