// Package app wires the registration bot: record store, dialogue sessions,
// admin operations and the Telegram routes that reach them.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/placementbot/core/logger"
	"github.com/m3rciful/placementbot/core/metrics"
	coretelegram "github.com/m3rciful/placementbot/core/telegram"
	"github.com/m3rciful/placementbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/placementbot/core/telegram/helpers"
	"github.com/m3rciful/placementbot/core/telegram/middleware"
	"github.com/m3rciful/placementbot/core/telegram/router"
	"github.com/m3rciful/placementbot/core/telegram/state"
	"github.com/m3rciful/placementbot/internal/admin"
	"github.com/m3rciful/placementbot/internal/apperr"
	"github.com/m3rciful/placementbot/internal/reference"
	"github.com/m3rciful/placementbot/internal/registration"
	"github.com/m3rciful/placementbot/internal/store"

	tele "gopkg.in/telebot.v4"
)

const (
	rateLimitedText = "Please slow down a little and try again."
)

var errNotReady = errors.New("bot not started")

// App holds the long-lived services. It is built once per process.
type App struct {
	cfg *Config

	Records  *store.Memory
	Sessions *state.Memory[*registration.Session]
	Notifier *Notifier

	registration *registration.Service
	admin        *admin.Service
	allow        admin.AllowList
	registry     *coretelegram.Registry
	handlers     *handlers

	ready       atomic.Bool
	stopSweeper context.CancelFunc
	sweeperDone sync.WaitGroup
	onStop      []func()
}

// New builds the application graph from cfg.
func New(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}

	a := &App{
		cfg:      cfg,
		Records:  store.NewMemory(),
		Notifier: &Notifier{},
		allow:    admin.NewAllowList(cfg.Telegram.AdminIDs...),
	}
	a.Sessions = state.NewMemory[*registration.Session](state.Options{
		TTL: cfg.Session.TTL,
		OnExpire: func(userID int64) {
			metrics.SessionsExpired.Inc()
			logger.Debug(context.Background(), logger.CompRegistration, "session.expired",
				slog.Int64("user_id", userID),
			)
		},
	})
	if err := metrics.RegisterGauge("registration_sessions_active", "Open registration dialogues",
		func() float64 { return float64(a.Sessions.Len()) }); err != nil {
		return nil, err
	}

	refs := reference.New(cfg.Payment.ReferencePrefix)
	a.registration = registration.NewService(registration.Options{
		Sessions:   a.Sessions,
		Records:    a.Records,
		References: refs,
		Notifier:   a.Notifier,
		Admins:     a.allow.IDs(),
		Texts: registration.Texts{
			CBEAccount:      cfg.Payment.CBEAccount,
			TeleBirrAccount: cfg.Payment.TeleBirrAccount,
		},
	})
	a.admin = admin.NewService(admin.Options{
		Allow:      a.allow,
		Records:    a.Records,
		Notifier:   a.Notifier,
		AccessLink: cfg.Payment.AccessLink,
	})
	a.handlers = &handlers{
		reg:   a.registration,
		admin: a.admin,
		now:   time.Now,
		refs:  refs,
		byReference: func(ref string) (int64, bool) {
			p, ok := a.Records.PaymentByReference(ref)
			return p.UserID, ok
		},
	}
	a.registry = a.buildRegistry()

	if a.allow.Empty() {
		logger.Warn(context.Background(), logger.CompApp, "admin.allowlist",
			slog.String("status", "skip"),
			slog.String("cause", "empty admin list, admin commands disabled"),
		)
	}
	return a, nil
}

// OnStop registers fn to run after the bot stops, in reverse order.
func (a *App) OnStop(fn func()) {
	if fn != nil {
		a.onStop = append(a.onStop, fn)
	}
}

// Health reports whether the bot is running. It backs /healthz.
func (a *App) Health(context.Context) error {
	if !a.ready.Load() {
		return errNotReady
	}
	return nil
}

func (a *App) buildRegistry() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	h := a.handlers
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.start,
		Description: "Start or restart registration",
	})
	reg.RegisterCommand("/status", commands.Command{
		Handler:     h.status,
		Description: "Check your payment status",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler: h.dashboard, Description: "Admin dashboard", AdminOnly: true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler: h.stats, Description: "Registration statistics", AdminOnly: true,
	})
	reg.RegisterCommand("/list", commands.Command{
		Handler: h.list, Description: "List registered students", AdminOnly: true,
	})
	reg.RegisterCommand("/verify", commands.Command{
		Handler: h.verify, Description: "Verify a payment", AdminOnly: true,
	})
	reg.RegisterCommand("/export", commands.Command{
		Handler: h.export, Description: "Download registrations as a spreadsheet", AdminOnly: true,
	})
	return reg
}

func (a *App) adminOptions() middleware.AdminOptions {
	return middleware.AdminOptions{
		Allow: a.allow,
		OnReject: func(c tele.Context) error {
			return fail(c, apperr.New(apperr.Unauthorized, "admin", ""))
		},
	}
}

// TelegramRunOptions assembles middlewares, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	adminOpts := a.adminOptions()
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{Admin: adminOpts})
	routes = append(routes, router.MessageRoutes(a.handlers, a.registry, router.MessageOptions{
		Fallback: fallbacks{},
		Admin:    adminOpts,
	})...)

	return coretelegram.RunOptions{
		Config:   &a.cfg.Config,
		Registry: a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, func(c tele.Context) error {
			return tghelpers.SendText(c, rateLimitedText)
		}),
		Routes:  routes,
		OnStart: a.start,
		OnStop:  a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	if rt.Bot != nil {
		a.Notifier.Bind(rt.Bot)
	}

	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopSweeper = cancel
	a.sweeperDone.Add(1)
	go func() {
		defer a.sweeperDone.Done()
		a.Sessions.RunSweeper(sweepCtx, a.cfg.Session.SweepInterval)
	}()

	a.ready.Store(true)
	logger.Info(ctx, logger.CompApp, "services",
		slog.String("status", "ok"),
		slog.Int("admins", len(a.allow.IDs())),
		slog.Duration("session_ttl", a.cfg.Session.TTL),
		slog.Duration("sweep_interval", a.cfg.Session.SweepInterval),
	)
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	a.ready.Store(false)
	if a.stopSweeper != nil {
		a.stopSweeper()
		a.sweeperDone.Wait()
	}
	students, payments := a.Records.Counts()
	logger.Info(ctx, logger.CompApp, "services.stop",
		slog.Int("students", students),
		slog.Int("payments", payments),
		slog.Int("pending_count", a.Sessions.Len()),
	)
	for i := len(a.onStop) - 1; i >= 0; i-- {
		a.onStop[i]()
	}
	return nil
}
