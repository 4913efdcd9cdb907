// Package cmd holds the process entrypoint shared by bots built on the core:
// load configuration, bootstrap, run until SIGINT/SIGTERM.
package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/placementbot/core/config"
	"github.com/m3rciful/placementbot/core/logger"
	coretelegram "github.com/m3rciful/placementbot/core/telegram"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
	// Context defaults to one cancelled on SIGINT or SIGTERM.
	Context context.Context
}

// Run loads configuration, bootstraps the Telegram app and blocks until the
// bot stops. Any returned error should end the process with a non-zero code.
func Run(opts Options) error {
	switch {
	case opts.LoadConfig == nil:
		return fmt.Errorf("cmd: LoadConfig is required")
	case opts.Bootstrap == nil:
		return fmt.Errorf("cmd: Bootstrap is required")
	}
	startedAt := time.Now()

	// An empty or missing path is fine: everything can come from the environment.
	path := opts.configPath()
	log.Printf("loading config: %q", path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	application, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	defer opts.shutdownLogger()

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	withLifecycleLogs(&runOpts, startedAt)

	ctx := opts.Context
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
	}

	if opts.RunTelegram != nil {
		return opts.RunTelegram(ctx, runOpts)
	}
	return coretelegram.RunTelegram(ctx, runOpts)
}

// configPath prefers the environment variable over DefaultConfigPath.
func (o Options) configPath() string {
	env := o.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	if p := os.Getenv(env); p != "" {
		return p
	}
	return o.DefaultConfigPath
}

func (o Options) shutdownLogger() {
	shutdown := o.ShutdownLogger
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	if err := shutdown(); err != nil {
		log.Printf("logger shutdown error: %v", err)
	}
}

// withLifecycleLogs logs "ready" after the app's OnStart and "shutdown"
// before its OnStop.
func withLifecycleLogs(ro *coretelegram.RunOptions, startedAt time.Time) {
	onStart, onStop := ro.OnStart, ro.OnStop

	ro.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, logger.CompApp, "ready",
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}
	ro.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, logger.CompApp, "shutdown")
		if onStop == nil {
			return nil
		}
		return onStop(ctx, rt)
	}
}
