package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "BOT_TOKEN", "TELEGRAM_ADMIN_IDS", "ADMIN_IDS",
		"TELEGRAM_ADMIN_TELEGRAM_ID", "ADMIN_TELEGRAM_ID",
		"TELEGRAM_RUN_MODE", "RUN_MODE", "METRICS_LISTEN", "SENTRY_DSN",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	// keep a stray .env in the package dir from leaking in
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
telegram:
  token: "123:abc"
  admin_ids: [900, 901]
rate_limit:
  interval_ms: 500
  exclude_updates: ["Photo", " "]
metrics:
  listen: ":9100"
`)
	cfg, err := load(path)
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.Telegram.Token)
	require.Equal(t, []int64{900, 901}, cfg.Telegram.AdminIDs)
	require.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	require.Equal(t, []string{UpdatePhoto}, cfg.RateLimit.ExcludeUpdates)
	require.Equal(t, ":9100", cfg.Metrics.Listen)
	require.Same(t, cfg, cfg.CoreConfig())
}

func TestLoadEnvOverridesAndAliases(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, "telegram:\n  token: from-file\n")
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("ADMIN_IDS", "5,6")

	cfg, err := load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Telegram.Token)
	require.Equal(t, []int64{5, 6}, cfg.Telegram.AdminIDs)

	t.Setenv("TELEGRAM_BOT_TOKEN", "prefixed")
	cfg, err = load(path)
	require.NoError(t, err)
	require.Equal(t, "prefixed", cfg.Telegram.Token)
}

func TestLoadSingleAdminTelegramID(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "t")
	t.Setenv("ADMIN_TELEGRAM_ID", "77")

	cfg, err := load("")
	require.NoError(t, err)
	require.Equal(t, []int64{77}, cfg.Telegram.AdminIDs)

	t.Setenv("ADMIN_IDS", "5,77")
	cfg, err = load("")
	require.NoError(t, err)
	require.Equal(t, []int64{5, 77}, cfg.Telegram.AdminIDs)
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "env-only")
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "env-only", cfg.Telegram.Token)
	require.Empty(t, cfg.Telegram.AdminIDs)
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("BOT_TOKEN=dotenv-token\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BOT_TOKEN") })

	cfg, err := load("")
	require.NoError(t, err)
	require.Equal(t, "dotenv-token", cfg.Telegram.Token)
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"missing token":    {},
		"bad run mode":     {Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}},
		"webhook no url":   {Telegram: TelegramConfig{Token: "t", RunMode: RunModeWebhook}},
		"negative retries": {Telegram: TelegramConfig{Token: "t", HTTPRetries: -1}},
		"unknown exclude":  {Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"callback"}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, Normalize(&cfg))
		})
	}
	require.Error(t, Normalize(nil))
}

func TestNormalizeWebhook(t *testing.T) {
	cfg := Config{
		Telegram: TelegramConfig{Token: "t", RunMode: " Webhook "},
		Webhook:  WebhookConfig{URL: "https://bot.example.org/hook", Port: 8443},
	}
	require.NoError(t, Normalize(&cfg))
	require.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
}

func load(path string) (*Config, error) {
	var cfg Config
	if err := LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
