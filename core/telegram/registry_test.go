package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/placementbot/core/config"
	"github.com/m3rciful/placementbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Begin registration"})
	reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Statistics", AdminOnly: true})
	reg.RegisterCommand("/status", commands.Command{Handler: noop, Description: "Payment status", Aliases: []string{"me"}})
	reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "duplicate"})
	reg.RegisterCommand("/empty", commands.Command{Description: "no handler"})

	require.Len(t, reg.Commands(), 3)
	require.Equal(t, "Begin registration", reg.Commands()["/start"].Description)

	visible := reg.ListCommands(true)
	require.Equal(t, []tele.Command{
		{Text: "/start", Description: "Begin registration"},
		{Text: "/status", Description: "Payment status"},
	}, visible)
	require.Len(t, reg.ListCommands(false), 3)
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/verify", commands.Command{Handler: noop, Description: "Verify", AdminOnly: true})
	reg.RegisterCommand("/status", commands.Command{Handler: noop, Description: "Status", Aliases: []string{"me"}})

	name, _, ok := reg.LookupCommand("/verify@placement_bot 42")
	require.True(t, ok)
	require.Equal(t, "/verify", name)

	name, _, ok = reg.LookupCommand("/me")
	require.True(t, ok)
	require.Equal(t, "/status", name)

	_, _, ok = reg.LookupCommand("verify 42")
	require.False(t, ok)
	_, _, ok = reg.LookupCommand("/unknown")
	require.False(t, ok)
}

func TestCommandName(t *testing.T) {
	require.Equal(t, "/start", CommandName("  /Start@Bot  "))
	require.Equal(t, "/verify", CommandName("/verify 42"))
	require.Equal(t, "", CommandName("Jane Doe"))
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(mws []Middleware) []string {
		var out []string
		for _, m := range mws {
			out = append(out, m.Name)
		}
		return out
	}

	require.Equal(t, []string{"recover", "logger", "metrics"}, names(DefaultMiddlewares(nil, nil)))

	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{
		IntervalMS:     500,
		ExcludeUpdates: []string{" Command "},
	}}
	require.Equal(t, []string{"recover", "rate_limit", "logger", "metrics"}, names(DefaultMiddlewares(cfg, nil)))

	rl, ok := rateLimitOptions(cfg)
	require.True(t, ok)
	require.Equal(t, 500*time.Millisecond, rl.Interval)
	require.Contains(t, rl.Exclude, "command")
}
