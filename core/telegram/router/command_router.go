package router

import (
	"context"
	"log/slog"
	"sort"

	"github.com/m3rciful/placementbot/core/logger"
	tg "github.com/m3rciful/placementbot/core/telegram"
	"github.com/m3rciful/placementbot/core/telegram/commands"
	"github.com/m3rciful/placementbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	Admin middleware.AdminOptions
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	names := make([]string, 0, len(reg.Commands()))
	for name := range reg.Commands() {
		names = append(names, name)
	}
	sort.Strings(names)

	routes := make([]tg.Route, 0, len(names))
	admin := 0
	for _, name := range names {
		def := reg.Commands()[name]
		if def.AdminOnly {
			admin++
		}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  wrapCommand(name, def, opts.Admin),
		})
	}

	logger.Info(context.Background(), logger.CompWire, "commands",
		slog.String("status", "ok"),
		slog.Int("commands", len(routes)),
		slog.Int("admin_commands", admin),
	)

	return routes
}

func wrapCommand(name string, def commands.Command, admin middleware.AdminOptions) tele.HandlerFunc {
	handlerName := "cmd." + normalizeHandlerName(name)
	h := def.Handler
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(admin)(h)
	}
	inner := h
	h = func(c tele.Context) error {
		return handleWithSummary(c, handlerName, c.Get("update_start"), func() error {
			return inner(c)
		})
	}
	h = middleware.LoggerMiddleware(h)
	return middleware.RecoverMiddleware(h)
}
