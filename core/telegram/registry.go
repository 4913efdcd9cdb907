package telegram

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/placementbot/core/logger"
	"github.com/m3rciful/placementbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds the bot's slash-commands.
type Registry struct {
	commands map[string]commands.Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]commands.Command)}
}

// RegisterCommand adds cmd under name ("/start"). Invalid and duplicate
// registrations are logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	skip := func(reason string) {
		logger.Warn(context.Background(), logger.CompWire, "register.command.skip",
			slog.String("name", name),
			slog.String("cause", reason),
		)
	}
	switch {
	case r == nil:
		return
	case name == "" || cmd.Handler == nil || cmd.Description == "":
		skip("invalid")
		return
	case !strings.HasPrefix(name, "/"):
		skip("no_slash_prefix")
		return
	}
	if _, exists := r.commands[name]; exists {
		skip("duplicate")
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns the commands sorted by name. With visibleOnly, hidden
// and admin-only commands are left out so the public menu stays short.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for name, meta := range r.commands {
		if visibleOnly && !meta.InMenu() {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves the first word of text to a registered command,
// accepting aliases and a trailing "@botname". It returns the canonical name.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	name := CommandName(text)
	if name == "" {
		return "", commands.Command{}, false
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// CommandName extracts "/cmd" from "/cmd@bot args". Text that does not start
// with a slash yields "".
func CommandName(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// InitBotCommands publishes the visible commands to the Telegram menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.Error(context.Background(), logger.CompWire, "register.commands.set",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}
