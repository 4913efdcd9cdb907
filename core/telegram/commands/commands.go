// Package commands describes slash-commands independently of how they are
// routed.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash-command handler with the metadata routing and the
// command menu need. AdminOnly commands pass the admin gate first.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// InMenu reports whether the command belongs in the public command menu.
func (c Command) InMenu() bool {
	return !c.Hidden && !c.AdminOnly
}
