package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when an update matches neither a
// registered command nor the running dialogue.
type FallbackProvider interface {
	UnknownCommand() tele.HandlerFunc
	UnknownMedia() tele.HandlerFunc
}
