// Package state provides a lightweight per-user session manager for Telegram bots.
// It is domain-agnostic: callers choose the session payload type.
package state
