package middleware

import tele "gopkg.in/telebot.v4"

// Allower decides whether a user may run admin-only handlers.
type Allower interface {
	Allows(userID int64) bool
}

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	Allow    Allower
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only allowed users through. A nil Allow rejects
// everyone, matching an empty admin list.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender != nil && opts.Allow != nil && opts.Allow.Allows(sender.ID) {
				return next(c)
			}
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
