package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the middleware touch.
// Calling anything else panics on the nil embedded interface.
type fakeContext struct {
	tele.Context

	mu     sync.Mutex
	update tele.Update
	store  map[string]any
	sent   []any
}

func newFakeContext(updateID int, userID int64, text string) *fakeContext {
	msg := &tele.Message{
		ID:     updateID,
		Sender: &tele.User{ID: userID, Username: "student"},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		Text:   text,
	}
	return &fakeContext{
		update: tele.Update{ID: updateID, Message: msg},
		store:  make(map[string]any),
	}
}

func (f *fakeContext) Update() tele.Update     { return f.update }
func (f *fakeContext) Message() *tele.Message  { return f.update.Message }
func (f *fakeContext) Sender() *tele.User      { return f.update.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat        { return f.update.Message.Chat }
func (f *fakeContext) Text() string            { return f.update.Message.Text }
func (f *fakeContext) Get(key string) any      { f.mu.Lock(); defer f.mu.Unlock(); return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.mu.Lock(); defer f.mu.Unlock(); f.store[key] = val }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, what)
	return nil
}
