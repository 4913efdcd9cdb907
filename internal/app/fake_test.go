package app

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// fakeContext is a tele.Context backed by a single message. Only the methods
// the handlers touch are implemented.
type fakeContext struct {
	tele.Context
	msg   *tele.Message
	store map[string]any

	mu   sync.Mutex
	sent []any
	opts [][]any
}

func textFrom(userID int64, text string) *fakeContext {
	return &fakeContext{
		msg: &tele.Message{
			ID:     1,
			Text:   text,
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		},
		store: map[string]any{},
	}
}

func photoFrom(userID int64, fileID string) *fakeContext {
	c := textFrom(userID, "")
	c.msg.Photo = &tele.Photo{File: tele.File{FileID: fileID}}
	return c
}

func (f *fakeContext) Update() tele.Update     { return tele.Update{ID: 1, Message: f.msg} }
func (f *fakeContext) Message() *tele.Message  { return f.msg }
func (f *fakeContext) Sender() *tele.User      { return f.msg.Sender }
func (f *fakeContext) Chat() *tele.Chat        { return f.msg.Chat }
func (f *fakeContext) Text() string            { return f.msg.Text }
func (f *fakeContext) Get(key string) any      { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, what)
	f.opts = append(f.opts, opts)
	return nil
}

func (f *fakeContext) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, v := range f.sent {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeContext) lastText() string {
	t := f.texts()
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

type sentMessage struct {
	to   int64
	what any
}

// fakeBot records notifications instead of calling the Bot API.
type fakeBot struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (b *fakeBot) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	var id int64
	if chat, ok := to.(tele.ChatID); ok {
		id = int64(chat)
	}
	b.sent = append(b.sent, sentMessage{to: id, what: what})
	return &tele.Message{}, nil
}

func (b *fakeBot) messages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentMessage(nil), b.sent...)
}
