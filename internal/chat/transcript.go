package chat

import (
	"context"
	"sync"
)

// Exchange is one question and the reply it got.
type Exchange struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// Transcript is the conversation history of one caller. The interpreter
// never holds one; callers keep their own and pass it around explicitly.
type Transcript struct {
	mu        sync.Mutex
	exchanges []Exchange
}

// Ask sends text to it, records the exchange and returns the reply.
// Failed lookups are not recorded.
func (t *Transcript) Ask(ctx context.Context, it *Interpreter, text string) (string, error) {
	reply, err := it.Respond(ctx, text)
	if err != nil {
		return "", err
	}
	t.Add(text, reply)
	return reply, nil
}

func (t *Transcript) Add(user, bot string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exchanges = append(t.exchanges, Exchange{User: user, Bot: bot})
}

// Entries returns a copy of the history, oldest first.
func (t *Transcript) Entries() []Exchange {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Exchange, len(t.exchanges))
	copy(out, t.exchanges)
	return out
}

func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exchanges = nil
}
