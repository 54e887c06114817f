// Package view holds the in-memory rendered message list for one open
// conversation. It is not a system of record: it eagerly shows the user's
// message and a loading placeholder while a turn is in flight, then
// reconciles with the real reply or with an authoritative store snapshot.
package view

import (
	"sync"
	"time"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
)

// PlaceholderID is the sentinel id of the transient loading message. At most
// one placeholder exists at a time; submission is disabled while a turn is
// awaiting its reply.
const (
	PlaceholderID      = "loading-placeholder"
	placeholderContent = "..."
)

type State string

const (
	StateIdle          State = "idle"
	StateAwaitingReply State = "awaiting-reply"
)

type View struct {
	mu       sync.Mutex
	state    State
	messages []chatv1.Message
}

func New() *View {
	return &View{state: StateIdle}
}

// IsPlaceholder reports whether msg is the transient loading message.
func IsPlaceholder(msg chatv1.Message) bool {
	return msg.ID == PlaceholderID
}

// Dispatch optimistically appends the user's message and the loading
// placeholder, moving the view to AwaitingReply. It refuses a second dispatch
// while one is outstanding and reports whether the dispatch was accepted.
func (v *View) Dispatch(userMessage chatv1.Message) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == StateAwaitingReply {
		return false
	}

	v.messages = append(v.messages, userMessage, chatv1.Message{
		ID:        PlaceholderID,
		Role:      chatv1.RoleModel,
		Content:   placeholderContent,
		Timestamp: time.Now(),
	})
	v.state = StateAwaitingReply
	return true
}

// Resolve replaces the placeholder with the real AI message and returns the
// view to Idle.
func (v *View) Resolve(aiMessage chatv1.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.removePlaceholder()
	v.messages = append(v.messages, aiMessage)
	v.state = StateIdle
}

// Fail removes the placeholder only; the user's message stays visible, having
// already been optimistically shown.
func (v *View) Fail() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.removePlaceholder()
	v.state = StateIdle
}

// ApplySnapshot replaces the whole view with an authoritative store read. The
// optimistic list is superseded opportunistically: a snapshot arriving while a
// turn is in flight is dropped, and the method reports whether it applied.
func (v *View) ApplySnapshot(messages []chatv1.Message) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateIdle {
		return false
	}

	v.messages = append([]chatv1.Message{}, messages...)
	return true
}

// Messages returns a copy of the rendered list.
func (v *View) Messages() []chatv1.Message {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]chatv1.Message{}, v.messages...)
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.state
}

func (v *View) removePlaceholder() {
	kept := v.messages[:0]
	for _, msg := range v.messages {
		if !IsPlaceholder(msg) {
			kept = append(kept, msg)
		}
	}
	v.messages = kept
}
