package v1

import (
	"sort"
	"time"
)

// Role identifies the author of a message. There are exactly two variants:
// messages typed by a person are RoleUser, generated replies are RoleModel.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a single entry in a conversation. ID is empty only transiently,
// before the backing store (or the guest client) has assigned one. Ordering
// within a conversation is by Timestamp ascending, ties broken by arrival order.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is an ordered sequence of messages sharing one identifier. The
// title starts out as a truncated prefix of the first prompt and is later
// overwritten by a generated summary.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
}

// Actor is the identity initiating a turn. Guest actors are ephemeral and
// backed by local storage only; registered actors are backed by the remote
// store.
type Actor struct {
	UserID string `json:"user_id"`
	Guest  bool   `json:"guest"`
}

// SortMessages orders messages by timestamp ascending, keeping arrival order
// for equal timestamps. Identifier formats differ between the two store tiers,
// so ids are never used for ordering.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
