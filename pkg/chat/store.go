package chat

import (
	"context"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
)

// ConversationStore persists conversations and their ordered message
// sequences. Two implementations exist: the postgres-backed store for
// registered users (store-assigned ids and times) and the local blob store
// for guests (client-synthesized ids and times). The orchestrator picks the
// variant by actor mode; the two never mix for a given conversation.
//
// Identifier formats are opaque and differ between tiers. Callers must sort
// by timestamp, never by id.
type ConversationStore interface {
	// CreateConversation creates a new conversation record and returns its id.
	CreateConversation(ctx context.Context, userID, title string) (string, error)

	// AppendMessage appends one message and returns it with the assigned id
	// and time filled in.
	AppendMessage(ctx context.Context, userID, conversationID string, role chatv1.Role, content string) (chatv1.Message, error)

	// ListMessages returns the full ordered history of a conversation,
	// timestamp ascending.
	ListMessages(ctx context.Context, userID, conversationID string) ([]chatv1.Message, error)

	// UpdateTitle overwrites a conversation's title.
	UpdateTitle(ctx context.Context, conversationID, title string) error

	// ListConversations returns the actor's conversations, newest first.
	ListConversations(ctx context.Context, userID string) ([]chatv1.Conversation, error)
}
