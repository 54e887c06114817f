package localstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// A ticking fake clock so synthesized ids stay unique and ordered.
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		current = current.Add(time.Second)
		return current
	})

	return store
}

func TestAppendAndListMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	convID, err := store.CreateConversation(ctx, "guest", "first chat")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(convID, "guest-chat-"), "got id %q", convID)

	userMsg, err := store.AppendMessage(ctx, "guest", convID, chatv1.RoleUser, "hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(userMsg.ID, "guest-msg-"), "got id %q", userMsg.ID)

	modelMsg, err := store.AppendMessage(ctx, "guest", convID, chatv1.RoleModel, "WHAT")
	require.NoError(t, err)

	messages, err := store.ListMessages(ctx, "guest", convID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, userMsg, messages[0])
	assert.Equal(t, modelMsg, messages[1])

	// Reads are idempotent without intervening writes.
	again, err := store.ListMessages(ctx, "guest", convID)
	require.NoError(t, err)
	assert.Equal(t, messages, again)
}

func TestPutMessagesPreservesAssignedIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	serverAssigned := chatv1.Message{
		ID:        "guest-msg-99999",
		Role:      chatv1.RoleModel,
		Content:   "grr",
		Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.PutMessages("guest-chat-1", serverAssigned))

	messages, err := store.ListMessages(ctx, "guest", "guest-chat-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, serverAssigned, messages[0])
}

func TestListMessagesSortsByTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	later := chatv1.Message{ID: "b", Role: chatv1.RoleModel, Content: "second", Timestamp: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	earlier := chatv1.Message{ID: "a", Role: chatv1.RoleUser, Content: "first", Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.PutMessages("guest-chat-1", later, earlier))

	messages, err := store.ListMessages(ctx, "guest", "guest-chat-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
}

func TestConversationIndexNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureConversation("guest-chat-1", "older", "guest"))
	require.NoError(t, store.EnsureConversation("guest-chat-2", "newer", "guest"))

	conversations, err := store.ListConversations(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, "guest-chat-2", conversations[0].ID)
	assert.Equal(t, "guest-chat-1", conversations[1].ID)
}

func TestEnsureConversationIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureConversation("guest-chat-1", "title", "guest"))
	require.NoError(t, store.EnsureConversation("guest-chat-1", "different title", "guest"))

	conversations, err := store.ListConversations(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "title", conversations[0].Title, "the creation-time title wins")
}

func TestUpdateTitle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureConversation("guest-chat-1", "truncated pre", "guest"))
	require.NoError(t, store.UpdateTitle(ctx, "guest-chat-1", "A proper summary"))

	conversations, err := store.ListConversations(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, "A proper summary", conversations[0].Title)

	assert.Error(t, store.UpdateTitle(ctx, "guest-chat-404", "nope"))
}

func TestWritesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir)
	require.NoError(t, err)
	convID, err := store.CreateConversation(context.Background(), "guest", "persisted")
	require.NoError(t, err)
	_, err = store.AppendMessage(context.Background(), "guest", convID, chatv1.RoleUser, "hello")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	defer reopened.Close()

	messages, err := reopened.ListMessages(context.Background(), "guest", convID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Content)
}

func TestWritesPublishChangeNotifications(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, store.PutMessages("guest-chat-1", chatv1.Message{
		ID: "guest-msg-1", Role: chatv1.RoleUser, Content: "hello", Timestamp: time.Now(),
	}))

	select {
	case msg := <-changes:
		assert.Equal(t, "guest-chat-1", string(msg.Payload))
		msg.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification received")
	}
}
