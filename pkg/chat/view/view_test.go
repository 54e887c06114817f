package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
)

func userMessage(content string) chatv1.Message {
	return chatv1.Message{
		ID:        "u-" + content,
		Role:      chatv1.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func countPlaceholders(messages []chatv1.Message) int {
	n := 0
	for _, msg := range messages {
		if IsPlaceholder(msg) {
			n++
		}
	}
	return n
}

func TestDispatchAppendsUserAndPlaceholder(t *testing.T) {
	v := New()

	require.True(t, v.Dispatch(userMessage("hello")))

	messages := v.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, chatv1.RoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
	assert.True(t, IsPlaceholder(messages[1]))
	assert.Equal(t, 1, countPlaceholders(messages))
	assert.Equal(t, StateAwaitingReply, v.State())
}

func TestDispatchRefusedWhileAwaitingReply(t *testing.T) {
	v := New()

	require.True(t, v.Dispatch(userMessage("first")))
	assert.False(t, v.Dispatch(userMessage("second")))

	// Still exactly one placeholder outstanding.
	assert.Equal(t, 1, countPlaceholders(v.Messages()))
	assert.Len(t, v.Messages(), 2)
}

func TestResolveReplacesPlaceholder(t *testing.T) {
	v := New()
	v.Dispatch(userMessage("hello"))

	reply := chatv1.Message{ID: "m-1", Role: chatv1.RoleModel, Content: "WHAT", Timestamp: time.Now()}
	v.Resolve(reply)

	messages := v.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, 0, countPlaceholders(messages))
	assert.Equal(t, reply, messages[1])
	assert.Equal(t, StateIdle, v.State())
}

func TestFailKeepsUserMessage(t *testing.T) {
	v := New()
	v.Dispatch(userMessage("hello"))

	v.Fail()

	messages := v.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, 0, countPlaceholders(messages))
	assert.Equal(t, StateIdle, v.State())

	// The view accepts a fresh dispatch after a failure.
	assert.True(t, v.Dispatch(userMessage("retry")))
}

func TestApplySnapshotOnlyWhileIdle(t *testing.T) {
	v := New()
	snapshot := []chatv1.Message{
		{ID: "m-1", Role: chatv1.RoleUser, Content: "hi"},
		{ID: "m-2", Role: chatv1.RoleModel, Content: "WHAT"},
	}

	require.True(t, v.ApplySnapshot(snapshot))
	assert.Len(t, v.Messages(), 2)

	v.Dispatch(userMessage("another"))
	assert.False(t, v.ApplySnapshot(nil), "snapshot must be dropped while a turn is in flight")
	assert.Len(t, v.Messages(), 4)

	v.Resolve(chatv1.Message{ID: "m-3", Role: chatv1.RoleModel, Content: "grr"})
	require.True(t, v.ApplySnapshot(snapshot))
	assert.Len(t, v.Messages(), 2)
}

func TestSnapshotIsCopied(t *testing.T) {
	v := New()
	snapshot := []chatv1.Message{{ID: "m-1", Role: chatv1.RoleUser, Content: "hi"}}
	v.ApplySnapshot(snapshot)

	snapshot[0].Content = "mutated"
	assert.Equal(t, "hi", v.Messages()[0].Content)
}
