package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
)

func TestHistoryContentsRoleMapping(t *testing.T) {
	history := []chatv1.Message{
		{Role: chatv1.RoleUser, Content: "hi"},
		{Role: chatv1.RoleModel, Content: "WHAT"},
		{Role: chatv1.RoleUser, Content: "rude"},
	}

	contents := historyContents(history)
	require.Len(t, contents, 3)

	assert.Equal(t, genai.RoleUser, string(contents[0].Role))
	assert.Equal(t, genai.RoleModel, string(contents[1].Role))
	assert.Equal(t, genai.RoleUser, string(contents[2].Role))

	require.Len(t, contents[1].Parts, 1)
	assert.Equal(t, "WHAT", contents[1].Parts[0].Text)
}
