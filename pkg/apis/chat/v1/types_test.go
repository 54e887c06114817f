package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortMessagesIsStableForEqualTimestamps(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	messages := []Message{
		{ID: "c", Timestamp: ts.Add(time.Second)},
		{ID: "a", Timestamp: ts},
		{ID: "b", Timestamp: ts},
	}

	SortMessages(messages)

	// Ties keep arrival order; ids play no part in ordering.
	assert.Equal(t, "a", messages[0].ID)
	assert.Equal(t, "b", messages[1].ID)
	assert.Equal(t, "c", messages[2].ID)
}
