package ai

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil",
			err:      nil,
			expected: false,
		},
		{
			name:     "typed 429",
			err:      genai.APIError{Code: http.StatusTooManyRequests, Message: "quota exceeded"},
			expected: true,
		},
		{
			name:     "typed 429 wrapped",
			err:      errors.Wrap(genai.APIError{Code: http.StatusTooManyRequests}, "completion request failed"),
			expected: true,
		},
		{
			name:     "typed 500",
			err:      genai.APIError{Code: http.StatusInternalServerError},
			expected: false,
		},
		{
			name:     "untyped with 429 marker",
			err:      errors.New("upstream said 429"),
			expected: true,
		},
		{
			name:     "untyped without marker",
			err:      errors.New("connection reset"),
			expected: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsQuotaError(tc.err))
		})
	}
}
