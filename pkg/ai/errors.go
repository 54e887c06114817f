package ai

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// IsQuotaError reports whether err carries the provider's rate-limit signal
// (HTTP 429). The string match is a fallback for errors that arrive without
// the typed APIError, e.g. when wrapped by an intermediate proxy.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}

	return strings.Contains(err.Error(), "429")
}
