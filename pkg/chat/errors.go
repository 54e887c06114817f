package chat

import "errors"

// The orchestrator is the sole boundary that translates internal failures
// into these user-facing errors. Their messages are surfaced verbatim to the
// end user; full detail for ErrUnexpected goes to the logs only.
var (
	// ErrEmptyPrompt rejects a turn before any side effect occurs.
	ErrEmptyPrompt = errors.New("Message cannot be empty.")

	// ErrAuthRequired rejects a turn with no resolvable actor.
	ErrAuthRequired = errors.New("You must be logged in to send a message.")

	// ErrQuotaExceeded surfaces the provider's rate-limit signal.
	ErrQuotaExceeded = errors.New("You have exceeded your API quota. Please check your plan and billing details.")

	// ErrUnexpected covers every other store or provider failure.
	ErrUnexpected = errors.New("An unexpected error occurred. Please try again.")
)
