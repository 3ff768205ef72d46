// Package model defines the model-caller boundary of the debate engine and
// its concrete backends.
//
// A Caller takes a role and a prompt and always returns a ModelResponse:
// ordinary failures (timeouts, rate limits, provider errors) are classified
// and carried as data in the response metadata, never as Go errors. The
// orchestrator decides what to do with failed responses.
package model

import (
	"context"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
)

// Caller issues one model call for one debate role.
type Caller interface {
	// Call sends the prompt to the model backing the given role and
	// returns its response. Call never fails in the Go sense: a response
	// with empty content and populated metadata error represents failure.
	// The context carries the per-call timeout.
	Call(ctx context.Context, role debate.Role, prompt string) *debate.ModelResponse
}

// Error codes used in ModelResponse metadata.
const (
	ErrCodeTimeout     = "timeout"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeCanceled    = "canceled"
	ErrCodeProvider    = "provider_error"
	ErrCodeTransport   = "transport_error"
)

// FailedResponse builds the canonical failure response for a role: empty
// content, populated classified error.
func FailedResponse(role debate.Role, model, code, message string, retryable bool, requestedAt time.Time) *debate.ModelResponse {
	return &debate.ModelResponse{
		Role: role,
		Metadata: debate.CallMetadata{
			Model:       model,
			RequestedAt: requestedAt,
			RespondedAt: time.Now().UTC(),
			Error: &debate.CallError{
				Code:      code,
				Message:   message,
				Retryable: retryable,
			},
		},
	}
}
