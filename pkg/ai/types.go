package ai

import (
	"context"
	"errors"
	"fmt"
)

// CompletionRequest carries one composed grading prompt to the model provider.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
}

// CompletionResult is the raw provider output before normalization.
type CompletionResult struct {
	Content   string
	Rationale string
	Raw       map[string]interface{}
}

// Client describes a model endpoint capable of answering grading prompts.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// InvocationError marks an unrecoverable provider failure (network, auth,
// exhausted retries). Malformed content is never wrapped in this type.
type InvocationError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s invocation failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// IsInvocationError reports whether err originated from a failed model invocation.
func IsInvocationError(err error) bool {
	var invocationErr *InvocationError
	return errors.As(err, &invocationErr)
}
