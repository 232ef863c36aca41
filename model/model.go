// Package model defines the provider-agnostic gateway abstraction for one
// model completion per round. Provider packages (openai, anthropic) implement
// Gateway so the orchestration loop stays decoupled from vendor SDKs.
package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/provenlabs/agentcore/transcript"
)

// ToolSchema declaratively exposes a callable tool to the model. Parameters
// is a JSON Schema object (minimal subset expected).
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized gateway input for one round. If Tools is
// empty the model is never offered tool calling and the returned ModelTurn's
// tool-call list is guaranteed empty.
type Request struct {
	Model        string
	Instructions string
	Turns        []transcript.Turn
	Tools        []ToolSchema
}

// Validate enforces the gateway input contract: a transcript with at least
// one UserTurn.
func (r Request) Validate() error {
	for _, t := range r.Turns {
		if _, ok := t.(transcript.UserTurn); ok {
			return nil
		}
	}
	return errors.New("model: request transcript must contain at least one user turn")
}

// Gateway issues one model completion per call given the transcript so far.
type Gateway interface {
	Complete(ctx context.Context, req Request) (transcript.ModelTurn, error)
}

// ErrorKind classifies gateway failures for retry policy decisions.
type ErrorKind int

const (
	// KindRateLimited indicates a 429; retryable with backoff, bounded.
	KindRateLimited ErrorKind = iota
	// KindAuthFailed indicates a credential rejection; fatal, never retried.
	KindAuthFailed
	// KindTransient indicates a server-side or transport fault; retried once.
	KindTransient
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindAuthFailed:
		return "authentication_failed"
	case KindTransient:
		return "model_error"
	default:
		return "unknown"
	}
}

// GatewayError wraps a provider failure with its retry classification.
type GatewayError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model gateway %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("model gateway %s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying provider error.
func (e *GatewayError) Unwrap() error { return e.Err }

// Fatal reports whether the failure can make no progress by retrying.
func (e *GatewayError) Fatal() bool { return e.Kind == KindAuthFailed }

// ClassifyStatus maps an HTTP status code to an ErrorKind using the policy
// shared by all providers.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuthFailed
	case status == 429:
		return KindRateLimited
	default:
		return KindTransient
	}
}
