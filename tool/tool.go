// Package tool implements discovery and execution of externally hosted tools.
// A Registry caches the descriptors advertised by a remote tool server; the
// Executor dispatches individual calls with per-call timeouts and returns
// typed failures that the orchestration loop feeds back to the model instead
// of aborting the run.
package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/provenlabs/agentcore/transcript"
)

// ErrServerUnavailable is returned when the tool server cannot be reached for
// discovery. The agent degrades to tool-disabled mode rather than aborting.
var ErrServerUnavailable = errors.New("tool server unavailable")

// Descriptor describes one callable tool as advertised by the server.
// Immutable once fetched.
type Descriptor struct {
	Name        string
	Description string
	// Parameters is the JSON Schema for the tool's arguments.
	Parameters map[string]any
}

// Registry is the cached snapshot of discovered tools, keyed by name.
// It is safe for concurrent reads across execution runs; updates replace the
// snapshot wholesale. Staleness between refreshes is acceptable — a tool
// removed server-side surfaces as an execution-time UnknownTool failure.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Descriptor
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Descriptor)}
}

// Replace swaps the cached snapshot for a freshly discovered tool set.
func (r *Registry) Replace(descriptors []Descriptor) {
	tools := make(map[string]Descriptor, len(descriptors))
	order := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		if _, exists := tools[d.Name]; exists {
			continue
		}
		tools[d.Name] = d
		order = append(order, d.Name)
	}
	r.mu.Lock()
	r.tools = tools
	r.order = order
	r.mu.Unlock()
}

// Describe returns the descriptor for a tool name.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

// Snapshot returns all cached descriptors in discovery order.
func (r *Registry) Snapshot() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of cached tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// FailureKind categorizes tool call failures.
type FailureKind int

const (
	// FailureTimeout means the call exceeded the per-call timeout.
	FailureTimeout FailureKind = iota
	// FailureInvalidArguments means the arguments did not match the schema.
	FailureInvalidArguments
	// FailureRemoteError means the tool server reported an error.
	FailureRemoteError
	// FailureUnknownTool means the requested name is not in the registry.
	FailureUnknownTool
)

// String returns the string representation of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureInvalidArguments:
		return "invalid_arguments"
	case FailureRemoteError:
		return "remote_error"
	case FailureUnknownTool:
		return "unknown_tool"
	default:
		return "unknown"
	}
}

// Failure is a typed, non-fatal tool call failure. It is recorded in the
// transcript and ledger, never propagated as a run abort.
type Failure struct {
	Tool    string
	Kind    FailureKind
	Message string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("tool %s failed (%s): %s", f.Tool, f.Kind, f.Message)
}

// Result is a successful structured tool outcome.
type Result struct {
	Tool    string
	Payload string
}

// Source combines discovery and execution against one tool server. The MCP
// client is the production implementation; tests provide scripted fakes.
type Source interface {
	// Refresh queries the server for its currently exposed tools and updates
	// the cached registry snapshot. Fails with ErrServerUnavailable when the
	// server cannot be reached within the configured timeout.
	Refresh(ctx context.Context) ([]Descriptor, error)

	// Snapshot returns the cached descriptors from the last refresh.
	Snapshot() []Descriptor

	// Invoke dispatches one tool call, bounded by the per-call timeout.
	// Failures are returned as *Failure.
	Invoke(ctx context.Context, req transcript.ToolCallRequest) (*Result, error)
}
