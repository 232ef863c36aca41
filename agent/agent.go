// Package agent contains the orchestration core: a bounded two-phase loop
// that interleaves model completions with tool executions, records tool
// provenance structurally, and assembles a verified response. The provenance
// ledger is populated only by the tool execution phase, so tools_used can
// never be set by model narrative — that asymmetry is the anti-fabrication
// guarantee the whole core exists to provide.
package agent

import (
	"context"
	"errors"

	"github.com/provenlabs/agentcore/logging"
	"github.com/provenlabs/agentcore/model"
	"github.com/provenlabs/agentcore/tool"
	"github.com/provenlabs/agentcore/transcript"
)

// Metadata keys populated by the response assembler.
const (
	MetaToolsUsed             = "tools_used"
	MetaRounds                = "rounds"
	MetaToolNames             = "tool_names"
	MetaRoundsExhausted       = "rounds_exhausted"
	MetaToolServerUnavailable = "tool_server_unavailable"
)

// Response is the agent's terminal output contract. It is well-formed on
// every path: transport failures surface as Success=false with Error set,
// never as a fault escaping the Execute boundary.
type Response struct {
	Success  bool           `json:"success"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Error    string         `json:"error,omitempty"`

	// ToolResults holds the payloads of successful tool calls in transcript
	// order, for consumers that post-process tool-grounded artifacts.
	ToolResults []string `json:"-"`
}

// ToolsUsed reports the ledger-derived provenance flag.
func (r *Response) ToolsUsed() bool {
	used, _ := r.Metadata[MetaToolsUsed].(bool)
	return used
}

// Options configure an Agent.
type Options struct {
	// Instructions is the system prompt sent with every round.
	Instructions string
	// MaxRounds caps model rounds per execution.
	MaxRounds int
	// MaxParallelTools bounds concurrent tool calls within one round.
	MaxParallelTools int
	// RequireToolUse makes a run without a successful tool execution fail
	// even when the model produced terminal text.
	RequireToolUse bool
	// Tools supplies discovery and execution; nil disables tool support.
	Tools tool.Source
	// Logger receives loop transition events.
	Logger logging.Logger
}

// Agent drives the orchestration loop for one capability set. The agent is
// immutable after construction and safe for concurrent Execute calls; each
// run owns its transcript and ledger exclusively.
type Agent struct {
	name      string
	modelName string
	gateway   model.Gateway
	tools     tool.Source
	opts      Options
}

// New constructs an agent around a model gateway.
func New(name, modelName string, gateway model.Gateway, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Instructions:     "You are " + name + ", a helpful AI assistant.",
		MaxRounds:        8,
		MaxParallelTools: 4,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{
		name:      name,
		modelName: modelName,
		gateway:   gateway,
		tools:     opts.Tools,
		opts:      opts,
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Execute runs the orchestration loop for one prompt. When useTools is false
// the model is never offered tool schemas, so the provenance ledger stays
// empty by construction. The returned Response is always well-formed.
func (a *Agent) Execute(ctx context.Context, prompt string, useTools bool) *Response {
	return a.ExecuteWithHistory(ctx, nil, prompt, useTools)
}

// ExecuteWithHistory runs the orchestration loop with prior conversation turns
// preceding the prompt. History contributes context only: the provenance
// ledger covers exclusively the tool executions of this run.
func (a *Agent) ExecuteWithHistory(ctx context.Context, history []transcript.Turn, prompt string, useTools bool) *Response {
	schemas, degraded := a.toolSchemas(ctx, useTools)
	outcome := a.runLoop(ctx, history, prompt, schemas)
	return a.assemble(outcome, degraded)
}

// toolSchemas resolves the advertised tool set for this run. An unreachable
// tool server degrades the run to tool-disabled mode instead of aborting.
func (a *Agent) toolSchemas(ctx context.Context, useTools bool) ([]model.ToolSchema, bool) {
	if !useTools || a.tools == nil {
		return nil, false
	}

	descriptors := a.tools.Snapshot()
	if len(descriptors) == 0 {
		refreshed, err := a.tools.Refresh(ctx)
		if err != nil {
			if errors.Is(err, tool.ErrServerUnavailable) {
				a.opts.Logger.Warn("agent.tools.unavailable", "agent", a.name, "error", err.Error())
				return nil, true
			}
			a.opts.Logger.Error("agent.tools.refresh_failed", "agent", a.name, "error", err.Error())
			return nil, true
		}
		descriptors = refreshed
	}

	schemas := make([]model.ToolSchema, len(descriptors))
	for i, d := range descriptors {
		schemas[i] = model.ToolSchema{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}
	}
	return schemas, false
}
