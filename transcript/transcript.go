// Package transcript models the ordered conversation state of a single
// execution run together with its provenance ledger. Turns form a closed set
// via the unexported isTurn marker; the ledger is the only source of truth for
// whether a tool actually executed — model narrative is never consulted.
package transcript

// Turn represents one entry in the conversation transcript. Concrete turn
// types implement the unexported isTurn marker enabling a closed set.
type Turn interface{ isTurn() }

// UserTurn is the caller's prompt.
type UserTurn struct {
	Text string
}

// isTurn implements the Turn interface for UserTurn.
func (UserTurn) isTurn() {}

// ToolCallRequest is a tool invocation requested by the model. Arguments is
// the raw JSON argument payload as emitted by the gateway.
type ToolCallRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// ModelTurn is one model completion: terminal text, one or more tool call
// requests, or both. A turn carrying tool calls is never terminal — the calls
// are executed before any text is considered final.
type ModelTurn struct {
	Text      string
	ToolCalls []ToolCallRequest
}

// isTurn implements the Turn interface for ModelTurn.
func (ModelTurn) isTurn() {}

// Terminal reports whether this turn ends the run (text with no pending calls).
func (t ModelTurn) Terminal() bool { return len(t.ToolCalls) == 0 }

// ToolResultTurn records the outcome of one tool call, success or failure.
// Error is the failure description fed back to the model; empty on success.
type ToolResultTurn struct {
	CallID  string
	Tool    string
	Payload string
	Error   string
}

// isTurn implements the Turn interface for ToolResultTurn.
func (ToolResultTurn) isTurn() {}

// Succeeded reports whether the underlying tool call completed without failure.
func (t ToolResultTurn) Succeeded() bool { return t.Error == "" }

// Transcript is the append-only ordered turn sequence for one execution run.
// It is owned exclusively by that run and discarded afterwards; it is not
// safe for concurrent mutation and never needs to be.
type Transcript struct {
	turns []Turn
}

// New creates a transcript seeded with the caller's prompt as a single UserTurn.
func New(prompt string) *Transcript {
	return &Transcript{turns: []Turn{UserTurn{Text: prompt}}}
}

// NewWithHistory creates a transcript seeded with prior conversation turns
// followed by the caller's prompt. The history slice is copied.
func NewWithHistory(history []Turn, prompt string) *Transcript {
	turns := make([]Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, UserTurn{Text: prompt})
	return &Transcript{turns: turns}
}

// Append adds a turn to the end of the transcript.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// Turns returns a snapshot of the turn sequence safe for caller iteration.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns recorded so far.
func (t *Transcript) Len() int { return len(t.turns) }

// LastModelText returns the text of the most recent ModelTurn that carried
// any, or "" if no model text was ever produced.
func (t *Transcript) LastModelText() string {
	for i := len(t.turns) - 1; i >= 0; i-- {
		if mt, ok := t.turns[i].(ModelTurn); ok && mt.Text != "" {
			return mt.Text
		}
	}
	return ""
}

// SuccessfulToolPayloads returns the payloads of all successful tool results
// in transcript order.
func (t *Transcript) SuccessfulToolPayloads() []string {
	var payloads []string
	for _, turn := range t.turns {
		if rt, ok := turn.(ToolResultTurn); ok && rt.Succeeded() {
			payloads = append(payloads, rt.Payload)
		}
	}
	return payloads
}
