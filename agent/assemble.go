package agent

// assemble converts the loop outcome into the agent's output contract.
// Deterministic: content is the last terminal model text, tools_used comes
// solely from the ledger, and error is set only for fatal failures or round
// exhaustion without terminal text.
func (a *Agent) assemble(out *runOutcome, toolServerUnavailable bool) *Response {
	metadata := map[string]any{
		MetaToolsUsed: out.ledger.ToolsUsed(),
		MetaRounds:    out.rounds,
		MetaToolNames: out.ledger.ToolNames(),
	}
	if toolServerUnavailable {
		metadata[MetaToolServerUnavailable] = true
	}

	resp := &Response{
		Metadata:    metadata,
		ToolResults: out.transcript.SuccessfulToolPayloads(),
	}

	switch {
	case out.fatalErr != nil:
		resp.Content = out.transcript.LastModelText()
		resp.Error = out.fatalErr.Error()

	case out.exhausted:
		// Policy: round exhaustion without terminal text is a failure, but
		// the best available model text is still returned to the caller.
		metadata[MetaRoundsExhausted] = true
		resp.Content = out.transcript.LastModelText()
		resp.Error = "maximum rounds exhausted without a final answer"

	default:
		resp.Content = out.terminalText
		resp.Success = true
	}

	if resp.Success && a.opts.RequireToolUse && !out.ledger.ToolsUsed() {
		resp.Success = false
		resp.Error = "response is not grounded in any tool execution"
	}

	a.opts.Logger.Info("agent.execute.done",
		"agent", a.name,
		"success", resp.Success,
		"rounds", out.rounds,
		"tools_used", out.ledger.ToolsUsed(),
	)
	return resp
}
