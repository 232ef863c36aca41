package agent

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/iter"

	"github.com/provenlabs/agentcore/model"
	"github.com/provenlabs/agentcore/tool"
	"github.com/provenlabs/agentcore/transcript"
)

// phase is the orchestration loop state. The loop alternates
// AwaitingModel -> ExecutingTools until a terminal model turn, round
// exhaustion, or a fatal gateway failure moves it to Done.
type phase int

const (
	phaseAwaitingModel phase = iota
	phaseExecutingTools
	phaseDone
)

// runOutcome carries the loop's final state into response assembly.
type runOutcome struct {
	transcript *transcript.Transcript
	ledger     *transcript.Ledger
	rounds     int

	terminal     bool
	terminalText string
	exhausted    bool
	fatalErr     error
}

// runLoop drives rounds between the model gateway and the tool executor.
// Tool failures are absorbed into the transcript and fed back to the model;
// only gateway failures (after retry) terminate the run.
func (a *Agent) runLoop(ctx context.Context, history []transcript.Turn, prompt string, schemas []model.ToolSchema) *runOutcome {
	out := &runOutcome{
		transcript: transcript.NewWithHistory(history, prompt),
		ledger:     &transcript.Ledger{},
	}

	ph := phaseAwaitingModel
	var pending []transcript.ToolCallRequest

	for ph != phaseDone {
		// A caller-initiated cancellation stops issuing new rounds; in-flight
		// tool calls of the current round already ran to completion or their
		// own timeout inside executeRound.
		if err := ctx.Err(); err != nil {
			out.fatalErr = err
			break
		}

		switch ph {
		case phaseAwaitingModel:
			if out.rounds >= a.opts.MaxRounds {
				out.exhausted = true
				ph = phaseDone
				continue
			}
			out.rounds++

			turn, err := a.gateway.Complete(ctx, model.Request{
				Model:        a.modelName,
				Instructions: a.opts.Instructions,
				Turns:        out.transcript.Turns(),
				Tools:        schemas,
			})
			if err != nil {
				a.opts.Logger.Error("agent.round.gateway_error",
					"agent", a.name, "round", out.rounds, "error", err.Error())
				out.fatalErr = err
				ph = phaseDone
				continue
			}
			out.transcript.Append(turn)

			// Tool calls take precedence over any text in the same turn;
			// the text only becomes final once no calls are pending.
			if turn.Terminal() {
				out.terminal = true
				out.terminalText = turn.Text
				ph = phaseDone
				continue
			}
			a.opts.Logger.Debug("agent.round.tool_calls",
				"agent", a.name, "round", out.rounds, "count", len(turn.ToolCalls))
			pending = turn.ToolCalls
			ph = phaseExecutingTools

		case phaseExecutingTools:
			results := a.executeRound(ctx, pending)
			for _, rt := range results {
				out.transcript.Append(rt)
				out.ledger.Record(transcript.LedgerEntry{
					Round:     out.rounds,
					CallID:    rt.CallID,
					Tool:      rt.Tool,
					Succeeded: rt.Succeeded(),
					Error:     rt.Error,
				})
			}
			pending = nil
			ph = phaseAwaitingModel
		}
	}

	return out
}

// executeRound fans out the round's tool calls and returns one result turn
// per request, in request order regardless of completion order. Partial
// failure is tolerated: one failing call never cancels its siblings.
func (a *Agent) executeRound(ctx context.Context, calls []transcript.ToolCallRequest) []transcript.ToolResultTurn {
	mapper := iter.Mapper[transcript.ToolCallRequest, transcript.ToolResultTurn]{
		MaxGoroutines: a.opts.MaxParallelTools,
	}
	return mapper.Map(calls, func(call *transcript.ToolCallRequest) transcript.ToolResultTurn {
		return a.invokeOne(ctx, *call)
	})
}

// invokeOne executes a single tool call, converting typed failures into
// result turns the model can react to.
func (a *Agent) invokeOne(ctx context.Context, call transcript.ToolCallRequest) transcript.ToolResultTurn {
	if a.tools == nil {
		return transcript.ToolResultTurn{
			CallID: call.ID,
			Tool:   call.Name,
			Error:  "no tool source configured",
		}
	}

	result, err := a.tools.Invoke(ctx, call)
	if err != nil {
		var failure *tool.Failure
		if errors.As(err, &failure) {
			a.opts.Logger.Warn("agent.tool.failure",
				"agent", a.name, "tool", call.Name, "kind", failure.Kind.String())
			return transcript.ToolResultTurn{
				CallID: call.ID,
				Tool:   call.Name,
				Error:  failure.Error(),
			}
		}
		return transcript.ToolResultTurn{
			CallID: call.ID,
			Tool:   call.Name,
			Error:  err.Error(),
		}
	}

	return transcript.ToolResultTurn{
		CallID:  call.ID,
		Tool:    call.Name,
		Payload: result.Payload,
	}
}
