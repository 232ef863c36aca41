package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenlabs/agentcore/model"
	"github.com/provenlabs/agentcore/transcript"
)

func TestBuildMessages_RolesAndOrder(t *testing.T) {
	req := model.Request{
		Instructions: "You are a research assistant.",
		Turns: []transcript.Turn{
			transcript.UserTurn{Text: "weather in Tokyo?"},
			transcript.ModelTurn{ToolCalls: []transcript.ToolCallRequest{
				{ID: "c1", Name: "web_search", Arguments: `{"query":"tokyo weather"}`},
			}},
			transcript.ToolResultTurn{CallID: "c1", Tool: "web_search", Payload: "Tokyo, 18°C, cloudy"},
			transcript.ModelTurn{Text: "It is 18°C and cloudy."},
		},
	}

	messages := buildMessages(req)
	require.Len(t, messages, 5)

	assert.NotNil(t, messages[0].OfSystem)
	assert.NotNil(t, messages[1].OfUser)
	require.NotNil(t, messages[2].OfAssistant)
	require.Len(t, messages[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "c1", messages[2].OfAssistant.ToolCalls[0].ID)
	assert.Equal(t, "web_search", messages[2].OfAssistant.ToolCalls[0].Function.Name)
	assert.NotNil(t, messages[3].OfTool)
	assert.NotNil(t, messages[4].OfAssistant)
}

func TestBuildMessages_NoInstructions(t *testing.T) {
	req := model.Request{
		Turns: []transcript.Turn{transcript.UserTurn{Text: "hi"}},
	}
	messages := buildMessages(req)
	require.Len(t, messages, 1)
	assert.NotNil(t, messages[0].OfUser)
}

func TestResultContent(t *testing.T) {
	ok := transcript.ToolResultTurn{CallID: "c1", Tool: "web_search", Payload: `{"hits": 3}`}
	assert.Equal(t, `{"hits": 3}`, resultContent(ok))

	failed := transcript.ToolResultTurn{CallID: "c2", Tool: "web_search", Error: "tool web_search failed (timeout): call exceeded 5s timeout"}
	assert.Contains(t, resultContent(failed), "Error:")
	assert.Contains(t, resultContent(failed), "timeout")
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolSchema{{
		Name:        "web_search",
		Description: "Search the web",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
		},
	}})

	require.Len(t, tools, 1)
	assert.Equal(t, "web_search", tools[0].Function.Name)
	assert.Contains(t, tools[0].Function.Parameters, "properties")
}
