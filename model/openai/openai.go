// Package openai implements the model.Gateway interface on the OpenAI Chat
// Completions API. Pointing the client at a custom base URL makes it work
// against any OpenAI-compatible endpoint, which is how the default deployment
// reaches its model provider.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/provenlabs/agentcore/model"
	"github.com/provenlabs/agentcore/transcript"
)

// Options configure the OpenAI gateway.
type Options struct {
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int64
}

// Gateway wraps the OpenAI Chat Completions API behind model.Gateway.
type Gateway struct {
	client openai.Client
	opts   Options
}

// New creates an OpenAI-compatible gateway. SDK-internal retries are disabled
// so the retry policy is owned entirely by model.WithRetry.
func New(optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Gateway{client: openai.NewClient(clientOpts...), opts: opts}
}

// Complete implements model.Gateway. It converts the transcript into chat
// messages, issues a single non-streaming completion and normalizes the
// response into a ModelTurn.
func (g *Gateway) Complete(ctx context.Context, req model.Request) (transcript.ModelTurn, error) {
	if err := req.Validate(); err != nil {
		return transcript.ModelTurn{}, err
	}

	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               openai.ChatModel(req.Model),
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(g.opts.MaxTokens),
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return transcript.ModelTurn{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return transcript.ModelTurn{}, &model.GatewayError{
			Kind: model.KindTransient,
			Err:  errors.New("no choices returned"),
		}
	}

	msg := resp.Choices[0].Message
	turn := transcript.ModelTurn{Text: msg.Content}
	// Tool calls are only honored when they were offered in the first place;
	// a tool-disabled request can never yield an ExecutingTools phase.
	if len(req.Tools) > 0 {
		for _, tc := range msg.ToolCalls {
			id := tc.ID
			if id == "" {
				id = uuid.NewString()
			}
			turn.ToolCalls = append(turn.ToolCalls, transcript.ToolCallRequest{
				ID:        id,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return turn, nil
}

// buildMessages converts transcript turns into OpenAI chat messages,
// attaching tool results to their originating assistant tool calls by ID.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, turn := range req.Turns {
		switch t := turn.(type) {
		case transcript.UserTurn:
			messages = append(messages, openai.UserMessage(t.Text))
		case transcript.ModelTurn:
			if len(t.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(t.Text))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(t.ToolCalls))
			for i, tc := range t.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case transcript.ToolResultTurn:
			messages = append(messages, openai.ToolMessage(resultContent(t), t.CallID))
		}
	}
	return messages
}

// resultContent renders a tool outcome for the model. Failures are surfaced
// as text so the model can adapt (retry with different arguments or answer
// without the tool).
func resultContent(t transcript.ToolResultTurn) string {
	if !t.Succeeded() {
		return fmt.Sprintf("Error: %s", t.Error)
	}
	return t.Payload
}

// buildTools converts tool schemas into OpenAI function definitions.
func buildTools(schemas []model.ToolSchema) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, len(schemas))
	for i, s := range schemas {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        s.Name,
				Description: openai.String(s.Description),
				Parameters:  s.Parameters,
			},
		}
	}
	return tools
}

// classify maps SDK errors onto the gateway error taxonomy.
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &model.GatewayError{
			Kind:   model.ClassifyStatus(apierr.StatusCode),
			Status: apierr.StatusCode,
			Err:    err,
		}
	}
	return &model.GatewayError{Kind: model.KindTransient, Err: err}
}
