// Package anthropic implements the model.Gateway interface on the Anthropic
// Messages API, for deployments whose gateway credential belongs to Claude
// rather than an OpenAI-compatible endpoint.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/provenlabs/agentcore/model"
	"github.com/provenlabs/agentcore/transcript"
)

// Options configure the Anthropic gateway.
type Options struct {
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int64
}

// Gateway wraps the Anthropic Messages API behind model.Gateway.
type Gateway struct {
	client anthropic.Client
	opts   Options
}

// New creates an Anthropic gateway. SDK-internal retries are disabled so the
// retry policy is owned entirely by model.WithRetry.
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

	return &Gateway{client: anthropic.NewClient(clientOpts...), opts: opts}
}

// Complete implements model.Gateway using a single non-streaming Messages call.
func (g *Gateway) Complete(ctx context.Context, req model.Request) (transcript.ModelTurn, error) {
	if err := req.Validate(); err != nil {
		return transcript.ModelTurn{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		Messages:    buildMessages(req.Turns),
		MaxTokens:   g.opts.MaxTokens,
		Temperature: anthropic.Float(g.opts.Temperature),
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return transcript.ModelTurn{}, classify(err)
	}

	var turn transcript.ModelTurn
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			turn.Text += block.AsText().Text
		case "tool_use":
			if len(req.Tools) == 0 {
				continue
			}
			tu := block.AsToolUse()
			args := ""
			if tu.Input != nil {
				if raw, err := json.Marshal(tu.Input); err == nil {
					args = string(raw)
				}
			}
			turn.ToolCalls = append(turn.ToolCalls, transcript.ToolCallRequest{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: args,
			})
		}
	}
	return turn, nil
}

// buildMessages converts transcript turns into Anthropic messages. Tool
// results directly follow their originating assistant tool-use turn as
// tool_result blocks inside a user message, as the Messages API requires.
func buildMessages(turns []transcript.Turn) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, turn := range turns {
		switch t := turn.(type) {
		case transcript.UserTurn:
			flushResults()
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
		case transcript.ModelTurn:
			flushResults()
			var blocks []anthropic.ContentBlockParamUnion
			if t.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(t.Text))
			}
			for _, tc := range t.ToolCalls {
				var input any
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						input = tc.Arguments
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		case transcript.ToolResultTurn:
			content := t.Payload
			if !t.Succeeded() {
				content = fmt.Sprintf("Error: %s", t.Error)
			}
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(t.CallID, content, !t.Succeeded()))
		}
	}
	flushResults()
	return messages
}

// buildTools converts tool schemas into Anthropic tool definitions.
func buildTools(schemas []model.ToolSchema) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(schemas))
	for i, s := range schemas {
		inputSchema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if s.Parameters != nil {
			if props, ok := s.Parameters["properties"]; ok {
				inputSchema.Properties = props
			}
			inputSchema.Required = requiredFields(s.Parameters)
		}
		tools[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        s.Name,
				Description: anthropic.String(s.Description),
				InputSchema: inputSchema,
			},
		}
	}
	return tools
}

// requiredFields normalizes the schema's required list, which arrives either
// as []string (hand-built schemas) or []any (JSON-decoded ones).
func requiredFields(params map[string]any) []string {
	switch req := params["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// classify maps SDK errors onto the gateway error taxonomy.
func classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &model.GatewayError{
			Kind:   model.ClassifyStatus(apierr.StatusCode),
			Status: apierr.StatusCode,
			Err:    err,
		}
	}
	return &model.GatewayError{Kind: model.KindTransient, Err: err}
}
