package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/provenlabs/agentcore/logging"
	"github.com/provenlabs/agentcore/transcript"
)

// MCPOptions configure the MCP tool source.
type MCPOptions struct {
	// AuthToken is sent as a bearer credential on every request.
	AuthToken string
	// CallTimeout bounds discovery and each individual tool call.
	CallTimeout time.Duration
	// Logger receives discovery and execution events.
	Logger logging.Logger
}

// MCPSource discovers and executes tools exposed by a remote MCP server over
// streamable HTTP. It implements Source and is safe for concurrent use by
// multiple execution runs of the same agent instance.
type MCPSource struct {
	client   *mcpclient.Client
	registry *Registry
	timeout  time.Duration
	logger   logging.Logger

	initOnce *initGate
}

// initGate serializes the MCP session handshake so concurrent first calls do
// not race on Initialize.
type initGate struct {
	done bool
	err  error
	ch   chan struct{}
}

// NewMCPSource creates a tool source speaking MCP to the given endpoint.
func NewMCPSource(endpoint string, optFns ...func(o *MCPOptions)) (*MCPSource, error) {
	opts := MCPOptions{
		CallTimeout: 30 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	headers := map[string]string{}
	if opts.AuthToken != "" {
		headers["Authorization"] = "Bearer " + opts.AuthToken
	}
	tp, err := transport.NewStreamableHTTP(endpoint, transport.WithHTTPHeaders(headers))
	if err != nil {
		return nil, fmt.Errorf("tool: create mcp transport: %w", err)
	}

	return &MCPSource{
		client:   mcpclient.NewClient(tp),
		registry: NewRegistry(),
		timeout:  opts.CallTimeout,
		logger:   opts.Logger,
		initOnce: &initGate{ch: make(chan struct{}, 1)},
	}, nil
}

// connect performs the MCP session handshake once.
func (s *MCPSource) connect(ctx context.Context) error {
	select {
	case s.initOnce.ch <- struct{}{}:
		defer func() { <-s.initOnce.ch }()
	case <-ctx.Done():
		return ctx.Err()
	}
	if s.initOnce.done {
		return s.initOnce.err
	}

	err := s.client.Start(ctx)
	if err == nil {
		initReq := mcp.InitializeRequest{}
		initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
		initReq.Params.ClientInfo = mcp.Implementation{Name: "agentcore", Version: "0.1.0"}
		_, err = s.client.Initialize(ctx, initReq)
	}

	s.initOnce.done = true
	s.initOnce.err = err
	return err
}

// Refresh implements Source. It lists the server's tools and replaces the
// cached registry snapshot.
func (s *MCPSource) Refresh(ctx context.Context) ([]Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}

	resp, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}

	descriptors := make([]Descriptor, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		descriptors = append(descriptors, Descriptor{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schemaToMap(t.InputSchema),
		})
	}
	s.registry.Replace(descriptors)
	s.logger.Info("tool.refresh", "count", len(descriptors))
	return descriptors, nil
}

// Snapshot implements Source.
func (s *MCPSource) Snapshot() []Descriptor { return s.registry.Snapshot() }

// Invoke implements Source. Arguments are validated against the cached
// descriptor schema before the call leaves the process.
func (s *MCPSource) Invoke(ctx context.Context, req transcript.ToolCallRequest) (*Result, error) {
	desc, ok := s.registry.Describe(req.Name)
	if !ok {
		return nil, &Failure{
			Tool:    req.Name,
			Kind:    FailureUnknownTool,
			Message: "tool is not advertised by the server",
		}
	}
	if failure := ValidateArguments(desc, req.Arguments); failure != nil {
		return nil, failure
	}

	args := map[string]any{}
	if req.Arguments != "" {
		if err := json.Unmarshal([]byte(req.Arguments), &args); err != nil {
			return nil, &Failure{
				Tool:    req.Name,
				Kind:    FailureInvalidArguments,
				Message: "arguments are not a JSON object: " + err.Error(),
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = req.Name
	callReq.Params.Arguments = args

	resp, err := s.client.CallTool(ctx, callReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("tool.invoke.timeout", "tool", req.Name, "timeout", s.timeout)
			return nil, &Failure{
				Tool:    req.Name,
				Kind:    FailureTimeout,
				Message: fmt.Sprintf("call exceeded %s timeout", s.timeout),
			}
		}
		return nil, &Failure{
			Tool:    req.Name,
			Kind:    FailureRemoteError,
			Message: err.Error(),
		}
	}

	payload := contentText(resp.Content)
	if resp.IsError {
		return nil, &Failure{
			Tool:    req.Name,
			Kind:    FailureRemoteError,
			Message: payload,
		}
	}

	s.logger.Info("tool.invoke", "tool", req.Name, "duration_ms", time.Since(start).Milliseconds())
	return &Result{Tool: req.Name, Payload: payload}, nil
}

// Close tears down the MCP session.
func (s *MCPSource) Close() error { return s.client.Close() }

// schemaToMap converts the MCP input schema into a plain JSON Schema map.
func schemaToMap(schema mcp.ToolInputSchema) map[string]any {
	m := map[string]any{"type": schema.Type}
	if m["type"] == "" {
		m["type"] = "object"
	}
	if len(schema.Properties) > 0 {
		m["properties"] = schema.Properties
	}
	if len(schema.Required) > 0 {
		m["required"] = schema.Required
	}
	return m
}

// contentText concatenates the text blocks of a tool response.
func contentText(content []mcp.Content) string {
	var sb strings.Builder
	for _, c := range content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}
