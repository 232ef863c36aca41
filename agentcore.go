// Package agentcore provides a façade over the orchestration core for
// building verified tool-using agents. Most applications:
//  1. Load configuration via config.Load()
//  2. Create a Core via New() (optionally overriding gateway, tools, validator)
//  3. Use the capability-scoped agents (Chat, Search, Image)
//
// Capability differences between agents are configuration — which tools are
// advertised, whether tool grounding is required — not subclassing.
package agentcore

import (
	"context"

	"github.com/provenlabs/agentcore/agent"
	"github.com/provenlabs/agentcore/artifact"
	"github.com/provenlabs/agentcore/config"
	"github.com/provenlabs/agentcore/logging"
	"github.com/provenlabs/agentcore/model"
	"github.com/provenlabs/agentcore/model/openai"
	"github.com/provenlabs/agentcore/structured"
	"github.com/provenlabs/agentcore/tool"
)

// Capability describes one agent exposed by the core.
type Capability struct {
	Description   string `json:"description"`
	UsesTools     bool   `json:"uses_tools"`
	RequiresTools bool   `json:"requires_tools"`
}

// Options configure the Core, defaulting each collaborator from config.
type Options struct {
	// Gateway overrides the default OpenAI-compatible gateway.
	Gateway model.Gateway
	// Tools overrides the default MCP tool source.
	Tools tool.Source
	// Validator overrides the default artifact validator.
	Validator *artifact.Validator
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Core aggregates the configured collaborators and the capability-scoped
// agents built on them. Safe for concurrent use.
type Core struct {
	cfg       *config.Config
	validator *artifact.Validator

	chat   *agent.Agent
	search *agent.Agent
	image  *ImageAgent
}

// New creates a Core from validated configuration.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Gateway == nil {
		gw := openai.New(func(o *openai.Options) {
			o.BaseURL = cfg.GatewayBaseURL
			o.APIKey = cfg.GatewayAPIKey
		})
		opts.Gateway = model.WithRetry(gw, func(o *model.RetryOptions) {
			o.Logger = opts.Logger
		})
	}

	if opts.Tools == nil && cfg.ToolsConfigured() {
		src, err := tool.NewMCPSource(cfg.ToolServerURL, func(o *tool.MCPOptions) {
			o.AuthToken = cfg.ToolServerToken
			o.CallTimeout = cfg.CallTimeout
			o.Logger = opts.Logger
		})
		if err != nil {
			return nil, err
		}
		opts.Tools = src
	}

	if opts.Validator == nil {
		opts.Validator = artifact.NewValidator(cfg.TrustedOrigins, func(o *artifact.Options) {
			o.Logger = opts.Logger
		})
	}

	core := &Core{cfg: cfg, validator: opts.Validator}

	core.chat = agent.New("chat_agent", cfg.ModelName, opts.Gateway, func(o *agent.Options) {
		o.Instructions = "You are a helpful conversational assistant. Answer directly and concisely."
		o.MaxRounds = cfg.MaxRounds
		o.Logger = opts.Logger
	})

	core.search = agent.New("search_agent", cfg.ModelName, opts.Gateway, func(o *agent.Options) {
		o.Instructions = "You are a research assistant. Use the available tools to " +
			"ground your answers in live data, and cite what the tools returned."
		o.MaxRounds = cfg.MaxRounds
		o.Tools = opts.Tools
		o.Logger = opts.Logger
	})

	core.image = &ImageAgent{
		Agent: agent.New("image_agent", cfg.ModelName, opts.Gateway, func(o *agent.Options) {
			o.Instructions = "You are an image generation assistant. Use the image " +
				"generation tool and include the resulting image URL in your answer."
			o.MaxRounds = cfg.MaxRounds
			o.Tools = opts.Tools
			o.RequireToolUse = true
			o.Logger = opts.Logger
		}),
		validator: opts.Validator,
	}

	return core, nil
}

// Chat returns the tool-less conversational agent.
func (c *Core) Chat() *agent.Agent { return c.chat }

// Search returns the tool-using research agent.
func (c *Core) Search() *agent.Agent { return c.search }

// Image returns the artifact-producing agent.
func (c *Core) Image() *ImageAgent { return c.image }

// Capabilities reports the agents exposed by this core.
func (c *Core) Capabilities() map[string]Capability {
	return map[string]Capability{
		"chat_agent": {
			Description: "General conversation without tool access",
		},
		"search_agent": {
			Description: "Tool-grounded research and web search",
			UsesTools:   true,
		},
		"image_agent": {
			Description:   "Image generation with verified artifact provenance",
			UsesTools:     true,
			RequiresTools: true,
		},
	}
}

// ImageAgent specializes the agent contract for artifact-producing runs:
// GenerateStructured returns a typed result whose success requires both tool
// provenance and a passing artifact validation.
type ImageAgent struct {
	*agent.Agent
	validator *artifact.Validator
}

// GenerateStructured executes the prompt with tools enabled and extracts a
// validated artifact reference from the response.
func (a *ImageAgent) GenerateStructured(ctx context.Context, prompt string) *structured.Result {
	resp := a.Execute(ctx, prompt, true)
	return structured.Extract(ctx, resp, a.validator)
}
