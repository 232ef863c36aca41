// Package server exposes the agent core over HTTP. The handlers only adapt
// the agent contract to request/response framing; orchestration, provenance
// and validation all live below this layer.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"github.com/provenlabs/agentcore"
	"github.com/provenlabs/agentcore/agent"
	"github.com/provenlabs/agentcore/session"
	"github.com/provenlabs/agentcore/structured"
	"github.com/provenlabs/agentcore/transcript"
)

// Executor is the agent contract consumed by the chat and search endpoints.
type Executor interface {
	Execute(ctx context.Context, prompt string, useTools bool) *agent.Response
	ExecuteWithHistory(ctx context.Context, history []transcript.Turn, prompt string, useTools bool) *agent.Response
}

// StructuredGenerator is the contract consumed by the image endpoint.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string) *structured.Result
}

// Options configure the HTTP server.
type Options struct {
	// ServiceName labels request log lines.
	ServiceName string
	// RequestLogging toggles the httplog middleware.
	RequestLogging bool
	// Sessions stores chat history for requests carrying a session_id.
	Sessions session.Store
}

// Server routes HTTP requests to the capability-scoped agents.
type Server struct {
	chat         Executor
	search       Executor
	image        StructuredGenerator
	capabilities map[string]agentcore.Capability
	sessions     session.Store
	router       chi.Router
}

// New builds the router over the given agents.
func New(
	chat, search Executor,
	image StructuredGenerator,
	capabilities map[string]agentcore.Capability,
	optFns ...func(o *Options),
) *Server {
	opts := Options{
		ServiceName:    "agentcore",
		RequestLogging: true,
		Sessions:       session.NewInMemoryStore(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		chat:         chat,
		search:       search,
		image:        image,
		capabilities: capabilities,
		sessions:     opts.Sessions,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if opts.RequestLogging {
		logger := httplog.NewLogger(opts.ServiceName, httplog.Options{JSON: true, Concise: true})
		r.Use(httplog.RequestLogger(logger))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleRoot)
		r.Post("/chat", s.handleChat)
		r.Post("/search", s.handleSearch)
		r.Post("/images", s.handleImages)
		r.Get("/agents/capabilities", s.handleCapabilities)
	})
	s.router = r
	return s
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

type chatRequest struct {
	Message   string `json:"message"`
	AgentType string `json:"agent_type"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Success   bool           `json:"success"`
	Response  string         `json:"response"`
	SessionID string         `json:"session_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: "message is required"})
		return
	}

	executor := s.chat
	useTools := false
	if req.AgentType == "search" {
		executor = s.search
		useTools = true
	}

	var history []transcript.Turn
	if req.SessionID != "" && s.sessions != nil {
		history = s.sessions.History(req.SessionID)
	}

	resp := executor.ExecuteWithHistory(r.Context(), history, req.Message, useTools)

	// Only completed exchanges become history; a failed run contributes no
	// context to the next prompt.
	if req.SessionID != "" && s.sessions != nil && resp.Success {
		_ = s.sessions.Append(req.SessionID,
			transcript.UserTurn{Text: req.Message},
			transcript.ModelTurn{Text: resp.Content},
		)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Success:   resp.Success,
		Response:  resp.Content,
		SessionID: req.SessionID,
		Metadata:  resp.Metadata,
		Error:     resp.Error,
	})
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Success  bool           `json:"success"`
	Summary  string         `json:"summary"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, searchResponse{Error: "query is required"})
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 5
	}

	prompt := fmt.Sprintf(
		"Use web search to answer the following query, summarizing at most %d results: %s",
		req.MaxResults, req.Query,
	)
	resp := s.search.Execute(r.Context(), prompt, true)
	writeJSON(w, http.StatusOK, searchResponse{
		Success:  resp.Success,
		Summary:  resp.Content,
		Metadata: resp.Metadata,
		Error:    resp.Error,
	})
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "prompt is required",
		})
		return
	}
	writeJSON(w, http.StatusOK, s.image.GenerateStructured(r.Context(), req.Prompt))
}

func (s *Server) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"capabilities": s.capabilities,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
