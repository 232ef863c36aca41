// Package session provides conversation continuity across executions. A store
// keeps the user and model turns of prior exchanges per session ID so a
// follow-up prompt can be answered in context. Tool call and tool result turns
// are deliberately not persisted: tool provenance is scoped to a single run
// and must never leak into a later one.
package session

import (
	"sync"

	"github.com/provenlabs/agentcore/transcript"
)

// Store persists conversation history keyed by session ID.
type Store interface {
	// History returns the recorded turns for a session in order. An unknown
	// session yields an empty history, not an error.
	History(sessionID string) []transcript.Turn
	// Append adds turns to the end of a session, creating it if needed.
	Append(sessionID string, turns ...transcript.Turn) error
	// Delete removes a session and its history.
	Delete(sessionID string) error
}

// InMemoryStore is a volatile Store implementation backed by a process-local
// map. It is safe for concurrent access and suited to single-instance
// deployments; history is lost on restart. Returned histories are copies, so
// callers can never mutate internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]transcript.Turn
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]transcript.Turn)}
}

// History implements Store.
func (s *InMemoryStore) History(sessionID string) []transcript.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.sessions[sessionID]
	out := make([]transcript.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append implements Store.
func (s *InMemoryStore) Append(sessionID string, turns ...transcript.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turns...)
	return nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
