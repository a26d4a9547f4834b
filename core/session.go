package core

import (
	"sync"
	"time"
)

// Session represents a conversational container tracking mutable key/value
// state plus an ordered message history. It is safe for concurrent access.
//
// Contract:
//   - State mutations update the Updated timestamp
//   - GetHistory returns a defensive copy to avoid external mutation
//   - SetStateIfAbsent performs its check-then-set under one lock so a key is
//     written at most once across concurrent callers
//   - Clone performs deep copies of maps/slices for safe divergence.
type Session struct {
	ID       string                 `json:"id"`
	State    map[string]interface{} `json:"state"`
	History  []Message              `json:"history"`
	Created  time.Time              `json:"created"`
	Updated  time.Time              `json:"updated"`
	Metadata map[string]string      `json:"metadata"`
	mu       sync.RWMutex
}

// NewSession creates a new session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, State: map[string]interface{}{}, History: []Message{}, Created: now, Updated: now, Metadata: map[string]string{}}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a key/value pair in session state updating the Updated timestamp.
func (s *Session) SetState(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now()
}

// SetStateIfAbsent sets key to value only when the key is not present yet.
// It reports whether the write happened. Check and write run under a single
// lock acquisition.
func (s *Session) SetStateIfAbsent(key string, value interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.State[key]; ok {
		return false
	}
	s.State[key] = value
	s.Updated = time.Now()
	return true
}

// ApplyStateDelta merges the provided key/value pairs into State.
func (s *Session) ApplyStateDelta(delta map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.State[k] = v
	}
	s.Updated = time.Now()
}

// AppendHistory appends messages to the history updating the Updated timestamp.
func (s *Session) AppendHistory(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History, msgs...)
	s.Updated = time.Now()
}

// GetHistory returns a defensive copy of the full message history.
func (s *Session) GetHistory() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]Message, len(s.History))
	copy(history, s.History)
	return history
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{ID: s.ID, State: make(map[string]interface{}, len(s.State)), History: make([]Message, len(s.History)), Created: s.Created, Updated: s.Updated, Metadata: make(map[string]string, len(s.Metadata))}
	for k, v := range s.State {
		clone.State[k] = v
	}
	copy(clone.History, s.History)
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// SessionStore persists sessions and their evolving state / message history.
type SessionStore interface {
	Create(id string) (*Session, error)
	Get(id string) (*Session, error)
	AppendHistory(sessionID string, msgs ...Message) error
	ApplyDelta(sessionID string, delta map[string]interface{}) error
}
