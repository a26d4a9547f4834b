package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/hupe1980/ragmesh/logging"
)

// ToolContext provides a constrained, auditable surface for tool / function
// implementations invoked during an agent turn. State writes go through to
// the underlying session immediately (later tool calls in the same turn must
// observe them) while also accumulating in a delta for store persistence.
type ToolContext struct {
	ctx            context.Context
	session        *Session
	functionCallID string
	stateDelta     map[string]any
	valid          bool

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a session and a unique
// functionCallID.
func NewToolContext(ctx context.Context, session *Session, functionCallID string, logger logging.Logger) *ToolContext {
	return &ToolContext{
		ctx:            ctx,
		session:        session,
		functionCallID: functionCallID,
		stateDelta:     map[string]any{},
		valid:          session != nil,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context {
	if tc.ctx == nil {
		return context.Background()
	}
	return tc.ctx
}

// SessionID returns the session ID associated with the tool invocation.
func (tc *ToolContext) SessionID() string {
	if tc.session == nil {
		return ""
	}
	return tc.session.ID
}

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// GetState retrieves the state associated with the given key.
func (tc *ToolContext) GetState(k string) (any, bool) {
	if tc.session == nil {
		return nil, false
	}
	return tc.session.GetState(k)
}

// SetState records a state mutation on the session (for immediate visibility
// within the turn) and in the local delta for persistence.
func (tc *ToolContext) SetState(k string, v any) {
	if tc.session != nil {
		tc.session.SetState(k, v)
	}
	tc.stateDelta[k] = v
}

// SetStateIfAbsent writes k only when the session does not hold it yet and
// reports whether the write happened. A successful write is recorded in the
// delta like SetState.
func (tc *ToolContext) SetStateIfAbsent(k string, v any) bool {
	if tc.session == nil {
		return false
	}
	if !tc.session.SetStateIfAbsent(k, v) {
		return false
	}
	tc.stateDelta[k] = v
	return true
}

// StateDelta returns a copy of the state mutations accumulated by this tool
// invocation. The hosting loop persists it via SessionStore.ApplyDelta.
func (tc *ToolContext) StateDelta() map[string]any {
	cp := make(map[string]any, len(tc.stateDelta))
	maps.Copy(cp, tc.stateDelta)
	return cp
}

// History returns the session's conversation history for context.
func (tc *ToolContext) History() []Message {
	if tc.session == nil {
		return nil
	}
	return tc.session.GetHistory()
}

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if !tc.valid || tc.session == nil || tc.session.ID == "" || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}

	return nil
}

// IsValid reports whether Validate would succeed (fast path).
func (tc *ToolContext) IsValid() bool {
	return tc.valid && tc.session != nil && tc.session.ID != "" && tc.functionCallID != ""
}
