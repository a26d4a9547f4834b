package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/ragmesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset
// expected). Provider adapters re-wrap this into vendor wire formats.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input assembled by the agent loop.
type Request struct {
	Instructions string           `json:"instructions"` // System instructions for the model
	Messages     []core.Message   `json:"messages"`     // Conversation so far, oldest first
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one complete assistant turn.
type Response struct {
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "anthropic", "openai", "gemini", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	// Generate produces one complete assistant turn for the request.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Scripted turns queued via AddTextTurn / AddToolCallTurn are served in
// order; once the queue is empty a canned echo of the last user message is
// produced. Requests are recorded for assertions.
type MockModel struct {
	mu    sync.Mutex
	info  Info
	turns []Response
	reqs  []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
	}
}

// AddTextTurn queues a plain assistant reply.
func (m *MockModel) AddTextTurn(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Response{
		Message:      core.NewAssistantMessage(text),
		FinishReason: "stop",
	})
}

// AddToolCallTurn queues an assistant turn that requests the given tool calls.
func (m *MockModel) AddToolCallTurn(calls ...core.ToolCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Response{
		Message:      core.NewToolCallMessage(calls...),
		FinishReason: "tool_calls",
	})
}

// Requests returns a copy of all requests seen so far, oldest first.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Request, len(m.reqs))
	copy(cp, m.reqs)
	return cp
}

// Generate implements Model; serves the next scripted turn.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)

	if len(m.turns) > 0 {
		next := m.turns[0]
		m.turns = m.turns[1:]
		return &next, nil
	}

	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == core.RoleUser {
			lastUser = req.Messages[i].Text
			break
		}
	}

	resp := Response{
		Message:      core.NewAssistantMessage(fmt.Sprintf("Mock response to: %s", lastUser)),
		FinishReason: "stop",
	}
	return &resp, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
