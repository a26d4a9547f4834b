package core

import (
	"time"

	"github.com/google/uuid"
)

// Conversation roles used in Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model-issued request to execute a named tool with raw JSON
// arguments. The ID correlates the eventual ToolResult back to this call.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult captures the outcome of a previously issued ToolCall. Result
// holds the structured payload returned by the tool; Error carries a
// human-readable failure description when execution failed.
type ToolResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Message is the unit of conversation history. After being appended to a
// session it should be treated as immutable. A message carries either plain
// text, tool calls (assistant requesting execution) or tool results (the
// completed outcomes), never a mix of calls and results.
type Message struct {
	ID          string       `json:"id"`
	Role        string       `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// NewID generates a new unique identifier for messages, sessions and
// function calls.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }

func newMessage(role string) Message {
	return Message{ID: NewID(), Role: role, Timestamp: time.Now().UTC()}
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	m := newMessage(RoleUser)
	m.Text = text
	return m
}

// NewAssistantMessage creates an assistant-authored text message.
func NewAssistantMessage(text string) Message {
	m := newMessage(RoleAssistant)
	m.Text = text
	return m
}

// NewToolCallMessage creates an assistant message requesting execution of one
// or more tools.
func NewToolCallMessage(calls ...ToolCall) Message {
	m := newMessage(RoleAssistant)
	m.ToolCalls = calls
	return m
}

// NewToolResultMessage creates a tool-role message carrying completed results.
func NewToolResultMessage(results ...ToolResult) Message {
	m := newMessage(RoleTool)
	m.ToolResults = results
	return m
}

// NewToolResult builds a ToolResult for a call. If err is non-nil its message
// is copied into the Error field and the result payload is dropped.
func NewToolResult(id, name string, result any, err error) ToolResult {
	tr := ToolResult{ID: id, Name: name, Result: result}
	if err != nil {
		tr.Error = err.Error()
		tr.Result = nil
	}
	return tr
}

// HasToolCalls reports whether the message requests tool execution.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// IsFinal reports whether the message completes an assistant turn, i.e. it
// neither requests tool execution nor carries tool results awaiting a
// follow-up model call.
func (m Message) IsFinal() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) == 0 && len(m.ToolResults) == 0
}
