package core

import (
	"errors"
	"testing"
)

func TestMessageConstructors(t *testing.T) {
	u := NewUserMessage("hello")
	if u.Role != RoleUser || u.Text != "hello" || u.ID == "" {
		t.Fatalf("unexpected user message: %+v", u)
	}

	call := ToolCall{ID: NewID(), Name: "rag_query", Arguments: `{"query":"q"}`}
	m := NewToolCallMessage(call)
	if m.Role != RoleAssistant || !m.HasToolCalls() {
		t.Fatalf("unexpected tool call message: %+v", m)
	}
	if m.IsFinal() {
		t.Error("tool call message should not be final")
	}

	final := NewAssistantMessage("done")
	if !final.IsFinal() {
		t.Error("plain assistant message should be final")
	}
}

func TestNewToolResult(t *testing.T) {
	ok := NewToolResult("id1", "list_corpora", map[string]any{"status": "success"}, nil)
	if ok.Error != "" || ok.Result == nil {
		t.Fatalf("unexpected result: %+v", ok)
	}

	failed := NewToolResult("id2", "rag_query", map[string]any{"partial": true}, errors.New("boom"))
	if failed.Error != "boom" {
		t.Fatalf("expected error message, got %+v", failed)
	}
	if failed.Result != nil {
		t.Error("failed result should drop the payload")
	}
}
