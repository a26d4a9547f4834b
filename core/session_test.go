package core

import "testing"

func TestSession_ApplyStateDeltaAndClone(t *testing.T) {
	s := NewSession("s1")

	delta := map[string]any{"a": 1, "b": "x"}

	s.ApplyStateDelta(delta)
	if v, ok := s.GetState("a"); !ok || v.(int) != 1 {
		t.Fatalf("State not applied: %+v", s.State)
	}

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.SetState("c", 2)
	if _, exists := s.GetState("c"); exists {
		t.Error("Original should not have clone's new key")
	}
}

func TestSession_SetStateIfAbsent(t *testing.T) {
	s := NewSession("s2")

	if !s.SetStateIfAbsent("current_corpus", "notes") {
		t.Fatal("first write should succeed")
	}
	if s.SetStateIfAbsent("current_corpus", "other") {
		t.Fatal("second write should be rejected")
	}
	if v, _ := s.GetState("current_corpus"); v != "notes" {
		t.Errorf("expected first value to win, got %v", v)
	}

	s.SetState("flag", false)
	if s.SetStateIfAbsent("flag", true) {
		t.Error("present key (even zero-valued) should not be overwritten")
	}
}

func TestSession_AppendHistory(t *testing.T) {
	s := NewSession("s3")
	s.AppendHistory(NewAssistantMessage("hello"))
	s.AppendHistory(NewUserMessage("hi"))

	all := s.GetHistory()
	if len(all) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(all))
	}

	orig := all[0].Role
	all[0].Role = "changed"
	if s.GetHistory()[0].Role != orig {
		t.Error("history slice should be copied on read")
	}
}
