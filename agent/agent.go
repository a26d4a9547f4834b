package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/model"
	"github.com/hupe1980/ragmesh/session"
	"github.com/hupe1980/ragmesh/tool"
)

// defaultMaxSteps bounds model round-trips per Run so a model that keeps
// requesting tools cannot loop forever.
const defaultMaxSteps = 10

// Options configures an Agent.
type Options struct {
	// Instruction supplies the system instructions, statically or derived
	// from session state.
	Instruction Instruction
	// SessionStore persists session state and history (defaults to in-memory).
	SessionStore core.SessionStore
	// Logger receives loop and tool events.
	Logger logging.Logger
	// MaxSteps bounds model round-trips per Run.
	MaxSteps int
}

// Agent drives one model and a fixed set of tools over a shared session.
type Agent struct {
	name        string
	model       model.Model
	tools       []tool.Tool
	toolsByName map[string]tool.Tool
	instruction Instruction
	store       core.SessionStore
	logger      logging.Logger
	maxSteps    int
}

// Result summarizes one completed Run.
type Result struct {
	// Text is the model's final answer for the turn.
	Text string
	// Messages are the messages produced during this run, oldest first,
	// starting with the user message.
	Messages []core.Message
	// Steps counts the model round-trips taken.
	Steps int
}

// New constructs an agent for the given model and tools.
func New(name string, m model.Model, tools []tool.Tool, optFns ...func(o *Options)) *Agent {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
		MaxSteps:     defaultMaxSteps,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	byName := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}

	return &Agent{
		name:        name,
		model:       m,
		tools:       tools,
		toolsByName: byName,
		instruction: opts.Instruction,
		store:       opts.SessionStore,
		logger:      opts.Logger,
		maxSteps:    opts.MaxSteps,
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Tools returns the registered tools.
func (a *Agent) Tools() []tool.Tool { return a.tools }

// toolDefinitions converts the registered tools into model tool declarations.
func (a *Agent) toolDefinitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Run handles one user turn against the session identified by sessionID.
//
// The session is loaded once and mutated in place during the turn; history
// and tool state deltas are written through to the store after each step. A
// tool failure is reported back to the model as an error-flagged result, not
// as a run abort, so the model can react (retry, pick another corpus,
// apologize). Run returns an error only for infrastructure failures: store
// access, model transport, or step-budget exhaustion.
func (a *Agent) Run(ctx context.Context, sessionID, text string) (*Result, error) {
	sess, err := a.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", sessionID, err)
	}

	result := &Result{}
	userMsg := core.NewUserMessage(text)
	if err := a.commit(sess, userMsg); err != nil {
		return nil, err
	}
	result.Messages = append(result.Messages, userMsg)

	defs := a.toolDefinitions()

	for step := 0; step < a.maxSteps; step++ {
		instructions, err := a.instruction.Resolve(sess)
		if err != nil {
			return nil, fmt.Errorf("resolving instructions: %w", err)
		}

		resp, err := a.model.Generate(ctx, model.Request{
			Instructions: instructions,
			Messages:     sess.GetHistory(),
			Tools:        defs,
		})
		if err != nil {
			return nil, fmt.Errorf("generating turn: %w", err)
		}
		result.Steps++

		if err := a.commit(sess, resp.Message); err != nil {
			return nil, err
		}
		result.Messages = append(result.Messages, resp.Message)

		if !resp.Message.HasToolCalls() {
			result.Text = resp.Message.Text
			a.logger.Info("agent.run.complete", "agent", a.name, "session", sessionID, "steps", result.Steps)
			return result, nil
		}

		resultMsg, err := a.executeToolCalls(ctx, sess, resp.Message.ToolCalls)
		if err != nil {
			return nil, err
		}
		if err := a.commit(sess, resultMsg); err != nil {
			return nil, err
		}
		result.Messages = append(result.Messages, resultMsg)
	}

	return nil, fmt.Errorf("agent %q exceeded %d steps without a final answer", a.name, a.maxSteps)
}

// executeToolCalls runs the requested calls one after another. Sequential
// execution is load-bearing: corpus tools coordinate through session state,
// and a later call must see what an earlier one wrote.
func (a *Agent) executeToolCalls(ctx context.Context, sess *core.Session, calls []core.ToolCall) (core.Message, error) {
	results := make([]core.ToolResult, 0, len(calls))

	for _, call := range calls {
		toolCtx := core.NewToolContext(ctx, sess, call.ID, a.logger)

		t, ok := a.toolsByName[call.Name]
		if !ok {
			a.logger.Warn("agent.tool.unknown", "agent", a.name, "tool", call.Name)
			results = append(results, core.NewToolResult(call.ID, call.Name, nil,
				fmt.Errorf("unknown tool %q", call.Name)))
			continue
		}

		args := map[string]any{}
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				results = append(results, core.NewToolResult(call.ID, call.Name, nil,
					fmt.Errorf("invalid tool arguments: %w", err)))
				continue
			}
		}

		out, err := t.Call(toolCtx, args)
		results = append(results, core.NewToolResult(call.ID, call.Name, out, err))

		if delta := toolCtx.StateDelta(); len(delta) > 0 {
			if err := a.store.ApplyDelta(sess.ID, delta); err != nil {
				return core.Message{}, fmt.Errorf("persisting state delta: %w", err)
			}
		}
	}

	return core.NewToolResultMessage(results...), nil
}

// commit appends the message to the live session and writes it through to
// the store.
func (a *Agent) commit(sess *core.Session, msg core.Message) error {
	sess.AppendHistory(msg)
	if err := a.store.AppendHistory(sess.ID, msg); err != nil {
		return fmt.Errorf("persisting history: %w", err)
	}
	return nil
}
