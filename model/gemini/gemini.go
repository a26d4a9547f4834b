// Package gemini provides a model wrapper for the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/model"
)

// Options configures the Gemini model adapter. Extend via functional options
// to preserve stability.
type Options struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int32
	APIKey          string
}

// Model wraps the Gemini API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a new Gemini model. The API key falls back to the SDK's
// environment lookup when not set.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a new Gemini model from an existing client
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:           "gemini-2.0-flash",
		Temperature:     0.7,
		MaxOutputTokens: 4096,
	}
}

// Generate adapts one GenerateContent call (with function calling) into a
// complete model.Response turn.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(m.opts.Temperature)),
		MaxOutputTokens: m.opts.MaxOutputTokens,
	}

	if req.Instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}

	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: buildDeclarations(req.Tools)}}
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, buildContents(req.Messages), config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates returned")
	}

	candidate := resp.Candidates[0]
	msg := core.Message{ID: core.NewID(), Role: core.RoleAssistant}
	for _, part := range candidate.Content.Parts {
		switch {
		case part.Text != "":
			msg.Text += part.Text
		case part.FunctionCall != nil:
			args := "{}"
			if len(part.FunctionCall.Args) > 0 {
				if encoded, err := json.Marshal(part.FunctionCall.Args); err == nil {
					args = string(encoded)
				}
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = core.NewID()
			}
			msg.ToolCalls = append(msg.ToolCalls, core.ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}

	out := &model.Response{
		Message:      msg,
		FinishReason: strings.ToLower(string(candidate.FinishReason)),
	}
	if resp.UsageMetadata != nil {
		out.Usage = &model.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return out, nil
}

// buildContents converts the conversation to Gemini contents. Assistant
// turns map to the model role; tool results travel as function response
// parts in a user-role content, paired by function name.
func buildContents(messages []core.Message) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case core.RoleAssistant:
			var parts []*genai.Part
			if msg.Text != "" {
				parts = append(parts, genai.NewPartFromText(msg.Text))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					Name: call.Name,
					Args: decodeArgs(call.Arguments),
				}})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}
		case core.RoleTool:
			var parts []*genai.Part
			for _, result := range msg.ToolResults {
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					Name:     result.Name,
					Response: resultPayload(result),
				}})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
			}
		default:
			if msg.Text != "" {
				contents = append(contents, genai.NewContentFromText(msg.Text, genai.RoleUser))
			}
		}
	}

	return contents
}

// decodeArgs parses a tool call argument payload into the map shape the
// Gemini API requires.
func decodeArgs(args string) map[string]any {
	if args == "" {
		return map[string]any{}
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(args), &decoded); err != nil {
		return map[string]any{"raw": args}
	}
	return decoded
}

// resultPayload wraps a tool result in the map shape function responses use.
func resultPayload(result core.ToolResult) map[string]any {
	if result.Error != "" {
		return map[string]any{"error": result.Error}
	}
	if m, ok := result.Result.(map[string]any); ok {
		return m
	}
	return map[string]any{"output": result.Result}
}

// buildDeclarations converts tool definitions to Gemini function declarations.
func buildDeclarations(tools []model.ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  mapToSchema(t.Parameters),
		}
	}
	return decls
}

// mapToSchema converts the minimal JSON-Schema-like parameter maps used by
// tools into genai schemas. Unknown fields are ignored.
func mapToSchema(params map[string]any) *genai.Schema {
	if params == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	schema := &genai.Schema{Type: schemaType(params["type"])}

	if desc, ok := params["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = mapToSchema(propMap)
			}
		}
	}

	if items, ok := params["items"].(map[string]any); ok {
		schema.Items = mapToSchema(items)
	}

	switch req := params["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	return schema
}

// schemaType maps JSON schema type names to genai types.
func schemaType(t any) genai.Type {
	name, _ := t.(string)
	switch name {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object", "":
		return genai.TypeObject
	default:
		return genai.TypeObject
	}
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
