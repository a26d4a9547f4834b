package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/tool"
)

// Options configures a Server.
type Options struct {
	// Logger receives tool invocation events.
	Logger logging.Logger
	// Session backs the connection's corpus session cache. Defaults to a
	// fresh session per server.
	Session *core.Session
}

// Server bridges tool.Tool implementations onto an MCP server.
type Server struct {
	server  *sdk.Server
	session *core.Session
	logger  logging.Logger
}

// NewServer builds an MCP server exposing the given tools.
func NewServer(name, version string, tools []tool.Tool, optFns ...func(o *Options)) (*Server, error) {
	opts := Options{
		Logger:  logging.NoOpLogger{},
		Session: core.NewSession(core.NewID()),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		server: sdk.NewServer(&sdk.Implementation{
			Name:    name,
			Version: version,
		}, nil),
		session: opts.Session,
		logger:  opts.Logger,
	}

	for _, t := range tools {
		if err := s.register(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// register converts one tool's declaration and wires its handler.
func (s *Server) register(t tool.Tool) error {
	schema, err := toSchema(t.Parameters())
	if err != nil {
		return fmt.Errorf("converting schema for tool %q: %w", t.Name(), err)
	}

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: schema,
		Annotations: annotationsFor(t.Name()),
	}, func(ctx context.Context, req *sdk.CallToolRequest, args map[string]any) (*sdk.CallToolResult, any, error) {
		return s.invoke(ctx, t, args), nil, nil
	})
	return nil
}

// invoke executes a tool against the connection session and shapes the
// outcome as an MCP result. Tool failures travel in-band (IsError) so the
// client model can read and react to them; they are never protocol errors.
func (s *Server) invoke(ctx context.Context, t tool.Tool, args map[string]any) *sdk.CallToolResult {
	if args == nil {
		args = map[string]any{}
	}

	toolCtx := core.NewToolContext(ctx, s.session, core.NewID(), s.logger)

	out, err := t.Call(toolCtx, args)
	if err != nil {
		s.logger.Warn("mcp.tool.error", "tool", t.Name(), "error", err.Error())
		return &sdk.CallToolResult{
			IsError: true,
			Content: []sdk.Content{&sdk.TextContent{Text: err.Error()}},
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return &sdk.CallToolResult{
			IsError: true,
			Content: []sdk.Content{&sdk.TextContent{Text: fmt.Sprintf("encoding tool result: %v", err)}},
		}
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(data)}},
	}
}

// Run serves the toolset on stdio until the context is canceled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Connect attaches the server to an arbitrary transport. Used by tests and
// by hosts embedding the server in-process.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// toSchema converts the tool package's map-shaped JSON schema into the SDK's
// schema type via a JSON round-trip.
func toSchema(params map[string]any) (*jsonschema.Schema, error) {
	if params == nil {
		params = map[string]any{"type": "object"}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// annotationsFor classifies the corpus tools for MCP hosts that gate
// destructive operations behind confirmation.
func annotationsFor(name string) *sdk.ToolAnnotations {
	boolPtr := func(b bool) *bool { return &b }
	switch name {
	case "list_corpora", "get_corpus_info", "rag_query":
		return &sdk.ToolAnnotations{ReadOnlyHint: true}
	case "delete_corpus", "delete_document":
		return &sdk.ToolAnnotations{DestructiveHint: boolPtr(true)}
	default:
		return &sdk.ToolAnnotations{DestructiveHint: boolPtr(false)}
	}
}
