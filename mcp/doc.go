// Package mcp serves the corpus toolset over the Model Context Protocol, so
// MCP clients (Claude Desktop, editors, other agent hosts) can manage and
// query corpora without embedding the agent loop.
//
// One MCP connection maps to one conversation session: the server holds a
// single core.Session carrying the corpus session cache (current corpus,
// confirmed existence flags), so follow-up tool calls from the same client
// resolve implicit targets exactly like agent-hosted calls do.
package mcp
