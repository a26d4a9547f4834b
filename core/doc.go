// Package core provides the foundational domain types, interfaces and execution
// contexts used by RagMesh. It defines the core abstractions for:
//
//   - Sessions (stateful conversational containers with message history)
//   - Messages (immutable conversation records incl. tool calls/results)
//   - ToolContext (scoped execution surface handed to tool implementations)
//   - A pluggable SessionStore for session persistence
//
// The package intentionally keeps implementation concerns (persistence
// backends, registry gateways, concrete tools) out of scope, exposing small
// interfaces to enable custom backends and extensions. All exported
// identifiers include concise documentation to aid discoverability and
// external consumption.
package core
