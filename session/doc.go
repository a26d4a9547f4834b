// Package session houses concrete implementations of the core.SessionStore.
// The interface itself (and the Session struct) live in the core package
// to centralize domain contracts. Keeping only implementations here prevents
// higher level packages (agents, MCP server) from depending on concrete
// storage.
//
// The in-memory store below suits tests and ephemeral demos; the sqlite
// sub-package persists sessions (including the corpus session cache) across
// restarts. Add additional backends (Redis, Postgres, Firestore, etc.) in
// sub-packages without changing any calling code – only the wiring layer
// needs to decide which implementation to instantiate.
package session
