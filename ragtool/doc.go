// Package ragtool provides the corpus management toolset: create, list,
// populate, inspect, prune, delete and query document corpora in the remote
// registry.
//
// Every tool resolves its corpus argument through the resolve package, so
// callers may pass a display name, a fragment of one, a bare ID or a full
// resource name, or omit the argument entirely to act on the session's
// current corpus. Tools report outcomes as structured map results with
// status and message fields rather than bare errors, so the calling model
// can read and react to failures.
package ragtool
