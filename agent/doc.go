// Package agent implements a synchronous function-calling loop around a
// model and a set of tools. Each Run handles one user turn: the model is
// asked for a complete assistant turn, requested tool calls are executed
// sequentially against the shared session, their results are fed back, and
// the loop continues until the model produces a final text answer or the
// step budget is exhausted.
//
// Tool executions within a turn run one after another on purpose: corpus
// tools communicate through session state (the current corpus, confirmed
// existence flags), and a later call must observe what an earlier one wrote.
// State deltas and history are persisted through the SessionStore after each
// step, so a durable store carries the corpus session cache across restarts.
package agent
