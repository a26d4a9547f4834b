// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language models inside ragmesh.
//
// Core goals:
//   - Complete-turn generation behind a single interface (the tool loop needs
//     whole assistant turns; streaming surfaces are out of scope)
//   - Normalize tool / function call representation (ToolDefinition, core.ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. Anthropic, OpenAI, Gemini) implement the Model interface
// from this package so higher layers (agents) remain decoupled from vendor
// SDKs.
package model
