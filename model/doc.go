// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with language models inside insighthub.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Agents treat a model as an opaque text-completion capability and use the
// Complete helper; providers (OpenAI, Anthropic) implement the Model
// interface so agents remain decoupled from vendor SDKs.
package model
