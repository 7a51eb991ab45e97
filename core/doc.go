// Package core provides the foundational domain types and contracts used by
// insighthub. It defines:
//
//   - Agents (the Produce capability and its result envelope)
//   - Sessions (one orchestration run with per-agent result slots)
//   - Findings variants (quantitative, research, synthesis)
//   - Memory entries and the MemoryBackend contract for shared context
//   - Consolidated reports and the externally visible SessionResult
//   - Typed errors surfaced at the orchestration boundary
//
// The package keeps implementation concerns (backends, concrete agents,
// scheduling) out of scope, exposing small interfaces so that alternative
// backends and agent variants can be plugged in without dependency cycles.
package core
