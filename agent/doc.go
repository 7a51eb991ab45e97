// Package agent contains the analysis agents of insighthub and the single
// entry point the orchestrator uses to run them. The package focuses on three
// concerns:
//
//  1. Shared identity + model plumbing (BaseAgent, Instruction)
//  2. Failure absorption (Invoke turns timeouts, errors and panics into
//     failed core.AgentResults)
//  3. Concrete variants (QuantitativeAgent, ResearchAgent, SynthesisAgent)
//
// Design principles:
//   - Agents are plain values implementing core.Agent; there is no hierarchy
//   - Agents never touch the memory store; they read the SharedContext snapshot
//     they are handed and return findings
//   - Every model call goes through model.Complete so providers stay pluggable
//
// Text heuristics (number, trend and statistics extraction) live in
// extract.go and are deterministic for a given model reply.
package agent
