// Package orchestrator runs an analysis session: it resolves the execution
// mode into waves of agents, dispatches each wave with a shared memory
// snapshot, records every outcome on the session and hands the results to
// the aggregator.
//
// Phases follow core.CanTransition:
//
//	initialized → dispatching → collecting → (dispatching → collecting)* → aggregating → completed
//	                  └──────────────┴──→ failed
//
// Agents of the same wave see the same snapshot, so parallel siblings never
// observe each other. Agent invocations are detached from the caller's
// cancellation and bounded only by their own timeout; a cancelled session
// stops waiting and discards whatever arrives later.
package orchestrator
