// Package debate defines the data model for a triad debate: a multi-round
// exchange among three fixed roles (proposer, critic, refiner) that converges
// on a single code solution for a stated problem.
//
// # Session Lifecycle
//
// A debate session progresses through three states:
//
//   - Active: rounds are still being played
//   - Converged: voting score and uncertainty level both crossed their
//     configured thresholds in the same round
//   - Escalated: the round limit was reached, or failures accumulated,
//     without convergence; a human decision is required
//
// Converged and Escalated are mutually exclusive terminal states. Rounds are
// append-only and immutable once attached to a session; the session's running
// voting score and uncertainty level always mirror the latest round.
//
// The orchestration loop that drives a session lives in
// internal/orchestrator; the per-round scoring lives in internal/synthesis.
package debate
