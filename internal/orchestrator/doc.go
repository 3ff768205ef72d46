// Package orchestrator drives the debate round loop.
//
// Each round issues three model calls with per-call retry: the proposer
// first, then the critic and refiner concurrently (both of their prompts
// embed the proposer's output, so true three-way parallelism is not
// possible). The round's responses are aggregated by the synthesis engine,
// the completed round is appended to the session, and a pure decision
// function determines whether the debate continues, converges, or
// escalates.
//
// Run never raises for business failures: model-call failures become data
// on the round, heavy failure accumulation becomes an escalation, and an
// unexpected panic inside the loop is converted into an escalation with the
// panic message as the reason. The returned session is always well formed.
package orchestrator
