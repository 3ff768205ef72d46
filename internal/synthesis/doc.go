// Package synthesis turns one debate round's three model responses into a
// scored, ranked synthesis result.
//
// The engine builds a 3x3 rating matrix (every role rates every role's
// output), computes a voting score and uncertainty level from it, ranks the
// three candidate solutions, and compares against the previous round to
// label the convergence trend.
//
// Rating extraction from free text is a best-effort heuristic: a prioritized
// list of regular expressions per target role, with the neutral default 5
// substituted when nothing matches. Parsing failure is explicitly not an
// error condition.
//
// AggregateRound never lets an internal failure escape: anything that goes
// wrong during aggregation degrades to a well-formed neutral result
// (voting score 50, uncertainty 50, no consensus).
package synthesis
