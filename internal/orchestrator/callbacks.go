package orchestrator

import "github.com/Iron-Ham/triad/internal/debate"

// Callbacks holds optional hooks for debate progress events. All callbacks
// are invoked synchronously from the round loop; keep them fast.
type Callbacks struct {
	// OnRoundStart is called when a round begins.
	OnRoundStart func(roundNumber int)

	// OnCallRetry is called before a model call is retried.
	OnCallRetry func(role debate.Role, attempt int, code string)

	// OnRoundComplete is called after a round has been appended to the
	// session.
	OnRoundComplete func(round *debate.Round)

	// OnConverged is called when the debate reaches consensus.
	OnConverged func(session *debate.Session)

	// OnEscalated is called when the debate terminates without consensus.
	OnEscalated func(session *debate.Session, reason string)
}

// notifyRoundStart invokes OnRoundStart if set.
func (c *Callbacks) notifyRoundStart(round int) {
	if c != nil && c.OnRoundStart != nil {
		c.OnRoundStart(round)
	}
}

// notifyCallRetry invokes OnCallRetry if set.
func (c *Callbacks) notifyCallRetry(role debate.Role, attempt int, code string) {
	if c != nil && c.OnCallRetry != nil {
		c.OnCallRetry(role, attempt, code)
	}
}

// notifyRoundComplete invokes OnRoundComplete if set.
func (c *Callbacks) notifyRoundComplete(round *debate.Round) {
	if c != nil && c.OnRoundComplete != nil {
		c.OnRoundComplete(round)
	}
}

// notifyConverged invokes OnConverged if set.
func (c *Callbacks) notifyConverged(s *debate.Session) {
	if c != nil && c.OnConverged != nil {
		c.OnConverged(s)
	}
}

// notifyEscalated invokes OnEscalated if set.
func (c *Callbacks) notifyEscalated(s *debate.Session, reason string) {
	if c != nil && c.OnEscalated != nil {
		c.OnEscalated(s, reason)
	}
}
