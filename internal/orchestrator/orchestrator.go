package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/logging"
	"github.com/Iron-Ham/triad/internal/model"
	"github.com/Iron-Ham/triad/internal/prompt"
	"github.com/Iron-Ham/triad/internal/synthesis"
)

// missingProposalPlaceholder stands in for the proposer's output when its
// call failed, so the dependent prompts can still be built and the round
// can proceed with the remaining responses.
const missingProposalPlaceholder = "(the proposer failed to produce a solution this round)"

// Persister saves session snapshots as the debate progresses. The
// orchestrator persists after every appended round and at termination.
type Persister interface {
	SaveSession(ctx context.Context, s *debate.Session) error
}

// Orchestrator drives debates to a terminal state. One orchestrator may run
// many sessions; each session is owned by the Run call that created it, so
// concurrent Run calls need no coordination.
type Orchestrator struct {
	caller    model.Caller
	cfg       debate.Config
	engine    *synthesis.Engine
	logger    *logging.Logger
	callbacks *Callbacks
	persister Persister
}

// New creates an orchestrator. The configuration is validated here so that
// out-of-range options fail at construction, not mid-debate. A nil logger
// is replaced with a no-op logger.
func New(caller model.Caller, cfg debate.Config, logger *logging.Logger) (*Orchestrator, error) {
	if caller == nil {
		return nil, fmt.Errorf("model caller is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	return &Orchestrator{
		caller: caller,
		cfg:    cfg,
		engine: synthesis.NewEngine(cfg, logger),
		logger: logger.WithPhase("debate"),
	}, nil
}

// SetCallbacks sets the progress hooks.
func (o *Orchestrator) SetCallbacks(cb *Callbacks) {
	o.callbacks = cb
}

// SetPersister sets the session persister. Without one, sessions live only
// in memory.
func (o *Orchestrator) SetPersister(p Persister) {
	o.persister = p
}

// Run plays a full debate for the problem and returns the terminal session.
//
// The only errors Run returns are input validation failures (empty or
// oversized problem statement). Past validation, Run always returns a
// session: business failures become escalations, and an unexpected panic in
// the loop is caught and converted into an escalation carrying the panic
// message.
func (o *Orchestrator) Run(ctx context.Context, problem, problemContext string) (s *debate.Session, err error) {
	s, err = debate.NewSession(problem, problemContext, o.cfg)
	if err != nil {
		return nil, err
	}

	logger := o.logger.WithSession(s.ID)
	logger.Info("debate started",
		"max_rounds", o.cfg.MaxRounds,
		"voting_threshold", o.cfg.VotingThreshold,
		"uncertainty_threshold", o.cfg.UncertaintyThreshold,
	)

	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("internal error: %v", r)
			logger.Error("debate loop panicked", "panic", fmt.Sprint(r))
			o.escalate(ctx, s, reason)
			err = nil
		}
	}()

	for !s.Terminal() {
		if ctx.Err() != nil {
			o.escalate(ctx, s, fmt.Sprintf("debate canceled: %v", ctx.Err()))
			return s, nil
		}

		round := o.playRound(ctx, s, logger)
		if appendErr := s.AppendRound(round); appendErr != nil {
			// Unreachable with a correctly numbered round; treat as fatal
			// for this session rather than corrupting its history.
			o.escalate(ctx, s, fmt.Sprintf("internal error: %v", appendErr))
			return s, nil
		}
		o.callbacks.notifyRoundComplete(&s.Rounds[len(s.Rounds)-1])
		o.save(ctx, s, logger)

		decision := Evaluate(s)
		logger.Info("round evaluated",
			"round", round.Number,
			"voting_score", s.VotingScore,
			"uncertainty_level", s.UncertaintyLevel,
			"action", decision.Action.String(),
		)

		switch decision.Action {
		case ActionConverge:
			solution := ConsensusSolution(&s.Rounds[len(s.Rounds)-1])
			if markErr := s.MarkConverged(solution); markErr != nil {
				o.escalate(ctx, s, fmt.Sprintf("internal error: %v", markErr))
				return s, nil
			}
			o.save(ctx, s, logger)
			logger.Info("debate converged", "rounds", len(s.Rounds))
			o.callbacks.notifyConverged(s)
		case ActionEscalate:
			o.escalate(ctx, s, decision.Reason)
		}
	}

	return s, nil
}

// playRound issues the three model calls for the next round and aggregates
// them. The proposer resolves first; the critic and refiner then run
// concurrently, both of their prompts embedding the proposer's output (the
// refiner additionally sees the most recent critique, which within a round
// is the previous round's).
func (o *Orchestrator) playRound(ctx context.Context, s *debate.Session, logger *logging.Logger) debate.Round {
	roundNumber := s.CurrentRound()
	startedAt := time.Now().UTC()
	roundLogger := logger.WithRound(roundNumber)

	o.callbacks.notifyRoundStart(roundNumber)
	roundLogger.Info("round started")

	promptCtx := &prompt.Context{
		Problem:            s.Problem,
		ProblemContext:     s.Context,
		RoundNumber:        roundNumber,
		PreviousSynthesis:  s.LastSynthesis(),
		PreviousRefinement: lastRefinement(s),
		Critique:           lastCritique(s),
	}

	proposer := o.callRole(ctx, debate.RoleProposer, promptCtx, roundLogger)

	promptCtx.Proposal = proposer.Content
	if proposer.Failed() || promptCtx.Proposal == "" {
		promptCtx.Proposal = missingProposalPlaceholder
	}

	var critic, refiner *debate.ModelResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		critic = o.callRole(gctx, debate.RoleCritic, promptCtx, roundLogger)
		return nil
	})
	g.Go(func() error {
		refiner = o.callRole(gctx, debate.RoleRefiner, promptCtx, roundLogger)
		return nil
	})
	_ = g.Wait()

	responses := map[debate.Role]*debate.ModelResponse{
		debate.RoleProposer: proposer,
		debate.RoleCritic:   critic,
		debate.RoleRefiner:  refiner,
	}

	failed := 0
	for _, resp := range responses {
		if resp.Failed() {
			failed++
		}
	}

	result, matrix, aggErr := o.engine.AggregateRound(proposer, critic, refiner, roundNumber, s.LastSynthesis())
	if aggErr != nil {
		// Validation rejected the round's inputs; substitute the neutral
		// partial result and matrix rather than propagating.
		roundLogger.Warn("aggregation rejected round inputs", "error", aggErr.Error())
		result = synthesis.NeutralResult(roundNumber)
		matrix = synthesis.NeutralMatrix(startedAt)
	}

	round := debate.Round{
		Number:      roundNumber,
		StartedAt:   startedAt,
		Duration:    time.Since(startedAt),
		Responses:   responses,
		Matrix:      matrix,
		Synthesis:   result,
		FailedCalls: failed,
	}

	roundLogger.Info("round finished",
		"failed_calls", failed,
		"duration_ms", round.Duration.Milliseconds(),
	)
	return round
}

// callRole builds the role's prompt and issues the call with retry. A
// prompt that cannot be built produces a failed response instead of
// aborting the round.
func (o *Orchestrator) callRole(ctx context.Context, role debate.Role, promptCtx *prompt.Context, logger *logging.Logger) *debate.ModelResponse {
	text, err := prompt.ForRole(role).Build(promptCtx)
	if err != nil {
		logger.Warn("prompt build failed", "role", string(role), "error", err.Error())
		return model.FailedResponse(role, "", model.ErrCodeProvider,
			fmt.Sprintf("prompt build failed: %v", err), false, time.Now().UTC())
	}

	resp := o.callWithRetry(ctx, role, text)
	model.Extract(resp)
	return resp
}

// escalate marks the session escalated, persists it, and notifies.
func (o *Orchestrator) escalate(ctx context.Context, s *debate.Session, reason string) {
	if s.Terminal() {
		return
	}
	if err := s.MarkEscalated(reason); err != nil {
		o.logger.Error("failed to mark session escalated", "error", err.Error())
		return
	}
	o.save(ctx, s, o.logger.WithSession(s.ID))
	o.logger.WithSession(s.ID).Warn("debate escalated", "reason", reason)
	o.callbacks.notifyEscalated(s, reason)
}

// save persists the session if a persister is configured. Persistence
// failures are logged, not fatal; the in-memory session stays correct.
func (o *Orchestrator) save(ctx context.Context, s *debate.Session, logger *logging.Logger) {
	if o.persister == nil {
		return
	}
	if err := o.persister.SaveSession(ctx, s); err != nil {
		logger.Error("failed to persist session", "error", err.Error())
	}
}

// lastRefinement returns the previous round's refined solution, if any.
func lastRefinement(s *debate.Session) string {
	if len(s.Rounds) == 0 {
		return ""
	}
	resp := s.Rounds[len(s.Rounds)-1].Responses[debate.RoleRefiner]
	if resp == nil {
		return ""
	}
	if resp.Refinement != nil && resp.Refinement.FinalCode != "" {
		return resp.Refinement.FinalCode
	}
	return resp.Content
}

// lastCritique returns the most recent critique text available, if any.
func lastCritique(s *debate.Session) string {
	if len(s.Rounds) == 0 {
		return ""
	}
	resp := s.Rounds[len(s.Rounds)-1].Responses[debate.RoleCritic]
	if resp == nil {
		return ""
	}
	return resp.Content
}
