package debate

import (
	"time"
)

// SchemaVersion is the current version of the persisted session format.
// Bump this when a field changes meaning; the store refuses to load
// sessions written with a newer schema.
const SchemaVersion = 1

// Role identifies one of the three fixed debate roles.
type Role string

const (
	// RoleProposer drafts the initial solution from the raw problem.
	RoleProposer Role = "proposer"
	// RoleCritic reviews the proposer's output and surfaces issues.
	RoleCritic Role = "critic"
	// RoleRefiner synthesizes the proposal and critique into final code.
	RoleRefiner Role = "refiner"
)

// Roles lists the three debate roles in their fixed calling order.
// The proposer is always resolved first within a round; critic and refiner
// may run concurrently once the proposal is available.
var Roles = []Role{RoleProposer, RoleCritic, RoleRefiner}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleProposer || r == RoleCritic || r == RoleRefiner
}

// SessionStatus represents the current state of a debate session.
type SessionStatus string

const (
	// StatusActive indicates rounds are still being played.
	StatusActive SessionStatus = "active"

	// StatusConverged indicates the debate reached consensus.
	StatusConverged SessionStatus = "converged"

	// StatusEscalated indicates the debate terminated without consensus
	// and was handed to a human.
	StatusEscalated SessionStatus = "escalated"
)

// -----------------------------------------------------------------------------
// Model Responses
// -----------------------------------------------------------------------------

// CallError describes a classified model-call failure. A response carrying a
// populated error and empty content is a valid, first-class value; callers
// never see failures as exceptions.
type CallError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// CallMetadata records accounting for a single model call.
type CallMetadata struct {
	Model        string     `json:"model"`
	RequestedAt  time.Time  `json:"requested_at"`
	RespondedAt  time.Time  `json:"responded_at"`
	InputTokens  int        `json:"input_tokens"`
	OutputTokens int        `json:"output_tokens"`
	CostUSD      float64    `json:"cost_usd,omitempty"`
	Error        *CallError `json:"error,omitempty"`
}

// Critique is the structured extraction of a critic response.
type Critique struct {
	Summary   string   `json:"summary"`
	Issues    []string `json:"issues,omitempty"`
	Strengths []string `json:"strengths,omitempty"`
}

// Refinement is the structured extraction of a refiner response.
type Refinement struct {
	Summary   string `json:"summary"`
	FinalCode string `json:"final_code,omitempty"`
}

// ModelResponse is the outcome of one model call for one role. Failed calls
// produce a response with empty Content and a populated Metadata.Error.
type ModelResponse struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Structured extractions; at most one is set, matching the role.
	Solution   string      `json:"solution,omitempty"`
	Critique   *Critique   `json:"critique,omitempty"`
	Refinement *Refinement `json:"refinement,omitempty"`

	Metadata CallMetadata `json:"metadata"`
}

// Failed reports whether the call behind this response failed.
func (r *ModelResponse) Failed() bool {
	return r.Metadata.Error != nil
}

// -----------------------------------------------------------------------------
// Rating Matrix
// -----------------------------------------------------------------------------

// NeutralScore is substituted whenever a rating cannot be parsed out of a
// model's free-text output. Parsing failure is not an error condition.
const NeutralScore = 5.0

// DefaultConfidence is the fallback for a proposer's self-reported
// confidence when none can be parsed.
const DefaultConfidence = 6.0

// Rating is one cell of the rating matrix: rater's score of ratee's output.
type Rating struct {
	Rater         Role      `json:"rater"`
	Ratee         Role      `json:"ratee"`
	Score         float64   `json:"score"` // in [1,10]
	Justification string    `json:"justification,omitempty"`
	RatedAt       time.Time `json:"rated_at"`
}

// RatingMatrix is the fully populated 3x3 table of cross-role ratings for
// one round, plus statistics derived from the nine scores. Unparseable
// ratings default to NeutralScore, so the matrix is never sparse.
type RatingMatrix struct {
	Ratings []Rating `json:"ratings"`

	AverageScore      float64 `json:"average_score"`
	StandardDeviation float64 `json:"standard_deviation"`
	// AgreementScore is the mean pairwise cosine similarity of each
	// rater's 3-vector of scores, in [0,1].
	AgreementScore float64 `json:"agreement_score"`
}

// Score returns the rating rater gave ratee, or NeutralScore if the pair is
// missing (a fully built matrix never misses a pair).
func (m *RatingMatrix) Score(rater, ratee Role) float64 {
	for _, r := range m.Ratings {
		if r.Rater == rater && r.Ratee == ratee {
			return r.Score
		}
	}
	return NeutralScore
}

// ReceivedScores returns the three scores the given role's output received,
// in the fixed role order of the raters.
func (m *RatingMatrix) ReceivedScores(ratee Role) []float64 {
	scores := make([]float64, 0, len(Roles))
	for _, rater := range Roles {
		scores = append(scores, m.Score(rater, ratee))
	}
	return scores
}

// GivenScores returns the 3-vector of scores the given rater handed out,
// in the fixed role order of the ratees.
func (m *RatingMatrix) GivenScores(rater Role) []float64 {
	scores := make([]float64, 0, len(Roles))
	for _, ratee := range Roles {
		scores = append(scores, m.Score(rater, ratee))
	}
	return scores
}

// -----------------------------------------------------------------------------
// Synthesis
// -----------------------------------------------------------------------------

// ConvergenceTrend labels the direction of the debate across rounds.
type ConvergenceTrend string

const (
	TrendImproving ConvergenceTrend = "improving"
	TrendStable    ConvergenceTrend = "stable"
	TrendDiverging ConvergenceTrend = "diverging"
)

// RankedSolution is one candidate's position in a round's ranking.
type RankedSolution struct {
	Rank       int      `json:"rank"` // 1..3
	Role       Role     `json:"role"`
	Score      float64  `json:"score"`      // 0-100
	Confidence float64  `json:"confidence"` // 0-100
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
}

// ConvergenceAnalysis compares a round's synthesis against the previous one.
type ConvergenceAnalysis struct {
	IsConverging   bool             `json:"is_converging"`
	Trend          ConvergenceTrend `json:"trend,omitempty"`
	PredictedRound int              `json:"predicted_round,omitempty"` // 0 when unknown
}

// SynthesisResult is the complete scoring outcome of one round. Every field
// is always populated; on internal failure the engine substitutes a
// well-formed neutral result rather than raising.
type SynthesisResult struct {
	RoundNumber  int              `json:"round_number"`
	VoteTally    map[Role]float64 `json:"vote_tally"`
	BestProposal Role             `json:"best_proposal"`

	VotingScore      float64 `json:"voting_score"`      // 0-100
	UncertaintyLevel float64 `json:"uncertainty_level"` // 0-100

	Rankings    []RankedSolution    `json:"rankings"`
	Convergence ConvergenceAnalysis `json:"convergence"`

	// Narrative is a deterministic templated summary; never empty.
	Narrative string `json:"narrative"`

	GeneratedAt time.Time `json:"generated_at"`
	Degraded    bool      `json:"degraded,omitempty"` // true for the neutral fallback
}

// -----------------------------------------------------------------------------
// Rounds
// -----------------------------------------------------------------------------

// Round is one completed iteration of proposer, critic and refiner calls plus
// synthesis. Rounds are immutable once appended to a session.
type Round struct {
	Number    int           `json:"number"` // 1-indexed, no gaps
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	Responses map[Role]*ModelResponse `json:"responses"`
	Matrix    RatingMatrix            `json:"matrix"`
	Synthesis SynthesisResult         `json:"synthesis"`

	// FailedCalls counts how many of the three calls ended with an error.
	FailedCalls int `json:"failed_calls"`
}

// HumanDecision records the choice a human made after an escalation.
type HumanDecision struct {
	Choice    string    `json:"choice"` // role name or free-form direction
	Note      string    `json:"note,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}
