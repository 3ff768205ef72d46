package synthesis

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/triad/internal/debate"
)

// narrative renders the deterministic round summary. It always returns a
// non-empty string.
func narrative(top debate.RankedSolution, votingScore, uncertainty float64, analysis debate.ConvergenceAnalysis, cfg debate.Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The %s's solution leads this round with a weighted score of %.1f/100 (confidence %.1f).",
		top.Role, top.Score, top.Confidence)
	fmt.Fprintf(&b, " Voting score is %.1f (threshold %.0f) and uncertainty is %.1f (threshold %.0f).",
		votingScore, cfg.VotingThreshold, uncertainty, cfg.UncertaintyThreshold)

	switch {
	case votingScore >= cfg.VotingThreshold && uncertainty <= cfg.UncertaintyThreshold:
		b.WriteString(" Consensus criteria are met; adopt the leading solution.")
	case analysis.Trend == debate.TrendImproving && analysis.PredictedRound > 0:
		fmt.Fprintf(&b, " The debate is improving; convergence is projected around round %d. Continue debating.", analysis.PredictedRound)
	case analysis.Trend == debate.TrendImproving:
		b.WriteString(" The debate is improving. Continue debating.")
	case analysis.Trend == debate.TrendDiverging:
		b.WriteString(" The roles are moving apart; consider tightening the problem statement before the next round.")
	default:
		b.WriteString(" Scores are holding steady. Continue debating.")
	}

	return b.String()
}
