package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/triad/internal/debate"
)

var historyFlags struct {
	verbose bool
}

var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show a session's round-by-round history",
	Long: `Display each completed round of a debate session with its scores,
trend, and vote tally. With --verbose, each round's narrative and the
rated candidate ranking are printed too.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVarP(&historyFlags.verbose, "verbose", "v", false, "include narratives and rankings")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	session, err := st.LoadSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s (%s), %d round(s)\n\n", session.ID, session.Status, len(session.Rounds))

	for i := range session.Rounds {
		round := &session.Rounds[i]
		fmt.Fprintf(out, "Round %d  voting %.1f  uncertainty %.1f  trend %s",
			round.Number,
			round.Synthesis.VotingScore,
			round.Synthesis.UncertaintyLevel,
			round.Synthesis.Convergence.Trend,
		)
		if round.FailedCalls > 0 {
			fmt.Fprintf(out, "  (%d failed call(s))", round.FailedCalls)
		}
		if round.Synthesis.Degraded {
			fmt.Fprint(out, "  [degraded]")
		}
		fmt.Fprintln(out)

		if tally := round.Synthesis.VoteTally; len(tally) > 0 {
			fmt.Fprintf(out, "  votes: proposer %.0f, critic %.0f, refiner %.0f\n",
				tally[debate.RoleProposer], tally[debate.RoleCritic], tally[debate.RoleRefiner])
		}

		if historyFlags.verbose {
			for _, ranked := range round.Synthesis.Rankings {
				fmt.Fprintf(out, "  #%d %s  score %.1f  confidence %.1f\n",
					ranked.Rank, ranked.Role, ranked.Score, ranked.Confidence)
			}
			if round.Synthesis.Narrative != "" {
				fmt.Fprintf(out, "  %s\n", round.Synthesis.Narrative)
			}
		}
		fmt.Fprintln(out)
	}

	if session.Status == debate.StatusConverged {
		fmt.Fprintln(out, "Final solution:")
		fmt.Fprintln(out, session.FinalSolution)
	}
	return nil
}
