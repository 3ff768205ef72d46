package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/triad/internal/debate"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a session's current state",
	Long:  `Display the status, scores, and terminal outcome of a debate session.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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
	fmt.Fprintf(out, "Session: %s\n", session.ID)
	fmt.Fprintf(out, "Status: %s\n", session.Status)
	fmt.Fprintf(out, "Problem: %s\n", session.Problem)
	fmt.Fprintf(out, "Created: %s\n", session.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Rounds: %d/%d\n", len(session.Rounds), session.Config.MaxRounds)
	fmt.Fprintf(out, "Voting score: %.1f (threshold %.0f)\n", session.VotingScore, session.Config.VotingThreshold)
	fmt.Fprintf(out, "Uncertainty: %.1f (threshold %.0f)\n", session.UncertaintyLevel, session.Config.UncertaintyThreshold)

	switch session.Status {
	case debate.StatusConverged:
		fmt.Fprintf(out, "Converged: %s\n", session.ConvergedAt.Format("2006-01-02 15:04:05"))
	case debate.StatusEscalated:
		fmt.Fprintf(out, "Escalated: %s\n", session.EscalatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Reason: %s\n", session.EscalationReason)
		if session.HumanDecision != nil {
			fmt.Fprintf(out, "Decision: %s\n", session.HumanDecision.Choice)
		}
	}
	return nil
}
