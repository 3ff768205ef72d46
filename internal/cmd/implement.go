package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/executor"
	"github.com/Iron-Ham/triad/internal/plan"
	"github.com/Iron-Ham/triad/internal/retry"
)

var implementFlags struct {
	choose string
	note   string
	show   bool
}

var implementCmd = &cobra.Command{
	Use:   "implement <session-id>",
	Short: "Execute a terminal session's plan",
	Long: `Build the implementation plan from a terminal debate session and
drive it through the configured executor with classified retries.

A converged session uses its consensus solution. An escalated session
needs --choose naming the role (proposer, critic, refiner) whose solution
to implement; the decision is recorded on the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runImplement,
}

func init() {
	implementCmd.Flags().StringVar(&implementFlags.choose, "choose", "", "role whose solution to implement on an escalated session")
	implementCmd.Flags().StringVar(&implementFlags.note, "note", "", "free-form direction recorded with the decision")
	implementCmd.Flags().BoolVar(&implementFlags.show, "show", false, "print the plan document instead of executing it")
	rootCmd.AddCommand(implementCmd)
}

func runImplement(cmd *cobra.Command, args []string) error {
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

	if implementFlags.choose != "" {
		if session.Status != debate.StatusEscalated {
			return fmt.Errorf("--choose only applies to escalated sessions (status: %s)", session.Status)
		}
		session.HumanDecision = &debate.HumanDecision{
			Choice:    implementFlags.choose,
			Note:      implementFlags.note,
			DecidedAt: time.Now().UTC(),
		}
	}

	p, err := plan.FromSession(session)
	if err != nil {
		return err
	}
	doc, err := p.Render()
	if err != nil {
		return err
	}

	if implementFlags.show {
		fmt.Fprintln(cmd.OutOrStdout(), doc)
		return nil
	}

	if cfg.Executor.Command == "" {
		return fmt.Errorf("no executor command configured; set executor.command or use --show")
	}

	// The decision is persisted before execution so a crash mid-run does
	// not lose it.
	if session.HumanDecision != nil {
		if err := st.SaveSession(cmd.Context(), session); err != nil {
			return err
		}
	}

	logger, closeLogger, err := openLogger(cfg, st.SessionDir(session.ID))
	if err != nil {
		return err
	}
	defer closeLogger()

	exec := executor.NewCommandExecutor(cfg.Executor.Command, cfg.Executor.Args, cfg.Executor.WorkDir, logger)

	orch := retry.NewOrchestrator(stdinFeedback(cmd), logger)
	orch.SetMaxRetries(cfg.Retry.MaxRetries)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Executor.Timeout())
	defer cancel()

	result := orch.ExecuteWithRetry(ctx, doc, exec, &retry.SessionContext{
		SessionID: session.ID,
		Summary:   fmt.Sprintf("%d round(s), voting score %.1f", len(session.Rounds), session.VotingScore),
	})

	out := cmd.OutOrStdout()
	switch result.FinalStatus {
	case retry.FinalSucceeded:
		fmt.Fprintf(out, "Plan executed in %d attempt(s).\n", result.Attempts)
		if result.LastResult != nil && result.LastResult.Stdout != "" {
			fmt.Fprintln(out, result.LastResult.Stdout)
		}
	case retry.FinalSkipped:
		fmt.Fprintln(out, "Plan skipped.")
	case retry.FinalEscalated:
		printEscalation(cmd, result.Escalation)
		return fmt.Errorf("execution escalated after %d attempt(s)", result.Attempts)
	}
	return nil
}

// stdinFeedback resolves fixable failures by prompting on the terminal.
func stdinFeedback(cmd *cobra.Command) retry.FeedbackHandler {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	return retry.FeedbackFunc(func(_ context.Context, c retry.Classification, attempt int) (retry.FeedbackDecision, string, error) {
		fmt.Fprintf(out, "\nAttempt %d failed: %s\n", attempt, c.Explanation)
		for _, fix := range c.SuggestedFixes {
			fmt.Fprintf(out, "  - %s\n", fix)
		}
		fmt.Fprint(out, "[r]etry / [s]kip / [e]scalate (add a note after the letter): ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return retry.DecisionEscalate, "", err
		}
		choice, note, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch strings.ToLower(choice) {
		case "r", "retry":
			return retry.DecisionRetry, note, nil
		case "s", "skip":
			return retry.DecisionSkip, note, nil
		default:
			return retry.DecisionEscalate, note, nil
		}
	})
}

func printEscalation(cmd *cobra.Command, report *retry.EscalationReport) {
	if report == nil {
		return
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "\nEscalation report\n")
	fmt.Fprintf(out, "  session: %s\n", report.SessionID)
	fmt.Fprintf(out, "  attempts: %d over %s\n", report.Attempts, report.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  classification: %s (%.0f%% confidence)\n", report.Classification.Type, report.Classification.Confidence*100)
	fmt.Fprintf(out, "  explanation: %s\n", report.Classification.Explanation)
	if report.StderrExcerpt != "" {
		fmt.Fprintf(out, "  stderr: %s\n", report.StderrExcerpt)
	}
	for _, fix := range report.SuggestedFixes {
		fmt.Fprintf(out, "  suggested fix: %s\n", fix)
	}
	for _, record := range report.FeedbackHistory {
		fmt.Fprintf(out, "  feedback (attempt %d): %s %s\n", record.Attempt, record.Decision, record.Note)
	}
}
