package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/model"
	"github.com/Iron-Ham/triad/internal/orchestrator"
)

var startFlags struct {
	maxRounds            int
	votingThreshold      float64
	uncertaintyThreshold float64
	dryRun               bool
}

var startCmd = &cobra.Command{
	Use:   "start <problem> [context]",
	Short: "Run a debate for a problem statement",
	Long: `Start a debate session for the given problem statement. The three
roles argue over up to the configured number of rounds; the session ends
converged with a consensus solution or escalated for a human decision.

The optional second argument supplies constraints or background context.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVar(&startFlags.maxRounds, "max-rounds", 0, "override the round limit (1-10)")
	startCmd.Flags().Float64Var(&startFlags.votingThreshold, "voting-threshold", 0, "override the consensus voting threshold (50-100)")
	startCmd.Flags().Float64Var(&startFlags.uncertaintyThreshold, "uncertainty-threshold", -1, "override the consensus uncertainty threshold (0-50)")
	startCmd.Flags().BoolVar(&startFlags.dryRun, "dry-run", false, "use scripted responses instead of live model calls")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := cfg.DebateOptions()
	if startFlags.maxRounds > 0 {
		opts.MaxRounds = startFlags.maxRounds
	}
	if startFlags.votingThreshold > 0 {
		opts.VotingThreshold = startFlags.votingThreshold
	}
	if startFlags.uncertaintyThreshold >= 0 {
		opts.UncertaintyThreshold = startFlags.uncertaintyThreshold
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	logger, closeLogger, err := openLogger(cfg, st.BaseDir())
	if err != nil {
		return err
	}
	defer closeLogger()

	var caller model.Caller
	if startFlags.dryRun {
		caller = model.NewScriptedCaller()
	} else {
		apiKey := cfg.APIKey()
		if apiKey == "" {
			return fmt.Errorf("no API key found; set %s or use --dry-run", cfg.Models.APIKeyEnv)
		}
		caller = model.NewHTTPCaller(cfg.Models.BaseURL, apiKey, cfg.RoleModels(), logger)
	}

	orch, err := orchestrator.New(caller, opts, logger)
	if err != nil {
		return err
	}
	orch.SetPersister(st)
	orch.SetCallbacks(&orchestrator.Callbacks{
		OnRoundStart: func(round int) {
			fmt.Fprintf(cmd.OutOrStdout(), "Round %d/%d...\n", round, opts.MaxRounds)
		},
		OnRoundComplete: func(r *debate.Round) {
			fmt.Fprintf(cmd.OutOrStdout(), "  voting %.1f, uncertainty %.1f (%s)\n",
				r.Synthesis.VotingScore, r.Synthesis.UncertaintyLevel, r.Synthesis.Convergence.Trend)
		},
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	problemContext := ""
	if len(args) > 1 {
		problemContext = args[1]
	}

	session, err := orch.Run(ctx, args[0], problemContext)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nSession: %s\n", session.ID)
	switch session.Status {
	case debate.StatusConverged:
		fmt.Fprintf(out, "Converged after %d round(s) with voting score %.1f.\n\n", len(session.Rounds), session.VotingScore)
		fmt.Fprintln(out, session.FinalSolution)
		fmt.Fprintf(out, "\nRun 'triad implement %s' to execute the plan.\n", session.ID)
	case debate.StatusEscalated:
		fmt.Fprintf(out, "Escalated: %s\n", session.EscalationReason)
		fmt.Fprintf(out, "Run 'triad implement %s --choose <role>' to pick a solution manually.\n", session.ID)
	}
	return nil
}
