package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/store"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// useTempStore points the configured store at a temp directory.
func useTempStore(t *testing.T) *store.Store {
	t.Helper()

	viper.Reset()
	initConfig()
	dir := t.TempDir()
	viper.Set("storage.dir", dir)
	viper.Set("logging.enabled", false)

	st, err := store.New(dir)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	return st
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "triad" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "triad")
	}

	expected := []string{"start", "status", "history", "implement", "list", "watch"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("subcommand %q is not registered", name)
		}
	}
}

func TestStartDryRunConverges(t *testing.T) {
	st := useTempStore(t)

	output, err := executeCommand(rootCmd, "start", "--dry-run", "reverse a linked list")
	if err != nil {
		t.Fatalf("start --dry-run error = %v\n%s", err, output)
	}
	if !strings.Contains(output, "Converged") {
		t.Errorf("output missing convergence notice:\n%s", output)
	}

	infos, err := st.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("stored sessions = %d, want 1", len(infos))
	}
	if infos[0].Status != debate.StatusConverged {
		t.Errorf("stored status = %q, want converged", infos[0].Status)
	}
}

func TestStatusShowsStoredSession(t *testing.T) {
	st := useTempStore(t)

	session, err := debate.NewSession("balance a binary tree", "", debate.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if err := st.SaveSession(context.Background(), session); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	output, err := executeCommand(rootCmd, "status", session.ID)
	if err != nil {
		t.Fatalf("status error = %v\n%s", err, output)
	}
	for _, want := range []string{session.ID, "active", "balance a binary tree"} {
		if !strings.Contains(output, want) {
			t.Errorf("status output missing %q:\n%s", want, output)
		}
	}
}

func TestHistoryShowsRoundTrend(t *testing.T) {
	st := useTempStore(t)

	session, err := debate.NewSession("dedupe a stream", "", debate.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	round := debate.Round{
		Number:    1,
		StartedAt: time.Now().UTC(),
		Synthesis: debate.SynthesisResult{
			RoundNumber:      1,
			VotingScore:      62.5,
			UncertaintyLevel: 12.0,
			Convergence: debate.ConvergenceAnalysis{
				Trend: debate.TrendImproving,
			},
		},
	}
	if err := session.AppendRound(round); err != nil {
		t.Fatalf("AppendRound() error = %v", err)
	}
	if err := st.SaveSession(context.Background(), session); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	output, err := executeCommand(rootCmd, "history", session.ID)
	if err != nil {
		t.Fatalf("history error = %v\n%s", err, output)
	}
	for _, want := range []string{"Round 1", "voting 62.5", "trend improving"} {
		if !strings.Contains(output, want) {
			t.Errorf("history output missing %q:\n%s", want, output)
		}
	}
}

func TestStatusUnknownSession(t *testing.T) {
	useTempStore(t)

	if _, err := executeCommand(rootCmd, "status", "missing-id"); err == nil {
		t.Error("status with an unknown session should fail")
	}
}

func TestListShowsSessions(t *testing.T) {
	st := useTempStore(t)

	session, err := debate.NewSession("shard a counter", "", debate.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	session.UpdatedAt = time.Now().UTC()
	if err := st.SaveSession(context.Background(), session); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	output, err := executeCommand(rootCmd, "list")
	if err != nil {
		t.Fatalf("list error = %v\n%s", err, output)
	}
	if !strings.Contains(output, session.ID) {
		t.Errorf("list output missing session id:\n%s", output)
	}
}

func TestImplementShowRendersPlan(t *testing.T) {
	st := useTempStore(t)

	session, err := debate.NewSession("merge sorted files", "", debate.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	round := debate.Round{
		Number:    1,
		StartedAt: time.Now().UTC(),
		Responses: map[debate.Role]*debate.ModelResponse{
			debate.RoleRefiner: {Role: debate.RoleRefiner, Content: "k-way merge"},
		},
	}
	if err := session.AppendRound(round); err != nil {
		t.Fatalf("AppendRound() error = %v", err)
	}
	if err := session.MarkConverged("k-way merge with a heap"); err != nil {
		t.Fatalf("MarkConverged() error = %v", err)
	}
	if err := st.SaveSession(context.Background(), session); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	output, err := executeCommand(rootCmd, "implement", session.ID, "--show")
	if err != nil {
		t.Fatalf("implement --show error = %v\n%s", err, output)
	}
	for _, want := range []string{"# Implementation Plan", "merge sorted files", "k-way merge with a heap"} {
		if !strings.Contains(output, want) {
			t.Errorf("plan output missing %q:\n%s", want, output)
		}
	}
}
