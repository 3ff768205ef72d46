package executor

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/Iron-Ham/triad/internal/errors"
	"github.com/Iron-Ham/triad/internal/logging"
)

// CommandExecutor runs the plan by piping the plan document to an external
// command on stdin. The command is expected to apply the plan and report
// problems on stderr; its exit code becomes the result's exit indicator.
type CommandExecutor struct {
	// Command is the program to invoke, e.g. an agent CLI.
	Command string

	// Args are passed before the plan arrives on stdin.
	Args []string

	// WorkDir is the working directory for the command. Empty means the
	// process's current directory.
	WorkDir string

	logger *logging.Logger
}

// NewCommandExecutor creates an executor that invokes the given command.
// A nil logger is replaced with a no-op logger.
func NewCommandExecutor(command string, args []string, workDir string, logger *logging.Logger) *CommandExecutor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &CommandExecutor{
		Command: command,
		Args:    args,
		WorkDir: workDir,
		logger:  logger.WithPhase("execute"),
	}
}

// Run implements Executor. Command failures are reported through the
// Result; the error return is reserved for an empty plan or command.
func (e *CommandExecutor) Run(ctx context.Context, planDoc string) (*Result, error) {
	if strings.TrimSpace(planDoc) == "" {
		return nil, errors.NewExecutionError("empty plan document", errors.ErrInvalidInput)
	}
	if e.Command == "" {
		return nil, errors.NewExecutionError("no executor command configured", errors.ErrInvalidInput)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Dir = e.WorkDir
	cmd.Stdin = strings.NewReader(planDoc)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Info("running plan executor", "command", e.Command)
	runErr := cmd.Run()

	result := &Result{
		Status:   StatusSuccess,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	result.Errors, result.Warnings = scanDiagnostics(result.Stderr)

	switch {
	case runErr == nil:
		if len(result.Errors) > 0 {
			result.Status = StatusPartial
		}
	case ctx.Err() != nil:
		result.Status = StatusTimeout
		result.ExitIndicator = -1
	default:
		result.Status = StatusFailed
		result.ExitIndicator = exitCode(runErr)
		if result.Stderr == "" {
			result.Stderr = runErr.Error()
		}
	}

	e.logger.Info("plan executor finished",
		"status", string(result.Status),
		"exit", result.ExitIndicator,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// exitCode extracts the process exit code, or -1 when the command never
// ran or was killed.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// scanDiagnostics splits stderr into error and warning lines so the retry
// layer can classify structured problems, not just raw text. Lines without
// a recognizable severity marker are ignored here; classification still
// sees the full stderr.
func scanDiagnostics(stderr string) (errs, warnings []string) {
	for _, line := range strings.Split(stderr, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		switch {
		case strings.Contains(lower, "warning"):
			warnings = append(warnings, trimmed)
		case strings.Contains(lower, "error") || strings.Contains(lower, "fatal"):
			errs = append(errs, trimmed)
		}
	}
	return errs, warnings
}
