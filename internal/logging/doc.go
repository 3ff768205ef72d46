// Package logging provides structured logging for triad debate sessions.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support for debugging and post-hoc analysis. Debates
// run several model calls per round across three roles; structured,
// filterable logs make it possible to reconstruct what each role saw and
// scored after the fact.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (session ID, role, round, phase)
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer safely.
//
// # Basic Usage
//
// Create a logger for a session directory:
//
//	logger, err := logging.NewLogger("/path/to/session", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("round completed", "voting_score", 82.5)
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	roundLogger := logger.WithSession("abc123").WithRound(2)
//	roleLogger := roundLogger.WithRole("critic")
//	roleLogger.Info("model call completed", "tokens", 1204)
//
// All logs from roleLogger include session_id, round, and role fields.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output. The core
// components accept an injected *Logger and never write to the console on
// their own.
package logging
