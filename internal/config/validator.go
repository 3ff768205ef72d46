package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "debate.max_rounds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation
// errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.Debate.validate()...)
	errors = append(errors, c.Models.validate()...)
	errors = append(errors, c.Executor.validate()...)
	errors = append(errors, c.Retry.validate()...)
	errors = append(errors, c.Logging.validate()...)

	return errors
}

func (d *DebateConfig) validate() []ValidationError {
	var errors []ValidationError

	if d.MaxRounds < debate.MinMaxRounds || d.MaxRounds > debate.MaxMaxRounds {
		errors = append(errors, ValidationError{
			Field:   "debate.max_rounds",
			Value:   d.MaxRounds,
			Message: fmt.Sprintf("must be between %d and %d", debate.MinMaxRounds, debate.MaxMaxRounds),
		})
	}
	if d.VotingThreshold < debate.MinVotingThreshold || d.VotingThreshold > debate.MaxVotingThreshold {
		errors = append(errors, ValidationError{
			Field:   "debate.voting_threshold",
			Value:   d.VotingThreshold,
			Message: fmt.Sprintf("must be between %.0f and %.0f", debate.MinVotingThreshold, debate.MaxVotingThreshold),
		})
	}
	if d.UncertaintyThreshold < debate.MinUncertaintyThreshold || d.UncertaintyThreshold > debate.MaxUncertaintyThreshold {
		errors = append(errors, ValidationError{
			Field:   "debate.uncertainty_threshold",
			Value:   d.UncertaintyThreshold,
			Message: fmt.Sprintf("must be between %.0f and %.0f", debate.MinUncertaintyThreshold, debate.MaxUncertaintyThreshold),
		})
	}
	if d.RequestTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "debate.request_timeout_seconds",
			Value:   d.RequestTimeoutSeconds,
			Message: "must be positive",
		})
	}
	if d.RetryAttempts < 0 {
		errors = append(errors, ValidationError{
			Field:   "debate.retry_attempts",
			Value:   d.RetryAttempts,
			Message: "must not be negative",
		})
	}

	return errors
}

func (m *ModelsConfig) validate() []ValidationError {
	var errors []ValidationError

	if m.BaseURL != "" {
		if u, err := url.Parse(m.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "models.base_url",
				Value:   m.BaseURL,
				Message: "must be an absolute URL",
			})
		}
	}

	for field, id := range map[string]string{
		"models.proposer": m.Proposer,
		"models.critic":   m.Critic,
		"models.refiner":  m.Refiner,
	} {
		if strings.TrimSpace(id) == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   id,
				Message: "model identifier must not be empty",
			})
		}
	}

	return errors
}

func (e *ExecutorConfig) validate() []ValidationError {
	var errors []ValidationError

	if e.TimeoutMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "executor.timeout_minutes",
			Value:   e.TimeoutMinutes,
			Message: "must be positive",
		})
	}

	return errors
}

func (r *RetryConfig) validate() []ValidationError {
	var errors []ValidationError

	if r.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "retry.max_retries",
			Value:   r.MaxRetries,
			Message: "must not be negative",
		})
	}

	return errors
}

func (l *LoggingConfig) validate() []ValidationError {
	var errors []ValidationError

	// parseLevel uppercases its input, so accept any casing here.
	if !slices.Contains(logging.ValidLevels(), strings.ToUpper(l.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   l.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(logging.ValidLevels(), ", ")),
		})
	}

	return errors
}
