// Package config defines the triad configuration, loaded through viper
// from a YAML file, environment variables, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/model"
)

// Config represents the complete triad configuration
type Config struct {
	Debate   DebateConfig   `mapstructure:"debate"`
	Models   ModelsConfig   `mapstructure:"models"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DebateConfig controls the round loop and convergence thresholds
type DebateConfig struct {
	// MaxRounds is the round limit before escalation (default: 5, range 1-10)
	MaxRounds int `mapstructure:"max_rounds"`
	// VotingThreshold is the minimum voting score for consensus (default: 75, range 50-100)
	VotingThreshold float64 `mapstructure:"voting_threshold"`
	// UncertaintyThreshold is the maximum uncertainty for consensus (default: 30, range 0-50)
	UncertaintyThreshold float64 `mapstructure:"uncertainty_threshold"`
	// RequestTimeoutSeconds is the per-call timeout for model requests (default: 60)
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
	// RetryAttempts is the per-call retry budget for transient failures (default: 2)
	RetryAttempts int `mapstructure:"retry_attempts"`
}

// ModelsConfig maps the three debate roles to provider models
type ModelsConfig struct {
	// BaseURL is the provider's root URL; the chat-completions path is
	// appended per call
	BaseURL string `mapstructure:"base_url"`
	// APIKeyEnv names the environment variable holding the API key
	APIKeyEnv string `mapstructure:"api_key_env"`
	// Proposer is the model identifier used for the proposer role
	Proposer string `mapstructure:"proposer"`
	// Critic is the model identifier used for the critic role
	Critic string `mapstructure:"critic"`
	// Refiner is the model identifier used for the refiner role
	Refiner string `mapstructure:"refiner"`
}

// ExecutorConfig controls how converged plans are executed
type ExecutorConfig struct {
	// Command is the program the plan document is piped to
	Command string `mapstructure:"command"`
	// Args are passed to the command before the plan arrives on stdin
	Args []string `mapstructure:"args"`
	// WorkDir is the working directory for the command (empty: current)
	WorkDir string `mapstructure:"work_dir"`
	// TimeoutMinutes bounds a single execution attempt (default: 30)
	TimeoutMinutes int `mapstructure:"timeout_minutes"`
}

// RetryConfig controls execution-time retry behavior
type RetryConfig struct {
	// MaxRetries is the budget for transient execution failures (default: 3)
	MaxRetries int `mapstructure:"max_retries"`
}

// StorageConfig controls where sessions are persisted
type StorageConfig struct {
	// Dir is the session store root (empty: ~/.triad/sessions)
	Dir string `mapstructure:"dir"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	// Enabled turns file logging on or off
	Enabled bool `mapstructure:"enabled"`
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Debate: DebateConfig{
			MaxRounds:             debate.DefaultMaxRounds,
			VotingThreshold:       debate.DefaultVotingThreshold,
			UncertaintyThreshold:  debate.DefaultUncertaintyThreshold,
			RequestTimeoutSeconds: int(debate.DefaultRequestTimeout / time.Second),
			RetryAttempts:         debate.DefaultRetryAttempts,
		},
		Models: ModelsConfig{
			BaseURL:   "https://api.openai.com",
			APIKeyEnv: "TRIAD_API_KEY",
			Proposer:  "gpt-4o",
			Critic:    "gpt-4o",
			Refiner:   "gpt-4o",
		},
		Executor: ExecutorConfig{
			Command:        "",
			Args:           []string{},
			WorkDir:        "",
			TimeoutMinutes: 30,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
		},
		Storage: StorageConfig{
			Dir: "", // resolved by StorageDir
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("debate.max_rounds", defaults.Debate.MaxRounds)
	viper.SetDefault("debate.voting_threshold", defaults.Debate.VotingThreshold)
	viper.SetDefault("debate.uncertainty_threshold", defaults.Debate.UncertaintyThreshold)
	viper.SetDefault("debate.request_timeout_seconds", defaults.Debate.RequestTimeoutSeconds)
	viper.SetDefault("debate.retry_attempts", defaults.Debate.RetryAttempts)

	viper.SetDefault("models.base_url", defaults.Models.BaseURL)
	viper.SetDefault("models.api_key_env", defaults.Models.APIKeyEnv)
	viper.SetDefault("models.proposer", defaults.Models.Proposer)
	viper.SetDefault("models.critic", defaults.Models.Critic)
	viper.SetDefault("models.refiner", defaults.Models.Refiner)

	viper.SetDefault("executor.command", defaults.Executor.Command)
	viper.SetDefault("executor.args", defaults.Executor.Args)
	viper.SetDefault("executor.work_dir", defaults.Executor.WorkDir)
	viper.SetDefault("executor.timeout_minutes", defaults.Executor.TimeoutMinutes)

	viper.SetDefault("retry.max_retries", defaults.Retry.MaxRetries)

	viper.SetDefault("storage.dir", defaults.Storage.Dir)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and
// validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// DebateOptions converts the config section into the engine's option
// value.
func (c *Config) DebateOptions() debate.Config {
	return debate.Config{
		MaxRounds:            c.Debate.MaxRounds,
		VotingThreshold:      c.Debate.VotingThreshold,
		UncertaintyThreshold: c.Debate.UncertaintyThreshold,
		RequestTimeout:       time.Duration(c.Debate.RequestTimeoutSeconds) * time.Second,
		RetryAttempts:        c.Debate.RetryAttempts,
	}
}

// RoleModels converts the models section into the caller's role mapping.
func (c *Config) RoleModels() model.RoleModels {
	return model.RoleModels{
		Proposer: c.Models.Proposer,
		Critic:   c.Models.Critic,
		Refiner:  c.Models.Refiner,
	}
}

// APIKey resolves the provider API key from the configured environment
// variable.
func (c *Config) APIKey() string {
	if c.Models.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Models.APIKeyEnv)
}

// Timeout returns the execution attempt timeout as a Duration.
func (c *ExecutorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// StorageDir resolves the session store root, defaulting to
// ~/.triad/sessions.
func (c *Config) StorageDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".triad", "sessions")
	}
	return filepath.Join(home, ".triad", "sessions")
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "triad")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".triad"
	}
	return filepath.Join(home, ".config", "triad")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
