package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Task      TaskConfig      `mapstructure:"task" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" validate:"required"`
	Generator GeneratorConfig `mapstructure:"generator" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeout bounds how long in-flight requests and tasks may drain.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// TaskConfig controls background task execution.
type TaskConfig struct {
	// MaxConcurrent caps simultaneously running tasks. Zero means unbounded.
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"gte=0"`
	// Timeout is the per-task deadline handed to the generator. Zero disables it.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// SchedulerConfig contains recurring-job settings.
type SchedulerConfig struct {
	// Timezone is the IANA zone cron expressions are evaluated in ("Local" for the host zone).
	Timezone string `mapstructure:"timezone" validate:"required,location"`
}

// ArtifactsConfig describes where generated reports are written.
type ArtifactsConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// GeneratorConfig selects and configures the report generator.
type GeneratorConfig struct {
	Kind    string       `mapstructure:"kind" validate:"required,oneof=markdown command gemini"`
	Command string       `mapstructure:"command" validate:"required_if=Kind command"`
	Args    []string     `mapstructure:"args"`
	Gemini  GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig configures the Gemini-backed generator. Only read when Kind is "gemini".
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API (REPORTD_GENERATOR_GEMINI_API_KEY).
	APIKey string `mapstructure:"api_key"`
	// Model is the Gemini model name.
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	// MaxRetries is how many times a transient failure is retried.
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0"`
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	// PromptTemplatePath overrides the built-in prompt template.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// Location resolves the scheduler timezone.
func (c SchedulerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
