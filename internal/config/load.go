package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the service reads.
const EnvPrefix = "REPORTD"

// ConfigFileEnv names a YAML config file when no --config flag is given.
const ConfigFileEnv = EnvPrefix + "_CONFIG_FILE"

// dotEnvSearchDepth is how many parent directories are searched for a .env file.
const dotEnvSearchDepth = 5

// Options customize Load.
type Options struct {
	// ConfigFile is an optional YAML file. Falls back to REPORTD_CONFIG_FILE.
	ConfigFile string
	// Viper lets callers pre-bind command-line flags. A fresh instance is used when nil.
	Viper *viper.Viper
	// DotEnv loads a .env file from the working directory or one of its parents first.
	DotEnv bool
}

// Load configuration from defaults, an optional config file and environment
// variables, in increasing order of precedence. Flags bound on opts.Viper win
// over everything. Returns a populated Config or an error if loading or
// validation fails.
func Load(opts Options) (*Config, error) {
	if opts.DotEnv {
		if err := loadDotEnv(); err != nil {
			return nil, err
		}
	}

	v := opts.Viper
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnv)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := newValidator().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// newValidator adds a "location" tag that accepts any name time.LoadLocation
// does, including "Local".
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("location", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == "" {
			return false
		}
		_, err := time.LoadLocation(name)
		return err == nil
	})
	return validate
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("task.max_concurrent", 4)
	v.SetDefault("task.timeout", 30*time.Minute)
	v.SetDefault("scheduler.timezone", "Local")
	v.SetDefault("artifacts.dir", "./reports")
	v.SetDefault("generator.kind", "markdown")
	v.SetDefault("generator.command", "")
	v.SetDefault("generator.args", []string{})
	v.SetDefault("generator.gemini.api_key", "")
	v.SetDefault("generator.gemini.model", "gemini-2.0-flash")
	v.SetDefault("generator.gemini.temperature", 0.3)
	v.SetDefault("generator.gemini.max_retries", 3)
	v.SetDefault("generator.gemini.retry_delay", 2*time.Second)
	v.SetDefault("generator.gemini.prompt_template_path", "")
}

// loadDotEnv loads the nearest .env file. Variables already set in the
// environment are left alone. Finding no file is not an error; a file that
// does not parse is.
func loadDotEnv() error {
	dir, err := os.Getwd()
	if err != nil {
		return nil
	}
	for i := 0; i < dotEnvSearchDepth; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("failed to load %s: %w", envPath, err)
			}
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
	return nil
}

// ValidationFields lists the struct fields that failed validation, or nil if
// err is not a validation error.
func ValidationFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace())
	}
	return fields
}
