package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/phrazzld/reportd/internal/config"
	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/generation"
	"google.golang.org/genai"
)

// validateConfig checks the settings a Gemini generator cannot run without.
func validateConfig(cfg config.GeminiConfig) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return fmt.Errorf("%w: gemini model name cannot be empty", generation.ErrInvalidConfig)
	}
	return nil
}

// NewFactory creates one Gemini client shared by every generator it hands
// out. Artifacts are written under outputDir.
func NewFactory(ctx context.Context, cfg config.GeminiConfig, outputDir string, logger *slog.Logger) (generation.Factory, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	prompt, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newFactory(cfg, outputDir, prompt, client.Models, logger), nil
}

func newFactory(
	cfg config.GeminiConfig,
	outputDir string,
	prompt *template.Template,
	models contentGenerator,
	logger *slog.Logger,
) generation.Factory {
	logger.Info("gemini generator configured",
		"model", cfg.Model,
		"max_retries", cfg.MaxRetries,
		"custom_prompt", cfg.PromptTemplatePath != "")

	return generation.FactoryFunc(func(params domain.Params) (generation.Generator, error) {
		return newGeminiGenerator(params, outputDir, cfg, prompt, models, logger), nil
	})
}
