package reportgen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/phrazzld/reportd/internal/config"
	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/generation"
	"github.com/phrazzld/reportd/internal/platform/gemini"
)

// Generator kinds accepted in configuration
const (
	KindMarkdown = "markdown"
	KindCommand  = "command"
	KindGemini   = "gemini"
)

// NewFactory returns the generation.Factory selected by cfg.Kind. Artifacts
// are written under outputDir, which is made absolute so recorded artifact
// paths stay valid regardless of how they are later resolved.
func NewFactory(ctx context.Context, cfg config.GeneratorConfig, outputDir string, logger *slog.Logger) (generation.Factory, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("%w: output directory cannot be empty", generation.ErrInvalidConfig)
	}
	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve output directory: %v", generation.ErrInvalidConfig, err)
	}
	logger = logger.With("component", "report_generator", "generator_kind", cfg.Kind)

	switch cfg.Kind {
	case KindMarkdown, "":
		return generation.FactoryFunc(func(params domain.Params) (generation.Generator, error) {
			return NewMarkdownGenerator(params, outputDir, logger), nil
		}), nil

	case KindCommand:
		if cfg.Command == "" {
			return nil, fmt.Errorf("%w: command generator requires a command", generation.ErrInvalidConfig)
		}
		return generation.FactoryFunc(func(params domain.Params) (generation.Generator, error) {
			return NewCommandGenerator(params, cfg.Command, cfg.Args, outputDir, logger), nil
		}), nil

	case KindGemini:
		return gemini.NewFactory(ctx, cfg.Gemini, outputDir, logger)

	default:
		return nil, fmt.Errorf("%w: unknown generator kind %q", generation.ErrInvalidConfig, cfg.Kind)
	}
}
