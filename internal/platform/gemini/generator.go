package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/reportd/internal/config"
	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/generation"
	"google.golang.org/genai"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// contentGenerator is the slice of *genai.Models the generator calls.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator drafts one report with a Gemini model.
type GeminiGenerator struct {
	params    domain.Params
	outputDir string
	config    config.GeminiConfig
	prompt    *template.Template
	models    contentGenerator
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(attempt int) time.Duration

	draft       string
	generatedAt time.Time
}

func newGeminiGenerator(
	params domain.Params,
	outputDir string,
	cfg config.GeminiConfig,
	prompt *template.Template,
	models contentGenerator,
	logger *slog.Logger,
) *GeminiGenerator {
	g := &GeminiGenerator{
		params:    params,
		outputDir: outputDir,
		config:    cfg,
		prompt:    prompt,
		models:    models,
		logger:    logger,
		now:       time.Now,
	}
	g.sleep = g.backoff
	return g
}

// CollectData asks the model for the report draft.
func (g *GeminiGenerator) CollectData(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", generation.ErrCollectionFailed, err)
	}

	prompt, err := createPrompt(ctx, g.logger, g.prompt, g.params)
	if err != nil {
		return fmt.Errorf("%w: %v", generation.ErrCollectionFailed, err)
	}

	draft, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return fmt.Errorf("%w: %w", generation.ErrCollectionFailed, err)
	}

	g.draft = draft
	g.generatedAt = g.now()
	g.logger.DebugContext(ctx, "report draft collected",
		"company", g.params.Company,
		"draft_length", len(draft))
	return nil
}

// RenderArtifact writes the draft and returns its path.
func (g *GeminiGenerator) RenderArtifact(ctx context.Context) (string, error) {
	if g.draft == "" {
		return "", generation.ErrNotCollected
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", generation.ErrRenderFailed, err)
	}

	path := filepath.Join(g.outputDir, generation.ArtifactName(g.params, g.generatedAt))
	content := strings.TrimSpace(g.draft) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("%w: write artifact: %v", generation.ErrRenderFailed, err)
	}

	g.logger.InfoContext(ctx, "report rendered", "path", path)
	return path, nil
}

// callWithRetry calls the model, retrying transient failures with
// exponential backoff. Blocked or unusable responses are not retried.
func (g *GeminiGenerator) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.config.Temperature),
	}

	for attempt := 0; ; attempt++ {
		g.logger.InfoContext(ctx, "calling gemini",
			"model", g.config.Model,
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		resp, err := g.models.GenerateContent(ctx, g.config.Model, contents, genConfig)
		if err == nil {
			var text string
			text, err = extractText(resp)
			if err == nil {
				g.logger.InfoContext(ctx, "gemini call succeeded", "attempt", attempt+1)
				return text, nil
			}
		}

		g.logger.ErrorContext(ctx, "gemini call failed", "attempt", attempt+1, "error", err)

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", generation.ErrTransientFailure, ctxErr)
		}
		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		delay := g.sleep(attempt)
		g.logger.InfoContext(ctx, "retrying gemini call", "attempt", attempt+1, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("%w: %w", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// backoff is base * 2^attempt scaled by a jitter factor in [0.5, 1.0).
func (g *GeminiGenerator) backoff(attempt int) time.Duration {
	base := g.config.RetryDelay
	if base <= 0 {
		base = defaultRetryDelay
	}
	delay := float64(base) * math.Pow(2, float64(attempt))
	return time.Duration(delay * (0.5 + rand.Float64()*0.5))
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", generation.ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: response has no text", generation.ErrInvalidResponse)
	}
	return b.String(), nil
}
