package reportgen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/generation"
)

// Phase names passed as the last argument to the external command.
const (
	PhaseCollect = "collect"
	PhaseRender  = "render"
)

// waitDelay bounds how long a killed command may keep its output pipes open.
const waitDelay = 2 * time.Second

// maxStderr caps how much of the command's stderr ends up in a failure message.
const maxStderr = 2048

// CommandGenerator runs an external program once per phase. The program gets
// the task parameters through REPORTD_* environment variables and the phase
// name as its final argument. The render phase must print the artifact path
// on the last non-empty line of stdout; a relative path is taken to be
// relative to the output directory.
type CommandGenerator struct {
	params    domain.Params
	command   string
	args      []string
	outputDir string
	logger    *slog.Logger
	collected bool
}

// NewCommandGenerator creates a generator for one task.
func NewCommandGenerator(
	params domain.Params,
	command string,
	args []string,
	outputDir string,
	logger *slog.Logger,
) *CommandGenerator {
	return &CommandGenerator{
		params:    params,
		command:   command,
		args:      append([]string(nil), args...),
		outputDir: outputDir,
		logger:    logger,
	}
}

// CollectData runs the collect phase.
func (g *CommandGenerator) CollectData(ctx context.Context) error {
	if _, err := g.run(ctx, PhaseCollect); err != nil {
		return fmt.Errorf("%w: %w", generation.ErrCollectionFailed, err)
	}
	g.collected = true
	return nil
}

// RenderArtifact runs the render phase and returns the printed artifact path.
func (g *CommandGenerator) RenderArtifact(ctx context.Context) (string, error) {
	if !g.collected {
		return "", generation.ErrNotCollected
	}

	stdout, err := g.run(ctx, PhaseRender)
	if err != nil {
		return "", fmt.Errorf("%w: %w", generation.ErrRenderFailed, err)
	}

	path := lastLine(stdout)
	if path == "" {
		return "", generation.ErrEmptyArtifactPath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.outputDir, path)
	}
	return path, nil
}

func (g *CommandGenerator) run(ctx context.Context, phase string) (string, error) {
	args := append(append([]string(nil), g.args...), phase)
	cmd := exec.CommandContext(ctx, g.command, args...)
	cmd.Env = append(os.Environ(),
		"REPORTD_COMPANY="+g.params.Company,
		"REPORTD_CODE="+g.params.Code,
		"REPORTD_MARKET="+g.params.Market,
		"REPORTD_PHASE="+phase,
		"REPORTD_OUTPUT_DIR="+g.outputDir,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	g.logger.DebugContext(ctx, "running generator command",
		"command", g.command,
		"phase", phase)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		msg := tail(strings.TrimSpace(stderr.String()), maxStderr)
		if msg == "" {
			return "", fmt.Errorf("%s phase: %w", phase, err)
		}
		return "", fmt.Errorf("%s phase: %w: %s", phase, err, msg)
	}
	return stdout.String(), nil
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// tail returns at most the last n bytes of s without splitting a rune.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}
