package reportgen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/generation"
)

const reportTemplate = `# {{.Company}} ({{.Code}}.{{.Market}}) Research Report

Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}

{{range .Sections}}## {{.}}

_Pending analyst input._

{{end}}`

var parsedReportTemplate = template.Must(template.New("report").Parse(reportTemplate))

// defaultSections are the headings every generated report contains.
var defaultSections = []string{
	"Company Overview",
	"Financial Statements",
	"Valuation",
	"Industry and Competitors",
	"Risks",
}

// reportData is what CollectData gathers and RenderArtifact consumes.
type reportData struct {
	domain.Params
	GeneratedAt time.Time
	Sections    []string
}

// MarkdownGenerator writes a Markdown report skeleton into an output directory.
type MarkdownGenerator struct {
	params    domain.Params
	outputDir string
	now       func() time.Time
	logger    *slog.Logger
	data      *reportData
}

// NewMarkdownGenerator creates a generator for one task.
func NewMarkdownGenerator(params domain.Params, outputDir string, logger *slog.Logger) *MarkdownGenerator {
	return &MarkdownGenerator{
		params:    params,
		outputDir: outputDir,
		now:       time.Now,
		logger:    logger,
	}
}

// CollectData prepares the report content.
func (g *MarkdownGenerator) CollectData(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", generation.ErrCollectionFailed, err)
	}

	g.data = &reportData{
		Params:      g.params,
		GeneratedAt: g.now(),
		Sections:    append([]string(nil), defaultSections...),
	}
	g.logger.DebugContext(ctx, "report data collected",
		"company", g.params.Company,
		"sections", len(g.data.Sections))
	return nil
}

// RenderArtifact writes the report file and returns its path.
func (g *MarkdownGenerator) RenderArtifact(ctx context.Context) (string, error) {
	if g.data == nil {
		return "", generation.ErrNotCollected
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", generation.ErrRenderFailed, err)
	}

	path := filepath.Join(g.outputDir, generation.ArtifactName(g.params, g.data.GeneratedAt))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create artifact: %v", generation.ErrRenderFailed, err)
	}

	if err := parsedReportTemplate.Execute(f, g.data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("%w: execute template: %v", generation.ErrRenderFailed, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close artifact: %v", generation.ErrRenderFailed, err)
	}

	g.logger.InfoContext(ctx, "report rendered", "path", path)
	return path, nil
}
