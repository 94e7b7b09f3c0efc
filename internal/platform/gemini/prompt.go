package gemini

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/generation"
)

const defaultPromptTemplate = `You are an equity research analyst. Write a research report in Markdown for
{{.Company}} (ticker {{.Code}}, listed on the {{.Market}} market).

Start with a level-one heading naming the company and ticker. Include sections
for the business overview, recent financial performance, valuation, key risks
and an overall conclusion. Respond with the Markdown document only.
`

// promptData is what prompt templates are executed against.
type promptData struct {
	Company string
	Code    string
	Market  string
}

// loadPromptTemplate parses the template at path, or the built-in one when
// path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	text := defaultPromptTemplate
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		text = string(content)
	}

	tmpl, err := template.New("report_prompt").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

func createPrompt(ctx context.Context, logger *slog.Logger, tmpl *template.Template, params domain.Params) (string, error) {
	var buf bytes.Buffer
	data := promptData{Company: params.Company, Code: params.Code, Market: params.Market}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	prompt := buf.String()
	logger.DebugContext(ctx, "prompt generated",
		"template_name", tmpl.Name(),
		"prompt_length", len(prompt))
	return prompt, nil
}
