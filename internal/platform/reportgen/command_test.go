package reportgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/phrazzld/reportd/internal/config"
	"github.com/phrazzld/reportd/internal/generation"
	"github.com/phrazzld/reportd/internal/platform/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellGenerator runs script through sh; the phase arrives as $1.
func shellGenerator(t *testing.T, script string) *CommandGenerator {
	t.Helper()
	return NewCommandGenerator(acme(), "sh", []string{"-c", script, "reportd"}, t.TempDir(), discardLogger())
}

func TestCommandGenerator_Success(t *testing.T) {
	t.Parallel()

	script := `
case "$1" in
  collect) echo "collecting $REPORTD_COMPANY" ;;
  render)
    out="$REPORTD_OUTPUT_DIR/${REPORTD_MARKET}_${REPORTD_CODE}.md"
    echo "# $REPORTD_COMPANY" > "$out"
    echo "rendering"
    echo "$out"
    echo ""
    ;;
esac`
	gen := shellGenerator(t, script)
	ctx := context.Background()

	require.NoError(t, gen.CollectData(ctx))
	path, err := gen.RenderArtifact(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(gen.outputDir, "HK_0001.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Acme Corp\n", string(content))
}

func TestCommandGenerator_CollectFailureIncludesStderr(t *testing.T) {
	t.Parallel()

	gen := shellGenerator(t, `echo "upstream unavailable" >&2; exit 3`)
	err := gen.CollectData(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrCollectionFailed)
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.Contains(t, err.Error(), "collect phase")
}

func TestCommandGenerator_RenderFailure(t *testing.T) {
	t.Parallel()

	gen := shellGenerator(t, `[ "$1" = render ] && exit 1; exit 0`)
	require.NoError(t, gen.CollectData(context.Background()))

	_, err := gen.RenderArtifact(context.Background())
	assert.ErrorIs(t, err, generation.ErrRenderFailed)
}

func TestCommandGenerator_RenderWithoutPath(t *testing.T) {
	t.Parallel()

	gen := shellGenerator(t, `exit 0`)
	require.NoError(t, gen.CollectData(context.Background()))

	_, err := gen.RenderArtifact(context.Background())
	assert.ErrorIs(t, err, generation.ErrEmptyArtifactPath)
}

func TestCommandGenerator_RenderBeforeCollect(t *testing.T) {
	t.Parallel()

	gen := shellGenerator(t, `echo /tmp/x.md`)
	_, err := gen.RenderArtifact(context.Background())
	assert.ErrorIs(t, err, generation.ErrNotCollected)
}

func TestCommandGenerator_ContextDeadline(t *testing.T) {
	t.Parallel()

	gen := shellGenerator(t, `exec sleep 5`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := gen.CollectData(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLastLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/b.md", lastLine("log line\n/a/b.md\n\n  \n"))
	assert.Equal(t, "", lastLine("\n\n"))
	assert.Equal(t, "only", lastLine("only"))
}

func TestNewFactory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.GeneratorConfig
		dir     string
		wantErr bool
		want    any
	}{
		{name: "markdown", cfg: config.GeneratorConfig{Kind: KindMarkdown}, dir: "/tmp/r", want: &MarkdownGenerator{}},
		{name: "default kind", cfg: config.GeneratorConfig{}, dir: "/tmp/r", want: &MarkdownGenerator{}},
		{
			name: "command",
			cfg:  config.GeneratorConfig{Kind: KindCommand, Command: "report-tool", Args: []string{"--fast"}},
			dir:  "/tmp/r",
			want: &CommandGenerator{},
		},
		{name: "command without binary", cfg: config.GeneratorConfig{Kind: KindCommand}, dir: "/tmp/r", wantErr: true},
		{
			name: "gemini",
			cfg:  config.GeneratorConfig{Kind: KindGemini, Gemini: config.GeminiConfig{APIKey: "test-key", Model: "gemini-2.0-flash"}},
			dir:  "/tmp/r",
			want: &gemini.GeminiGenerator{},
		},
		{name: "gemini without api key", cfg: config.GeneratorConfig{Kind: KindGemini, Gemini: config.GeminiConfig{Model: "gemini-2.0-flash"}}, dir: "/tmp/r", wantErr: true},
		{name: "unknown kind", cfg: config.GeneratorConfig{Kind: "pdf"}, dir: "/tmp/r", wantErr: true},
		{name: "empty dir", cfg: config.GeneratorConfig{Kind: KindMarkdown}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			factory, err := NewFactory(context.Background(), tc.cfg, tc.dir, discardLogger())
			if tc.wantErr {
				assert.ErrorIs(t, err, generation.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)

			gen, err := factory.NewGenerator(acme())
			require.NoError(t, err)
			assert.IsType(t, tc.want, gen)
		})
	}
}

func TestCommandGenerator_RelativePathResolvedAgainstOutputDir(t *testing.T) {
	t.Parallel()

	script := `
case "$1" in
  render)
    echo "# $REPORTD_COMPANY" > "$REPORTD_OUTPUT_DIR/acme.md"
    echo "acme.md"
    ;;
esac`
	gen := shellGenerator(t, script)
	ctx := context.Background()

	require.NoError(t, gen.CollectData(ctx))
	path, err := gen.RenderArtifact(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(gen.outputDir, "acme.md"), path)
	assert.FileExists(t, path)
}

func TestTail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", tail("short", 10))
	assert.Equal(t, "6789", tail("0123456789", 4))

	// "é" is two bytes; a cut landing on its second byte moves past it.
	got := tail("aé失败", 7)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "失败", got)
	assert.Equal(t, "é失败", tail("aé失败", 8))
}

func TestNewFactory_RelativeOutputDirRecordsAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	factory, err := NewFactory(context.Background(), config.GeneratorConfig{Kind: KindMarkdown}, "./reports", discardLogger())
	require.NoError(t, err)
	gen, err := factory.NewGenerator(acme())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, gen.CollectData(ctx))
	path, err := gen.RenderArtifact(ctx)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(path), path)
	assert.FileExists(t, path)
	wantDir, err := filepath.EvalSymlinks(filepath.Join(dir, "reports"))
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, wantDir, gotDir)
}
