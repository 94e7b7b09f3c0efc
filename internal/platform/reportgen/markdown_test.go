package reportgen

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func acme() domain.Params {
	return domain.Params{Company: "Acme Corp", Code: "0001", Market: "HK"}
}

func TestMarkdownGenerator_RendersArtifact(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "reports")
	gen := NewMarkdownGenerator(acme(), dir, discardLogger())
	gen.now = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, gen.CollectData(ctx))
	path, err := gen.RenderArtifact(ctx)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "HK_0001_Acme-Corp_20240304T050607.000000000.md", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.True(t, strings.HasPrefix(text, "# Acme Corp (0001.HK) Research Report"))
	for _, section := range defaultSections {
		assert.Contains(t, text, "## "+section)
	}
}

func TestMarkdownGenerator_RenderBeforeCollect(t *testing.T) {
	t.Parallel()

	gen := NewMarkdownGenerator(acme(), t.TempDir(), discardLogger())
	_, err := gen.RenderArtifact(context.Background())
	assert.ErrorIs(t, err, generation.ErrNotCollected)
}

func TestMarkdownGenerator_CollectRejectsInvalidParams(t *testing.T) {
	t.Parallel()

	gen := NewMarkdownGenerator(domain.Params{Code: "0001"}, t.TempDir(), discardLogger())
	err := gen.CollectData(context.Background())
	assert.ErrorIs(t, err, generation.ErrCollectionFailed)
}

func TestMarkdownGenerator_HonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewMarkdownGenerator(acme(), t.TempDir(), discardLogger())
	assert.ErrorIs(t, gen.CollectData(ctx), context.Canceled)
}

func TestMarkdownGenerator_RenderFailsOnUnwritableDir(t *testing.T) {
	t.Parallel()

	// A regular file where the output directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	gen := NewMarkdownGenerator(acme(), filepath.Join(blocker, "reports"), discardLogger())
	require.NoError(t, gen.CollectData(context.Background()))

	_, err := gen.RenderArtifact(context.Background())
	assert.ErrorIs(t, err, generation.ErrRenderFailed)
}
