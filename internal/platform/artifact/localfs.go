// Package artifact reads generated report files back from local disk.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/phrazzld/reportd/internal/store"
)

// LocalFS resolves artifact paths against Root. Absolute paths recorded by a
// generator are used as they are.
type LocalFS struct {
	Root string
}

// NewLocalFS creates a LocalFS rooted at root.
func NewLocalFS(root string) LocalFS {
	return LocalFS{Root: root}
}

func (l LocalFS) resolve(path string) string {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) {
		return clean
	}
	return filepath.Join(l.Root, clean)
}

// Open opens the artifact for reading. A missing file or a directory yields
// store.ErrArtifactNotFound. The caller closes the file.
func (l LocalFS) Open(path string) (*os.File, fs.FileInfo, error) {
	if path == "" {
		return nil, nil, store.ErrArtifactNotFound
	}
	abs := l.resolve(path)

	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", store.ErrArtifactNotFound, filepath.Base(abs))
		}
		return nil, nil, fmt.Errorf("failed to open artifact: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to stat artifact: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %s is not a file", store.ErrArtifactNotFound, filepath.Base(abs))
	}
	return f, info, nil
}
