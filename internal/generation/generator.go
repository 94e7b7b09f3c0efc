package generation

import (
	"context"

	"github.com/phrazzld/reportd/internal/domain"
)

// Generator produces one report artifact. It is used once: CollectData, then
// RenderArtifact. Either phase may fail; the caller records the failure.
type Generator interface {
	// CollectData gathers everything the report needs.
	CollectData(ctx context.Context) error

	// RenderArtifact writes the report and returns the path of the artifact.
	RenderArtifact(ctx context.Context) (string, error)
}

// Factory builds a Generator for a task's parameters.
type Factory interface {
	NewGenerator(params domain.Params) (Generator, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(params domain.Params) (Generator, error)

// NewGenerator calls f(params).
func (f FactoryFunc) NewGenerator(params domain.Params) (Generator, error) {
	return f(params)
}
