package generation

import "errors"

// Common errors returned by generators
var (
	// ErrCollectionFailed is returned when the data-collection phase fails.
	ErrCollectionFailed = errors.New("failed to collect report data")

	// ErrRenderFailed is returned when the rendering phase fails.
	ErrRenderFailed = errors.New("failed to render report")

	// ErrNotCollected is returned when RenderArtifact is called before a
	// successful CollectData.
	ErrNotCollected = errors.New("report data has not been collected")

	// ErrEmptyArtifactPath is returned when rendering reports success without
	// naming an artifact.
	ErrEmptyArtifactPath = errors.New("generator returned an empty artifact path")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrContentBlocked is returned when the model refuses to produce content
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrInvalidResponse is returned when the model's response cannot be used
	ErrInvalidResponse = errors.New("invalid response from model")

	// ErrTransientFailure is returned when retries against the model are exhausted
	ErrTransientFailure = errors.New("transient failure calling model")
)
