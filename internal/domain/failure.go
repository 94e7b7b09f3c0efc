package domain

// FailureKind classifies why a task failed, so consumers never parse messages.
type FailureKind string

// Failure kinds recorded by the coordinator
const (
	// FailureKindCollect means the data-collection phase returned an error.
	FailureKindCollect FailureKind = "collect"

	// FailureKindRender means the rendering phase returned an error or no artifact.
	FailureKindRender FailureKind = "render"

	// FailureKindTimeout means the task ran past its deadline.
	FailureKindTimeout FailureKind = "timeout"

	// FailureKindPanic means the collaborator panicked.
	FailureKindPanic FailureKind = "panic"
)

// Failure is the structured description stored on a failed task.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// NewFailure builds a Failure from an error. A nil error yields an empty message.
func NewFailure(kind FailureKind, err error) *Failure {
	f := &Failure{Kind: kind}
	if err != nil {
		f.Message = err.Error()
	}
	return f
}
