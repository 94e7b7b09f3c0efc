// Package generation defines the boundary between the task coordinator and
// the report generator. A Generator is built per task from its parameters and
// runs in two phases: CollectData gathers the inputs, RenderArtifact writes the
// report and returns where it was written. Concrete generators live under
// internal/platform/reportgen.
package generation
