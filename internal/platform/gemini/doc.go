// Package gemini implements generation.Generator on top of Google's Gemini
// API. CollectData asks the model to draft the report from a prompt template
// and RenderArtifact writes the draft into the output directory as Markdown.
package gemini
