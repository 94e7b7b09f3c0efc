// Package reportgen provides the concrete report generators behind the
// generation.Generator interface: a built-in Markdown renderer that needs no
// external services, and a command generator that delegates both phases to an
// external program such as the research pipeline script. The "gemini" kind is
// served by the gemini package.
package reportgen
