// Package report turns a finished assessment into an implementation report.
//
// BuildDocument produces a format-neutral Document: the narrative text,
// grouped improvement areas, ranked recommendations, the standards they
// touch and the practical considerations for the institution. Writers
// render that document:
//   - TextWriter: plain text for terminals and downloads
//   - MarkdownWriter: Markdown with tables and a relevance chart
//   - JSONWriter and FullJSONWriter: structured output for other tools
//
// Design decision: The narrative rules live in BuildDocument rather than
// in each writer, so every format says exactly the same thing. Writers
// only decide layout.
//
// An assessment without improvement areas is never rendered. Writers
// return ErrNotRenderable for it.
package report
