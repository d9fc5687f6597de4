package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/schoolscan/internal/catalog"
	"github.com/nao1215/schoolscan/internal/model"
)

// JSONWriter writes the assessment itself as one JSON document per call.
type JSONWriter struct {
	baseWriter
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent pretty prints the output, see json.Encoder.SetIndent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix, w.indent = prefix, indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter returns a compact JSON writer unless an indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output, nil)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes assessment. Refused assessments are not written.
func (w *JSONWriter) Write(assessment *model.Assessment) (int, error) {
	if err := checkRenderable(assessment); err != nil {
		return 0, err
	}
	return w.encode(assessment)
}

// encode buffers the whole document so a failed encoding writes nothing.
// HTML escaping is off because report and website URLs carry '&'.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent != "" || w.prefix != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// JSONReport is the document written by FullJSONWriter.
type JSONReport struct {
	Version    string            `json:"version"`
	Assessment *model.Assessment `json:"assessment"`
	Document   *Document         `json:"document"`
}

// FullJSONWriter writes the assessment together with its rendered document
// and the version of schoolscan that produced it.
type FullJSONWriter struct {
	*JSONWriter
	version string
}

// NewFullJSONWriter returns a FullJSONWriter. A nil catalog means the
// embedded default catalog.
func NewFullJSONWriter(output io.Writer, cat *catalog.Catalog, version string, opts ...JSONWriterOption) *FullJSONWriter {
	w := NewJSONWriter(output, opts...)
	w.catalog = cat
	return &FullJSONWriter{JSONWriter: w, version: version}
}

// Write encodes a JSONReport for assessment.
func (w *FullJSONWriter) Write(assessment *model.Assessment) (int, error) {
	doc, err := w.document(assessment)
	if err != nil {
		return 0, err
	}
	return w.encode(&JSONReport{
		Version:    w.version,
		Assessment: assessment,
		Document:   doc,
	})
}
