package report

import (
	"io"

	"github.com/nao1215/schoolscan/internal/catalog"
	"github.com/nao1215/schoolscan/internal/model"
)

// Writer renders one assessment and returns the number of bytes written.
// An assessment without matches is refused with ErrNotRenderable and
// nothing is written.
type Writer interface {
	Write(assessment *model.Assessment) (int, error)
}

// MultiWriter renders the same assessment through several writers, for
// example a text report on the terminal and JSON in a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter returns a MultiWriter over writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write calls each writer in order and stops at the first error. The
// returned count is the sum over the writers that ran.
func (m *MultiWriter) Write(assessment *model.Assessment) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(assessment)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the destination and the catalog used to build documents.
type baseWriter struct {
	output  io.Writer
	catalog *catalog.Catalog
}

func newBaseWriter(output io.Writer, cat *catalog.Catalog) baseWriter {
	return baseWriter{output: output, catalog: cat}
}

func (b baseWriter) document(assessment *model.Assessment) (*Document, error) {
	return BuildDocument(assessment, b.catalog)
}
