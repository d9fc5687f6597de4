package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/schoolscan/internal/catalog"
	"github.com/nao1215/schoolscan/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const ruleWidth = 70

// TextWriter outputs reports as plain text.
// The layout is deterministic so the output can be saved and diffed.
// A TextWriter is not safe for concurrent use.
type TextWriter struct {
	baseWriter

	upper cases.Caser
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
// A nil catalog means the embedded default catalog.
func NewTextWriter(output io.Writer, cat *catalog.Catalog) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output, cat),
		upper:      cases.Upper(language.BritishEnglish),
	}
}

// Write outputs the report in plain text.
func (w *TextWriter) Write(assessment *model.Assessment) (int, error) {
	doc, err := w.document(assessment)
	if err != nil {
		return 0, err
	}

	var sb strings.Builder
	w.writeHeader(&sb, doc)
	w.writeParagraphs(&sb, "Executive Summary", doc.Summary)
	w.writeAreas(&sb, doc)
	w.writeRecommendations(&sb, doc)
	w.writeStandards(&sb, doc)

	w.section(&sb, "Implementation Considerations for Your School")
	for _, c := range doc.Considerations {
		fmt.Fprintf(&sb, "%s\n%s\n\n", c.Title, c.Text)
	}

	w.writeParagraphs(&sb, "Conclusion", doc.Conclusion)
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(w.upper.String(title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *TextWriter) writeHeader(sb *strings.Builder, doc *Document) {
	inst := doc.Institution

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%s FOR %s\n", w.upper.String(doc.Title), w.upper.String(inst.Name))
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Name:           %s\n", inst.Name)
	fmt.Fprintf(sb, "URN:            %s\n", inst.URN)
	fmt.Fprintf(sb, "Address:        %s\n", orNotAvailable(inst.Address()))
	fmt.Fprintf(sb, "Type:           %s\n", orNotAvailable(inst.Type))
	fmt.Fprintf(sb, "Phase:          %s\n", orNotAvailable(inst.Phase))
	fmt.Fprintf(sb, "Pupils:         %d\n", inst.Pupils)
	fmt.Fprintf(sb, "FSM:            %s%%\n", formatPercent(inst.FSM))
	fmt.Fprintf(sb, "Ofsted Report:  %s\n", orNotAvailable(doc.ReportURL))
	fmt.Fprintf(sb, "School Website: %s\n", orNotAvailable(inst.Website))
	fmt.Fprintf(sb, "Generated:      %s\n\n", doc.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
}

func (w *TextWriter) writeParagraphs(sb *strings.Builder, title string, paragraphs []string) {
	w.section(sb, title)
	for _, p := range paragraphs {
		sb.WriteString(p)
		sb.WriteString("\n\n")
	}
}

func (w *TextWriter) writeAreas(sb *strings.Builder, doc *Document) {
	w.section(sb, "Key Improvement Areas")
	for _, g := range doc.AreaGroups {
		fmt.Fprintf(sb, "%s:\n", g.Label)
		for _, area := range g.Areas {
			fmt.Fprintf(sb, "  - %s\n", area)
		}
		sb.WriteString("\n")
	}
}

func (w *TextWriter) writeRecommendations(sb *strings.Builder, doc *Document) {
	w.section(sb, "iPad Implementation Recommendations")
	for _, rec := range doc.Recommendations {
		fmt.Fprintf(sb, "%s (relevance %d)\n", rec.Title, rec.RelevanceScore)

		if len(rec.RelevantAreas) > 0 {
			sb.WriteString("  Relevant to your priorities:\n")
			for _, area := range rec.RelevantAreas {
				fmt.Fprintf(sb, "    - %q\n", area)
			}
		}
		for _, bullet := range rec.Bullets {
			fmt.Fprintf(sb, "  - %s\n", bullet)
		}
		if len(rec.Standards) > 0 {
			fmt.Fprintf(sb, "  Relevant DfE Standards: %s\n", strings.Join(rec.Standards, "; "))
		}
		sb.WriteString("\n")
	}
}

func (w *TextWriter) writeStandards(sb *strings.Builder, doc *Document) {
	if len(doc.Standards) == 0 {
		return
	}
	w.section(sb, "Alignment with DfE Technology Standards")
	for _, std := range doc.Standards {
		fmt.Fprintf(sb, "%s\n", std.Title)
		if std.Description != "" {
			fmt.Fprintf(sb, "%s\n", std.Description)
		}
		for _, b := range std.Benefits {
			fmt.Fprintf(sb, "  - %s\n", b)
		}
		sb.WriteString("\n")
	}
}

func orNotAvailable(s string) string {
	if s == "" {
		return "Not available"
	}
	return s
}
