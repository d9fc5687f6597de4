package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/schoolscan/internal/catalog"
	"github.com/nao1215/schoolscan/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for sharing with school leaders and for
// pasting into documents. A MarkdownWriter is not safe for concurrent use.
type MarkdownWriter struct {
	baseWriter

	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
// A nil catalog means the embedded default catalog.
func NewMarkdownWriter(output io.Writer, cat *catalog.Catalog) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output, cat),
		title:      cases.Title(language.BritishEnglish),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(assessment *model.Assessment) (int, error) {
	doc, err := w.document(assessment)
	if err != nil {
		return 0, err
	}

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, doc, assessment)

	md.H2("Executive Summary")
	md.PlainText("")
	for _, p := range doc.Summary {
		md.PlainText(p)
		md.PlainText("")
	}

	w.writeAreas(md, doc)
	w.writeRecommendations(md, doc)
	w.writeStandards(md, doc)

	md.H2("Implementation Considerations for Your School")
	md.PlainText("")
	for _, c := range doc.Considerations {
		md.H3(c.Title)
		md.PlainText("")
		md.PlainText(c.Text)
		md.PlainText("")
	}

	md.H2("Conclusion")
	md.PlainText("")
	for _, p := range doc.Conclusion {
		md.PlainText(p)
		md.PlainText("")
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, doc *Document, assessment *model.Assessment) {
	inst := doc.Institution

	md.H1(doc.Title + ": " + inst.Name)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URN", "`" + inst.URN + "`"},
			{"Address", orNotAvailable(inst.Address())},
			{"Type", orNotAvailable(w.title.String(inst.Type))},
			{"Phase", orNotAvailable(w.title.String(inst.Phase))},
			{"Pupils", strconv.Itoa(inst.Pupils)},
			{"FSM", formatPercent(inst.FSM) + "%"},
			{"Ofsted Report", orNotAvailable(doc.ReportURL)},
			{"School Website", orNotAvailable(inst.Website)},
			{"Generated", doc.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	ext := assessment.Extraction
	switch {
	case ext != nil && !ext.Available():
		md.Warningf("The school website could not be read (%s). Strategies were not extracted.", ext.ErrorMessage)
		md.PlainText("")
	case assessment.TimedOut:
		md.Warning("The assessment timed out. The report may be incomplete.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeAreas(md *markdown.Markdown, doc *Document) {
	md.H2("Key Improvement Areas")
	md.PlainText("")
	for _, g := range doc.AreaGroups {
		md.H3(g.Label)
		md.PlainText("")
		md.BulletList(g.Areas...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, doc *Document) {
	md.H2("iPad Implementation Recommendations")
	md.PlainText("")

	rows := make([][]string, len(doc.Recommendations))
	for i, rec := range doc.Recommendations {
		rows[i] = []string{strconv.Itoa(i + 1), rec.Title, strconv.Itoa(rec.RelevanceScore)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Recommendation", "Relevance"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(doc.Recommendations) > 1 {
		w.writePieChart(md, doc)
	}

	for _, rec := range doc.Recommendations {
		md.H3(rec.Title)
		md.PlainText("")
		if len(rec.RelevantAreas) > 0 {
			md.PlainText("**Relevant to your priorities:**")
			md.PlainText("")
			quoted := make([]string, len(rec.RelevantAreas))
			for i, area := range rec.RelevantAreas {
				quoted[i] = "*\"" + area + "\"*"
			}
			md.BulletList(quoted...)
			md.PlainText("")
		}
		md.BulletList(rec.Bullets...)
		md.PlainText("")
		if len(rec.Standards) > 0 {
			md.PlainText("**Relevant DfE Standards:**")
			md.PlainText("")
			md.BulletList(rec.Standards...)
			md.PlainText("")
		}
	}
}

// writePieChart writes a mermaid pie chart of relevance scores.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, doc *Document) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Relevance by Recommendation"),
		piechart.WithShowData(true),
	)
	for _, rec := range doc.Recommendations {
		if rec.RelevanceScore > 0 {
			chart.LabelAndIntValue(rec.Title, uint64(rec.RelevanceScore))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeStandards(md *markdown.Markdown, doc *Document) {
	if len(doc.Standards) == 0 {
		return
	}
	md.H2("Alignment with DfE Technology Standards")
	md.PlainText("")
	for _, std := range doc.Standards {
		md.H3(std.Title)
		md.PlainText("")
		if std.Description != "" {
			md.PlainText(std.Description)
			md.PlainText("")
		}
		md.PlainText("**How 1:1 iPads support this standard at your school:**")
		md.PlainText("")
		md.BulletList(std.Benefits...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [SchoolScan](https://github.com/nao1215/schoolscan)*")
}
