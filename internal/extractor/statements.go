package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/schoolscan/internal/model"
)

const (
	// siblingWindow is how many element siblings after a heading are inspected.
	siblingWindow = 5

	// minSiblingLength is the trimmed length a sibling needs to be collected.
	// Lengths are in runes and the comparison is strict.
	minSiblingLength = 20

	// minFallbackLength is the trimmed length a fallback paragraph needs.
	minFallbackLength = 50

	// MinStatementLength is the minimum normalized length of a kept statement.
	MinStatementLength = 30
)

// whitespace also matches no-break spaces, which are common in CMS output.
var whitespace = regexp.MustCompile(`[\s\p{Z}]+`)

const headingSelector = "h1, h2, h3, h4, h5, h6"

// findStatements runs the heading pass and, if that found nothing,
// the paragraph fallback, then normalizes the candidates.
func (e *Extractor) findStatements(doc *goquery.Selection) []model.CandidateStatement {
	raw := e.headingPass(doc)
	if len(raw) == 0 {
		raw = e.fallbackPass(doc)
	}
	return normalize(raw, e.maxStatements)
}

func (e *Extractor) headingPass(doc *goquery.Selection) []model.CandidateStatement {
	found := make([]model.CandidateStatement, 0)

	doc.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		headingText := h.Text()
		if !containsAny(strings.ToLower(headingText), e.strategyKeywords) {
			return
		}
		heading := collapse(headingText)

		h.NextAll().EachWithBreak(func(i int, sib *goquery.Selection) bool {
			if i >= siblingWindow {
				return false
			}
			if isBlockCandidate(sib) {
				text := strings.TrimSpace(sib.Text())
				if utf8.RuneCountInString(text) > minSiblingLength {
					found = append(found, model.CandidateStatement{Text: text, SourceHeading: heading})
				}
			}
			return true
		})
	})

	return found
}

func (e *Extractor) fallbackPass(doc *goquery.Selection) []model.CandidateStatement {
	found := make([]model.CandidateStatement, 0)

	doc.Find("p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) <= minFallbackLength {
			return
		}
		if containsAny(strings.ToLower(text), e.strategyKeywords) {
			found = append(found, model.CandidateStatement{Text: text})
		}
	})

	return found
}

// isBlockCandidate reports whether the element is a p, li or div.
func isBlockCandidate(s *goquery.Selection) bool {
	if len(s.Nodes) == 0 {
		return false
	}
	n := s.Nodes[0]
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Li, atom.Div:
		return true
	default:
		return false
	}
}

// normalize collapses whitespace, drops short fragments, removes fragments
// that contain or are contained in an earlier one, and caps the result.
// Discovery order is preserved.
func normalize(candidates []model.CandidateStatement, limit int) []model.CandidateStatement {
	kept := make([]model.CandidateStatement, 0, limit)

	for _, c := range candidates {
		text := collapse(c.Text)
		if utf8.RuneCountInString(text) < MinStatementLength {
			continue
		}
		if overlaps(text, kept) {
			continue
		}
		kept = append(kept, model.CandidateStatement{Text: text, SourceHeading: c.SourceHeading})
	}

	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func overlaps(text string, kept []model.CandidateStatement) bool {
	for _, k := range kept {
		if strings.Contains(k.Text, text) || strings.Contains(text, k.Text) {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
