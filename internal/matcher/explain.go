package matcher

import (
	"strings"

	"github.com/nao1215/schoolscan/internal/model"
)

// Breakdown shows how a solution's score was assembled.
// Total = KeywordHits*keyword weight + TitleHits*title weight + Boost.
type Breakdown struct {
	Key         string `json:"key"`
	KeywordHits int    `json:"keyword_hits"`
	TitleHits   int    `json:"title_hits"`
	Boost       int    `json:"boost"`
	Total       int    `json:"total"`

	index int
}

// Explain returns the score breakdown of every catalog solution,
// in catalog order.
func (m *Matcher) Explain(areas []string, ic model.InstitutionContext) []Breakdown {
	lowered := make([]string, len(areas))
	for i, a := range areas {
		lowered[i] = strings.ToLower(a)
	}
	phase := strings.ToLower(ic.PhaseLabel)
	typ := strings.ToLower(ic.TypeLabel)

	out := make([]Breakdown, len(m.entries))
	for i, e := range m.entries {
		bd := Breakdown{Key: e.solution.Key, index: i}
		for _, area := range lowered {
			bd.KeywordHits += countHits(area, e.keywords)
			bd.TitleHits += countHits(area, e.titleWords)
		}
		for _, b := range e.boosts {
			if containsAny(phase, b.phaseTerms) || containsAny(typ, b.typeTerms) {
				bd.Boost += b.points
			}
		}
		bd.Total = bd.KeywordHits*m.weights.KeywordHit + bd.TitleHits*m.weights.TitleWordHit + bd.Boost
		out[i] = bd
	}
	return out
}
