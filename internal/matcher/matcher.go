package matcher

import (
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/schoolscan/internal/catalog"
	"github.com/nao1215/schoolscan/internal/model"
)

const (
	// DefaultMaxResults is the maximum number of results returned by Match.
	DefaultMaxResults = 5

	// DefaultScore is the score given to the fallback solution.
	DefaultScore = 1
)

// entry is a catalog solution with its match terms precomputed.
type entry struct {
	solution   catalog.Solution
	keywords   []string
	titleWords []string
	boosts     []boost
}

type boost struct {
	phaseTerms []string
	typeTerms  []string
	points     int
}

// Matcher scores improvement areas against a catalog.
type Matcher struct {
	entries      []entry
	defaultIndex int
	weights      catalog.Weights
	maxResults   int
	logger       *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithMaxResults sets the maximum number of results. Values below 1 are ignored.
func WithMaxResults(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.maxResults = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Matcher for the given catalog.
// Keywords, title words and boost terms are lower-cased once here so that
// Match only has to fold the area text.
func New(cat *catalog.Catalog, opts ...Option) *Matcher {
	m := &Matcher{
		weights:    cat.Weights(),
		maxResults: DefaultMaxResults,
		logger:     slog.Default(),
	}

	solutions := cat.Solutions()
	index := make(map[string]int, len(solutions))
	m.entries = make([]entry, len(solutions))
	for i, sol := range solutions {
		index[sol.Key] = i
		m.entries[i] = entry{
			solution:   sol,
			keywords:   lowerAll(sol.Keywords),
			titleWords: significantWords(sol.Title, m.weights.TitleWordMinLength),
		}
	}
	m.defaultIndex = index[cat.DefaultKey()]

	for _, b := range cat.Boosts() {
		i := index[b.Solution]
		m.entries[i].boosts = append(m.entries[i].boosts, boost{
			phaseTerms: lowerAll(b.PhaseContains),
			typeTerms:  lowerAll(b.TypeContains),
			points:     b.Points,
		})
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match ranks catalog solutions against the given areas.
// An empty input yields an empty result. A non-empty input always yields
// between one and the configured maximum of results.
func (m *Matcher) Match(areas []string, ic model.InstitutionContext) []model.MatchResult {
	if len(areas) == 0 {
		return []model.MatchResult{}
	}

	breakdowns := m.Explain(areas, ic)

	// SortStableFunc keeps catalog order for equal scores.
	ranked := slices.Clone(breakdowns)
	slices.SortStableFunc(ranked, func(a, b Breakdown) int {
		return b.Total - a.Total
	})

	results := make([]model.MatchResult, 0, m.maxResults)
	for _, bd := range ranked {
		if bd.Total <= 0 || len(results) == m.maxResults {
			break
		}
		results = append(results, m.result(bd.index, bd.Total))
	}

	if len(results) == 0 {
		m.logger.Debug("no solution scored, using default",
			"default", m.entries[m.defaultIndex].solution.Key,
			"areas", len(areas))
		results = append(results, m.result(m.defaultIndex, DefaultScore))
	}

	return results
}

// MatchAreas is Match over improvement areas, concatenated in origin order.
func (m *Matcher) MatchAreas(areas []model.ImprovementArea, ic model.InstitutionContext) []model.MatchResult {
	return m.Match(model.AreaTexts(areas), ic)
}

// RelevantAreas returns up to limit areas that contain at least one keyword
// of the given solution, in input order. A limit below 1 means no limit.
func (m *Matcher) RelevantAreas(key string, areas []string, limit int) []string {
	relevant := make([]string, 0)
	for _, e := range m.entries {
		if e.solution.Key != key {
			continue
		}
		for _, area := range areas {
			if limit > 0 && len(relevant) == limit {
				break
			}
			if countHits(strings.ToLower(area), e.keywords) > 0 {
				relevant = append(relevant, area)
			}
		}
		break
	}
	return relevant
}

func (m *Matcher) result(i, score int) model.MatchResult {
	sol := m.entries[i].solution
	return model.MatchResult{
		Key:             sol.Key,
		Title:           sol.Title,
		SolutionBullets: slices.Clone(sol.Bullets),
		StandardTags:    slices.Clone(sol.Standards),
		RelevanceScore:  score,
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// significantWords returns the lower-cased title words with at least
// minLen runes. Repeated words are kept.
func significantWords(title string, minLen int) []string {
	words := strings.Fields(strings.ToLower(title))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) >= minLen {
			out = append(out, w)
		}
	}
	return out
}

// countHits counts the terms that occur in text.
func countHits(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			n++
		}
	}
	return n
}

func containsAny(label string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(label, t) {
			return true
		}
	}
	return false
}
