package model

// MatchResult is one ranked solution bundle.
// Results are values; the matcher never hands out shared slices.
type MatchResult struct {
	// Key is the catalog key of the solution, e.g. "reading_instruction".
	Key string `json:"key"`

	// Title is the human-readable solution title.
	Title string `json:"title"`

	// SolutionBullets are the ordered benefit statements.
	SolutionBullets []string `json:"solution_bullets"`

	// StandardTags name the standards the solution supports.
	StandardTags []string `json:"standard_tags"`

	// RelevanceScore is the lexical relevance score. Always positive.
	RelevanceScore int `json:"relevance_score"`
}

// MatchKeys returns the keys of the results in order.
func MatchKeys(results []MatchResult) []string {
	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = r.Key
	}
	return keys
}

// StandardTagsOf returns the distinct standard tags across results,
// in first-seen order.
func StandardTagsOf(results []MatchResult) []string {
	seen := make(map[string]bool)
	tags := make([]string, 0)
	for _, r := range results {
		for _, tag := range r.StandardTags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
