package catalog

// Weights are the scoring weights used by the matcher.
type Weights struct {
	// KeywordHit is added for each keyword found in an area.
	KeywordHit int `yaml:"keyword_hit" validate:"gte=0"`

	// TitleWordHit is added for each significant title word found in an area.
	TitleWordHit int `yaml:"title_word_hit" validate:"gte=0"`

	// TitleWordMinLength is the minimum rune length of a significant title word.
	TitleWordMinLength int `yaml:"title_word_min_length" validate:"gte=1"`
}

// Boost adds points to one solution when the institution context matches.
// The boost applies when the phase label contains any PhaseContains term
// or the type label contains any TypeContains term.
type Boost struct {
	Solution      string   `yaml:"solution" validate:"required"`
	PhaseContains []string `yaml:"phase_contains" validate:"dive,required"`
	TypeContains  []string `yaml:"type_contains" validate:"dive,required"`
	Points        int      `yaml:"points" validate:"gt=0"`
}

// Standard is one entry of the standards taxonomy.
type Standard struct {
	Key         string   `yaml:"key" validate:"required"`
	Title       string   `yaml:"title" validate:"required"`
	Description string   `yaml:"description"`
	KeyPoints   []string `yaml:"key_points" validate:"dive,required"`
	Benefits    []string `yaml:"benefits" validate:"dive,required"`
}

// Solution is one catalog entry.
type Solution struct {
	Key       string   `yaml:"key" validate:"required"`
	Title     string   `yaml:"title" validate:"required"`
	Keywords  []string `yaml:"keywords" validate:"required,min=1,dive,required"`
	Bullets   []string `yaml:"bullets" validate:"required,min=1,dive,required"`
	Standards []string `yaml:"standards" validate:"dive,required"`
}

// document is the on-disk layout of a catalog file.
type document struct {
	DefaultSolution string     `yaml:"default_solution" validate:"required"`
	Weights         Weights    `yaml:"weights"`
	Boosts          []Boost    `yaml:"boosts" validate:"dive"`
	Standards       []Standard `yaml:"standards" validate:"dive"`
	Solutions       []Solution `yaml:"solutions" validate:"required,min=1,dive"`
}

func (s Solution) clone() Solution {
	s.Keywords = cloneStrings(s.Keywords)
	s.Bullets = cloneStrings(s.Bullets)
	s.Standards = cloneStrings(s.Standards)
	return s
}

func (s Standard) clone() Standard {
	s.KeyPoints = cloneStrings(s.KeyPoints)
	s.Benefits = cloneStrings(s.Benefits)
	return s
}

func (b Boost) clone() Boost {
	b.PhaseContains = cloneStrings(b.PhaseContains)
	b.TypeContains = cloneStrings(b.TypeContains)
	return b
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
