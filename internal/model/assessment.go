package model

import (
	"errors"
	"time"
)

// ErrNoImprovementAreas is returned when an assessment has nothing to match.
// Reports must not be rendered for such an assessment.
var ErrNoImprovementAreas = errors.New("no improvement areas identified")

// Assessment is the aggregate built for one institution.
//
// Design decision: Pipeline steps mutate a single Assessment rather than
// passing intermediate values between each other. This keeps steps
// independent and lets the database store one JSON document per run.
type Assessment struct {
	// ID is the database ID. Zero until saved.
	ID int64 `json:"id,omitempty"`

	// Institution is the school being assessed.
	Institution Institution `json:"institution"`

	// InspectionPriorities are typed or pasted from the inspection report.
	InspectionPriorities []string `json:"inspection_priorities,omitempty"`

	// ManualStrategies are strategies the user entered in place of, or in
	// addition to, those extracted from the website.
	ManualStrategies []string `json:"manual_strategies,omitempty"`

	// UserPriorities are additional priorities entered by the user.
	UserPriorities []string `json:"user_priorities,omitempty"`

	// Areas are the collected improvement areas.
	Areas []ImprovementArea `json:"areas"`

	// Extraction is the result of extracting the institution website.
	// Nil when fetching was disabled or there is no website.
	Extraction *Extraction `json:"extraction,omitempty"`

	// ReportURL is the inspection report URL, if one was discovered
	// or configured.
	ReportURL string `json:"report_url,omitempty"`

	// Matches are the ranked solution bundles.
	Matches []MatchResult `json:"matches"`

	// DateGenerated is when the assessment was created.
	DateGenerated time.Time `json:"date_generated"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut is true if the run was cut short by the context deadline.
	TimedOut bool `json:"timed_out"`

	// Error contains any error that stopped the assessment.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewAssessment creates an empty assessment for the institution.
func NewAssessment(inst Institution) *Assessment {
	return &Assessment{
		Institution:   inst,
		Areas:         make([]ImprovementArea, 0),
		Matches:       make([]MatchResult, 0),
		DateGenerated: time.Now(),
	}
}

// AddArea appends an improvement area. Empty text is ignored, and so is
// text already present with the same origin.
func (a *Assessment) AddArea(text string, origin Origin) {
	if text == "" {
		return
	}
	for _, existing := range a.Areas {
		if existing.Origin == origin && existing.Text == text {
			return
		}
	}
	a.Areas = append(a.Areas, ImprovementArea{Text: text, Origin: origin})
}

// AreasByOrigin returns the area texts with the given origin, in insertion order.
func (a *Assessment) AreasByOrigin(origin Origin) []string {
	texts := make([]string, 0)
	for _, area := range a.Areas {
		if area.Origin == origin {
			texts = append(texts, area.Text)
		}
	}
	return texts
}

// HasOrigin reports whether at least one area has the given origin.
func (a *Assessment) HasOrigin(origin Origin) bool {
	for _, area := range a.Areas {
		if area.Origin == origin {
			return true
		}
	}
	return false
}

// AreaTexts returns all area texts in origin order.
// This is the matcher input.
func (a *Assessment) AreaTexts() []string {
	return AreaTexts(a.Areas)
}

// SetError records an error on the assessment.
func (a *Assessment) SetError(err error) {
	a.Error = err
	if err != nil {
		a.ErrorMessage = err.Error()
	}
}

// Refused reports whether the assessment must not be rendered.
func (a *Assessment) Refused() bool {
	return errors.Is(a.Error, ErrNoImprovementAreas) ||
		(a.Error == nil && a.ErrorMessage == ErrNoImprovementAreas.Error())
}

// AddPerformedStep records that a pipeline step ran.
func (a *Assessment) AddPerformedStep(name string) {
	a.PerformedSteps = append(a.PerformedSteps, name)
}
