package model

import "strings"

// Origin identifies where an improvement statement came from.
//
// The order of the constants is significant: areas are always concatenated
// in this order before matching and when grouped for display.
type Origin int

const (
	// OriginInspectionReport is a priority taken from an inspection report summary.
	OriginInspectionReport Origin = iota

	// OriginPublishedStrategy is a statement found on the school's own website.
	OriginPublishedStrategy

	// OriginUserSupplied is a note typed in by the user.
	OriginUserSupplied
)

// Origins lists every origin in concatenation order.
var Origins = []Origin{
	OriginInspectionReport,
	OriginPublishedStrategy,
	OriginUserSupplied,
}

// String returns a machine-friendly name for the origin.
func (o Origin) String() string {
	switch o {
	case OriginInspectionReport:
		return "inspection_report"
	case OriginPublishedStrategy:
		return "published_strategy"
	case OriginUserSupplied:
		return "user_supplied"
	default:
		return "unknown"
	}
}

// Label returns the heading used when areas are grouped in a report.
func (o Origin) Label() string {
	switch o {
	case OriginInspectionReport:
		return "From Ofsted Report"
	case OriginPublishedStrategy:
		return "From School Strategy"
	case OriginUserSupplied:
		return "Additional Priorities"
	default:
		return "Other"
	}
}

// MarshalText implements encoding.TextMarshaler so origins serialize by name.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Unknown names decode to OriginUserSupplied.
func (o *Origin) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "inspection_report":
		*o = OriginInspectionReport
	case "published_strategy":
		*o = OriginPublishedStrategy
	default:
		*o = OriginUserSupplied
	}
	return nil
}

// ImprovementArea is a single free-text statement describing a deficiency
// or priority the institution wants addressed.
type ImprovementArea struct {
	// Text is the statement itself.
	Text string `json:"text"`

	// Origin is where the statement came from.
	Origin Origin `json:"origin"`
}

// OrderAreas returns the areas concatenated in origin order.
// Within one origin, the input order is preserved.
func OrderAreas(areas []ImprovementArea) []ImprovementArea {
	ordered := make([]ImprovementArea, 0, len(areas))
	for _, origin := range Origins {
		for _, a := range areas {
			if a.Origin == origin {
				ordered = append(ordered, a)
			}
		}
	}
	return ordered
}

// AreaTexts returns the texts of the areas in origin order.
func AreaTexts(areas []ImprovementArea) []string {
	ordered := OrderAreas(areas)
	texts := make([]string, len(ordered))
	for i, a := range ordered {
		texts[i] = a.Text
	}
	return texts
}
