package model

import (
	"net/url"
	"strings"
)

// Institution is a school record from the national establishment dataset.
type Institution struct {
	// URN is the unique reference number of the establishment.
	URN string `json:"urn"`

	// Name is the establishment name.
	Name string `json:"name"`

	// Street, Town and Postcode make up the postal address.
	Street   string `json:"street,omitempty"`
	Town     string `json:"town,omitempty"`
	Postcode string `json:"postcode,omitempty"`

	// Type is the establishment type label, e.g. "Academy converter".
	Type string `json:"type,omitempty"`

	// Phase is the phase-of-education label, e.g. "Primary".
	Phase string `json:"phase,omitempty"`

	// Pupils is the number of pupils on roll. Zero when unknown.
	Pupils int `json:"pupils"`

	// FSM is the percentage of pupils eligible for free school meals.
	FSM float64 `json:"fsm"`

	// Website is the website value as recorded in the dataset.
	// It is frequently missing a scheme; use WebsiteURL for fetching.
	Website string `json:"website,omitempty"`
}

// InstitutionContext carries the labels that drive context boosts in the matcher.
type InstitutionContext struct {
	PhaseLabel string `json:"phase_label"`
	TypeLabel  string `json:"type_label"`
}

// Address returns the street, town and postcode joined by commas.
// Empty parts are skipped.
func (i *Institution) Address() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{i.Street, i.Town, i.Postcode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Context returns the matcher context for this institution.
func (i *Institution) Context() InstitutionContext {
	return InstitutionContext{
		PhaseLabel: i.Phase,
		TypeLabel:  i.Type,
	}
}

// WebsiteURL returns a fetchable URL for the institution website.
//
// Dataset values are often bare host names such as "www.example.sch.uk".
// Those get "http://" prepended. Values that still do not parse into an
// http(s) URL with a host yield an empty string.
func (i *Institution) WebsiteURL() string {
	raw := strings.TrimSpace(i.Website)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(raw, "://") {
			return ""
		}
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || strings.ContainsAny(u.Host, " \t") {
		return ""
	}
	return raw
}
