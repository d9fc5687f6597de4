package model

import "time"

// MaxStatements is the maximum number of statements kept per extraction.
const MaxStatements = 5

// CandidateStatement is a cleaned text fragment that looks like a strategic
// priority. SourceHeading is the heading it was found under, or empty when
// it came from the paragraph fallback pass.
type CandidateStatement struct {
	// Text is the whitespace-normalized statement.
	Text string `json:"text"`

	// SourceHeading is the text of the heading the statement followed.
	SourceHeading string `json:"source_heading,omitempty"`
}

// ReportLink is a hyperlink to an external inspection report.
type ReportLink struct {
	// URL is the absolute URL of the report.
	URL string `json:"url"`

	// Canonical is true if the URL is hosted on the canonical
	// report-hosting domain.
	Canonical bool `json:"canonical"`
}

// Extraction is the result of one extraction call.
//
// Design decision: A failed fetch is not an error return. The extractor
// always hands back an Extraction; when the page could not be used, the
// statements are empty and Err carries an advisory explaining why.
// This mirrors how a scan report records step failures without aborting.
type Extraction struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. Empty if nothing was fetched.
	FinalURL string `json:"final_url,omitempty"`

	// Statements are the discovered statements in discovery order.
	// Never more than MaxStatements.
	Statements []CandidateStatement `json:"statements"`

	// ReportLink is the discovered inspection report link, if any.
	ReportLink *ReportLink `json:"report_link,omitempty"`

	// ContentHash is the hash of the fetched page body.
	ContentHash string `json:"content_hash,omitempty"`

	// FetchedAt is when the page was fetched.
	FetchedAt time.Time `json:"fetched_at"`

	// FromCache is true when the extraction was served from the local cache.
	FromCache bool `json:"from_cache,omitempty"`

	// Err is the advisory error, if the source was unavailable.
	Err error `json:"-"`

	// ErrorMessage is the string representation of Err for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewExtraction creates an empty extraction for the given URL.
func NewExtraction(url string) *Extraction {
	return &Extraction{
		URL:        url,
		Statements: make([]CandidateStatement, 0),
		FetchedAt:  time.Now(),
	}
}

// SetError records an advisory error.
func (e *Extraction) SetError(err error) {
	e.Err = err
	if err != nil {
		e.ErrorMessage = err.Error()
	}
}

// Available reports whether the source page was fetched and parsed.
func (e *Extraction) Available() bool {
	return e.Err == nil && e.ErrorMessage == ""
}

// IsEmpty reports whether nothing useful was extracted.
func (e *Extraction) IsEmpty() bool {
	return len(e.Statements) == 0 && e.ReportLink == nil
}

// StatementTexts returns the statement texts in discovery order.
func (e *Extraction) StatementTexts() []string {
	texts := make([]string, len(e.Statements))
	for i, s := range e.Statements {
		texts[i] = s.Text
	}
	return texts
}

// ReportURL returns the report link URL or an empty string.
func (e *Extraction) ReportURL() string {
	if e.ReportLink == nil {
		return ""
	}
	return e.ReportLink.URL
}
