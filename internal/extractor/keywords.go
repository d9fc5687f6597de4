package extractor

// DefaultStrategyKeywords mark headings and paragraphs that describe a
// school's strategy or priorities.
var DefaultStrategyKeywords = []string{
	"strategy",
	"strategic",
	"priorities",
	"priority",
	"vision",
	"mission",
	"values",
	"aims",
	"objectives",
	"goals",
	"improvement",
	"plan",
	"development",
	"school development plan",
	"sdp",
}

// DefaultReportKeywords mark anchors that likely point at an inspection report.
var DefaultReportKeywords = []string{
	"ofsted",
	"inspection",
	"report",
}

// DefaultCanonicalReportHost is the host that publishes inspection reports.
const DefaultCanonicalReportHost = "reports.ofsted.gov.uk"
