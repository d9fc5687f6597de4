package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/schoolscan/internal/model"
)

// findReportLink walks anchors in document order and returns the first one
// that mentions a report keyword. A link on the canonical host replaces any
// earlier candidate and stops the walk.
func (e *Extractor) findReportLink(doc *goquery.Selection, base string) *model.ReportLink {
	var found *model.ReportLink

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		text := strings.ToLower(a.Text())
		if !containsAny(text, e.reportKeywords) && !containsAny(strings.ToLower(href), e.reportKeywords) {
			return true
		}

		resolved := resolveURL(base, href)
		if resolved == "" {
			return true
		}

		if e.isCanonical(resolved) {
			found = &model.ReportLink{URL: resolved, Canonical: true}
			return false
		}
		if found == nil {
			found = &model.ReportLink{URL: resolved}
		}
		return true
	})

	return found
}

// isCanonical reports whether the URL is on the canonical report host
// or one of its subdomains.
func (e *Extractor) isCanonical(raw string) bool {
	if e.canonicalHost == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == e.canonicalHost || strings.HasSuffix(host, "."+e.canonicalHost)
}

// resolveURL turns an href into an absolute URL.
//
// Absolute http(s) hrefs are returned unchanged. Root-relative hrefs are
// joined to the base origin, and scheme-relative hrefs take the base scheme.
// Anything else is appended to the base URL after trimming its trailing
// slashes, so "ofsted" on "https://a.example/about/" becomes
// "https://a.example/about/ofsted". Script, mail, phone and data links,
// other schemes and fragment-only hrefs such as "#ofsted" return an empty
// string.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	if isHTTPURL(href) {
		return href
	}

	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(href, "//"):
		return b.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		return b.Scheme + "://" + b.Host + href
	}

	if u, err := url.Parse(href); err == nil && u.Scheme != "" {
		return ""
	}

	return strings.TrimRight(base, "/") + "/" + href
}
