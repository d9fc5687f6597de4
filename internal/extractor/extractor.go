package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/nao1215/schoolscan/internal/model"
)

const (
	// MaxTimeout is the upper bound for a single fetch.
	MaxTimeout = 10 * time.Second

	// DefaultUserAgent mimics a desktop browser; several school hosting
	// platforms reject unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Extractor fetches one page and extracts statements and a report link.
// An Extractor is safe for concurrent use.
type Extractor struct {
	client           *http.Client
	userAgent        string
	timeout          time.Duration
	maxBodySize      int64
	maxStatements    int
	strategyKeywords []string
	reportKeywords   []string
	canonicalHost    string
	logger           *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Extractor) {
		if client != nil {
			e.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithTimeout sets the fetch timeout. It is clamped to MaxTimeout;
// non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d <= 0 {
			return
		}
		e.timeout = min(d, MaxTimeout)
	}
}

// WithMaxBodySize sets the maximum number of body bytes read.
func WithMaxBodySize(size int64) Option {
	return func(e *Extractor) {
		if size > 0 {
			e.maxBodySize = size
		}
	}
}

// WithMaxStatements sets how many statements are kept per page.
func WithMaxStatements(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxStatements = n
		}
	}
}

// WithStrategyKeywords replaces the strategy keyword list.
func WithStrategyKeywords(keywords []string) Option {
	return func(e *Extractor) {
		if len(keywords) > 0 {
			e.strategyKeywords = lowerAll(keywords)
		}
	}
}

// WithReportKeywords replaces the report link keyword list.
func WithReportKeywords(keywords []string) Option {
	return func(e *Extractor) {
		if len(keywords) > 0 {
			e.reportKeywords = lowerAll(keywords)
		}
	}
}

// WithCanonicalReportHost sets the host whose links end report discovery.
func WithCanonicalReportHost(host string) Option {
	return func(e *Extractor) {
		e.canonicalHost = strings.ToLower(strings.TrimSpace(host))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Extractor with the given options.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		client:           &http.Client{Timeout: MaxTimeout},
		userAgent:        DefaultUserAgent,
		timeout:          MaxTimeout,
		maxBodySize:      model.MaxDocumentSize,
		maxStatements:    model.MaxStatements,
		strategyKeywords: lowerAll(DefaultStrategyKeywords),
		reportKeywords:   lowerAll(DefaultReportKeywords),
		canonicalHost:    DefaultCanonicalReportHost,
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract fetches pageURL and returns what it found.
//
// URLs that are empty or not http(s) yield an empty Extraction without any
// network activity and without an advisory. Any fetch or parse failure yields
// an empty Extraction whose Err wraps ErrSourceUnavailable.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (result *model.Extraction) {
	result = model.NewExtraction(pageURL)
	if !isHTTPURL(pageURL) {
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			e.fail(result, fmt.Errorf("%w: panic while extracting: %v", ErrSourceUnavailable, r))
		}
	}()

	doc, err := e.fetch(ctx, pageURL)
	if err != nil {
		e.fail(result, err)
		return result
	}

	result.FinalURL = doc.BaseURL()
	result.ContentHash = doc.Hash

	sel, err := parse(doc)
	if err != nil {
		e.fail(result, err)
		return result
	}

	result.ReportLink = e.findReportLink(sel, doc.BaseURL())
	result.Statements = e.findStatements(sel)

	e.logger.Debug("extracted page",
		"url", pageURL,
		"final_url", result.FinalURL,
		"statements", len(result.Statements),
		"report_link", result.ReportURL())

	return result
}

// fail resets result to the empty state and records the advisory.
func (e *Extractor) fail(result *model.Extraction, err error) {
	result.Statements = make([]model.CandidateStatement, 0)
	result.ReportLink = nil
	result.SetError(err)
	e.logger.Warn("could not extract school website", "url", result.URL, "error", err)
}

// fetch performs the single GET.
func (e *Extractor) fetch(ctx context.Context, pageURL string) (*model.RawDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", ErrSourceUnavailable, err)
	}

	doc := &model.RawDocument{
		URL:         pageURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Raw:         body,
	}
	doc.ComputeHash()

	if !doc.IsHTML() {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrSourceUnavailable, doc.ContentType)
	}

	return doc, nil
}

// parse decodes the body to UTF-8 and builds the goquery document.
func parse(doc *model.RawDocument) (*goquery.Selection, error) {
	raw := doc.Raw
	if !utf8.Valid(raw) {
		enc, _, _ := charset.DetermineEncoding(raw, doc.ContentType)
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode body: %w", ErrSourceUnavailable, err)
		}
		raw = decoded
	}

	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %w", ErrSourceUnavailable, err)
	}
	return gq.Selection, nil
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
