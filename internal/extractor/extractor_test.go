package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/nao1215/schoolscan/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func htmlServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestExtractor(server *httptest.Server, opts ...Option) *Extractor {
	base := []Option{WithHTTPClient(server.Client()), WithLogger(quietLogger())}
	return New(append(base, opts...)...)
}

func TestExtractPrecondition(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	e := newTestExtractor(server)

	for _, raw := range []string{"", "school.example", "ftp://school.example", "mailto:head@school.example"} {
		got := e.Extract(context.Background(), raw)
		if !got.IsEmpty() {
			t.Errorf("%q: expected empty extraction, got %+v", raw, got)
		}
		if !got.Available() {
			t.Errorf("%q: expected no advisory, got %v", raw, got.Err)
		}
	}

	if hits.Load() != 0 {
		t.Errorf("expected no network requests, got %d", hits.Load())
	}
}

func TestExtractHeadingPass(t *testing.T) {
	t.Parallel()

	t.Run("collects statements after a strategy heading", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<h1>Welcome to Oak School</h1>
<h2>Our Vision</h2>
<p>Our vision is to improve outcomes for all pupils across the curriculum, and we aim to...</p>
</body></html>`)

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if !got.Available() {
			t.Fatalf("unexpected advisory: %v", got.Err)
		}
		if len(got.Statements) != 1 {
			t.Fatalf("expected 1 statement, got %d: %+v", len(got.Statements), got.Statements)
		}
		want := "Our vision is to improve outcomes for all pupils across the curriculum, and we aim to..."
		if got.Statements[0].Text != want {
			t.Errorf("got %q, want %q", got.Statements[0].Text, want)
		}
		if got.Statements[0].SourceHeading != "Our Vision" {
			t.Errorf("expected source heading 'Our Vision', got %q", got.Statements[0].SourceHeading)
		}
		if got.ContentHash == "" {
			t.Error("expected content hash to be set")
		}
	})

	t.Run("inspects only five element siblings", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<h2>Our Priorities</h2>
<p>Raise attainment in reading across every key stage this year.</p>
<span>An inline span that is long enough but not a block element.</span>
<ul><li>A list inside a ul is not itself a collected sibling element.</li></ul>
<div>Develop a broad and ambitious curriculum in the foundation subjects.</div>
<li>Strengthen the quality of feedback pupils receive in mathematics lessons.</li>
<p>This sixth sibling sits outside the window and must be ignored.</p>
</body></html>`)

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		texts := got.StatementTexts()

		want := []string{
			"Raise attainment in reading across every key stage this year.",
			"Develop a broad and ambitious curriculum in the foundation subjects.",
			"Strengthen the quality of feedback pupils receive in mathematics lessons.",
		}
		if strings.Join(texts, "|") != strings.Join(want, "|") {
			t.Errorf("got %q, want %q", texts, want)
		}
	})

	t.Run("skips short siblings", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<h3>Mission</h3>
<p>Be kind.</p>
<p>Twenty one chars ok.</p>
</body></html>`)

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if len(got.Statements) != 0 {
			t.Errorf("expected no statements, got %+v", got.Statements)
		}
	})
}

func TestExtractFallbackPass(t *testing.T) {
	t.Parallel()

	t.Run("collects long keyword paragraphs when no heading matches", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<h1>Welcome</h1>
<p>Our improvement work this year focuses on early reading and phonics for every child.</p>
<p>The school office is open from eight in the morning until four in the afternoon.</p>
<li>The school development plan sets out three goals for teaching and learning.</li>
<p>Short plan text.</p>
</body></html>`)

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		want := []string{
			"Our improvement work this year focuses on early reading and phonics for every child.",
			"The school development plan sets out three goals for teaching and learning.",
		}
		if strings.Join(got.StatementTexts(), "|") != strings.Join(want, "|") {
			t.Errorf("got %q, want %q", got.StatementTexts(), want)
		}
		for _, s := range got.Statements {
			if s.SourceHeading != "" {
				t.Errorf("expected no source heading for fallback statement, got %q", s.SourceHeading)
			}
		}
	})

	t.Run("is skipped when the heading pass found something", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<h2>Aims</h2>
<p>We aim for every pupil to leave us as a confident and fluent reader.</p>
<section>
<p>Unrelated paragraph about our improvement plan that would match the fallback pass.</p>
</section>
</body></html>`)

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if len(got.Statements) != 1 {
			t.Fatalf("expected 1 statement, got %q", got.StatementTexts())
		}
	})

	t.Run("caps at five statements in discovery order", func(t *testing.T) {
		t.Parallel()

		var b strings.Builder
		b.WriteString("<html><body>")
		for i := range 8 {
			fmt.Fprintf(&b, "<p>Improvement priority number %d for the coming academic year at our school.</p>", i)
		}
		b.WriteString("</body></html>")
		server := htmlServer(t, b.String())

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if len(got.Statements) != model.MaxStatements {
			t.Fatalf("expected %d statements, got %d", model.MaxStatements, len(got.Statements))
		}
		if !strings.Contains(got.Statements[0].Text, "number 0") || !strings.Contains(got.Statements[4].Text, "number 4") {
			t.Errorf("expected discovery order, got %q", got.StatementTexts())
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("collapses whitespace and drops short fragments", func(t *testing.T) {
		t.Parallel()

		in := []model.CandidateStatement{
			{Text: "Ten chars!"},
			{Text: "  Our   vision\n is\tto improve outcomes for all pupils  "},
		}
		got := normalize(in, 5)
		if len(got) != 1 {
			t.Fatalf("expected 1 statement, got %d", len(got))
		}
		if got[0].Text != "Our vision is to improve outcomes for all pupils" {
			t.Errorf("unexpected text %q", got[0].Text)
		}
	})

	t.Run("removes contained and containing fragments", func(t *testing.T) {
		t.Parallel()

		short := "Our school improvement plan focuses on reading."
		long := short + " It also covers mathematics and science."
		other := "We value every member of our community equally."

		got := normalize([]model.CandidateStatement{{Text: short}, {Text: long}, {Text: other}, {Text: short}}, 5)
		if len(got) != 2 || got[0].Text != short || got[1].Text != other {
			t.Errorf("unexpected result %+v", got)
		}

		got = normalize([]model.CandidateStatement{{Text: long}, {Text: short}}, 5)
		if len(got) != 1 || got[0].Text != long {
			t.Errorf("unexpected result %+v", got)
		}
	})

	t.Run("result is containment free and bounded", func(t *testing.T) {
		t.Parallel()

		words := []string{"reading", "phonics", "writing", "maths", "science", "curriculum"}
		in := make([]model.CandidateStatement, 0)
		for i := range words {
			for j := i; j < len(words); j++ {
				in = append(in, model.CandidateStatement{
					Text: "Our priority is " + strings.Join(words[i:j+1], " and "),
				})
			}
		}

		got := normalize(in, 5)
		if len(got) > 5 {
			t.Fatalf("expected at most 5, got %d", len(got))
		}
		for i, a := range got {
			if utf8.RuneCountInString(a.Text) < MinStatementLength {
				t.Errorf("statement %q shorter than %d", a.Text, MinStatementLength)
			}
			for j, b := range got {
				if i != j && strings.Contains(a.Text, b.Text) {
					t.Errorf("%q contains %q", a.Text, b.Text)
				}
			}
		}
	})
}

func TestExtractReportLink(t *testing.T) {
	t.Parallel()

	t.Run("resolves root-relative link against the page", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><a href="/contact">Contact</a><a href="/about/ofsted">Ofsted Report</a></body></html>`)) //nolint:errcheck
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		got := newTestExtractor(server).Extract(context.Background(), server.URL+"/news")
		if got.ReportURL() != server.URL+"/about/ofsted" {
			t.Errorf("expected %s/about/ofsted, got %q", server.URL, got.ReportURL())
		}
		if got.ReportLink.Canonical {
			t.Error("expected non-canonical link")
		}
	})

	t.Run("first match wins without a canonical link", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<a href="/inspection-reports">Inspection</a>
<a href="/governors/annual-report">Annual report</a>
</body></html>`)

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if got.ReportURL() != server.URL+"/inspection-reports" {
			t.Errorf("unexpected report URL %q", got.ReportURL())
		}
	})

	t.Run("canonical host short-circuits", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<a href="/about/ofsted">Ofsted</a>
<a href="https://reports.ofsted.gov.uk/provider/21/123456">Latest inspection</a>
<a href="https://files.ofsted.gov.uk/v1/file/999">Older report</a>
</body></html>`)

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if got.ReportURL() != "https://reports.ofsted.gov.uk/provider/21/123456" {
			t.Errorf("unexpected report URL %q", got.ReportURL())
		}
		if !got.ReportLink.Canonical {
			t.Error("expected canonical link")
		}
	})

	t.Run("skips non-navigable hrefs", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<a href="mailto:ofsted@school.example">Email about Ofsted</a>
<a href="#">Report</a>
<a href="javascript:void(0)">Inspection</a>
</body></html>`)

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if got.ReportLink != nil {
			t.Errorf("expected no report link, got %+v", got.ReportLink)
		}
	})

	t.Run("in-page anchors do not win over a real link", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<a href="#ofsted-report">Jump to our Ofsted report</a>
<a href="/about/ofsted">Ofsted Report</a>
</body></html>`)

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if got.ReportURL() != server.URL+"/about/ofsted" {
			t.Errorf("expected %s/about/ofsted, got %q", server.URL, got.ReportURL())
		}
	})

	t.Run("custom canonical host", func(t *testing.T) {
		t.Parallel()

		server := htmlServer(t, `<html><body>
<a href="/report">Report</a>
<a href="https://inspect.example/school/1">Inspection</a>
</body></html>`)

		got := newTestExtractor(server, WithCanonicalReportHost("inspect.example")).
			Extract(context.Background(), server.URL)
		if got.ReportURL() != "https://inspect.example/school/1" {
			t.Errorf("unexpected report URL %q", got.ReportURL())
		}
	})
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"root relative", "https://school.example/news", "/about/ofsted", "https://school.example/about/ofsted"},
		{"scheme relative", "https://school.example/news", "//cdn.example/report.pdf", "https://cdn.example/report.pdf"},
		{"absolute", "https://school.example/", "https://reports.ofsted.gov.uk/x", "https://reports.ofsted.gov.uk/x"},
		{"path relative", "https://school.example/about/", "ofsted.pdf", "https://school.example/about/ofsted.pdf"},
		{"path relative without slash", "https://school.example/about", "ofsted.pdf", "https://school.example/about/ofsted.pdf"},
		{"mailto", "https://school.example/", "mailto:office@school.example", ""},
		{"javascript upper case", "https://school.example/", "JavaScript:void(0)", ""},
		{"tel", "https://school.example/", "tel:0123", ""},
		{"data", "https://school.example/", "data:text/plain,report", ""},
		{"bare fragment", "https://school.example/", "#", ""},
		{"named fragment", "https://school.example/news", "#ofsted-report", ""},
		{"other scheme", "https://school.example/", "ftp://school.example/report", ""},
		{"empty", "https://school.example/", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := resolveURL(tt.base, tt.href); got != tt.want {
				t.Errorf("resolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestExtractSourceUnavailable(t *testing.T) {
	t.Parallel()

	t.Run("non-2xx status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<h2>Vision</h2><p>Our vision is to improve outcomes for all pupils.</p>`)) //nolint:errcheck
		}))
		defer server.Close()

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if !errors.Is(got.Err, ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", got.Err)
		}
		if !got.IsEmpty() {
			t.Errorf("expected empty extraction, got %+v", got)
		}
		if got.ErrorMessage == "" {
			t.Error("expected error message")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		got := newTestExtractor(server, WithTimeout(50*time.Millisecond)).Extract(context.Background(), server.URL)
		if !errors.Is(got.Err, ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", got.Err)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		got := New(WithLogger(quietLogger())).Extract(context.Background(), url)
		if !errors.Is(got.Err, ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", got.Err)
		}
	})

	t.Run("non-HTML content", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4")) //nolint:errcheck
		}))
		defer server.Close()

		got := newTestExtractor(server).Extract(context.Background(), server.URL)
		if !errors.Is(got.Err, ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", got.Err)
		}
	})
}

func TestExtractDecodesLegacyCharset(t *testing.T) {
	t.Parallel()

	body := []byte("<html><body><h2>Vision</h2><p>Notre vision: une \xe9cole ouverte pour tous les enfants.</p></body></html>")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write(body) //nolint:errcheck
	}))
	defer server.Close()

	got := newTestExtractor(server).Extract(context.Background(), server.URL)
	if len(got.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(got.Statements))
	}
	if !strings.Contains(got.Statements[0].Text, "école") {
		t.Errorf("expected decoded text, got %q", got.Statements[0].Text)
	}
}

func TestExtractUppercaseScheme(t *testing.T) {
	t.Parallel()

	server := htmlServer(t, `<html><body><h2>Values</h2><p>We value curiosity, kindness and respect in everything we do.</p></body></html>`)
	upper := strings.Replace(server.URL, "http://", "HTTP://", 1)

	got := newTestExtractor(server).Extract(context.Background(), upper)
	if !got.Available() || len(got.Statements) != 1 {
		t.Errorf("expected one statement, got %+v", got)
	}
}

func TestWithTimeoutClamp(t *testing.T) {
	t.Parallel()

	e := New(WithTimeout(time.Minute))
	if e.timeout != MaxTimeout {
		t.Errorf("expected timeout clamped to %v, got %v", MaxTimeout, e.timeout)
	}

	e = New(WithTimeout(-1))
	if e.timeout != MaxTimeout {
		t.Errorf("expected default timeout, got %v", e.timeout)
	}
}
