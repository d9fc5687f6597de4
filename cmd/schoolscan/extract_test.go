package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nao1215/schoolscan/internal/config"
	"github.com/nao1215/schoolscan/internal/model"
)

const testSchoolPage = `<html><body>
<h1>Welcome to Oak Primary School</h1>
<h2>Our Vision</h2>
<p>Our vision is that every child becomes a confident, fluent reader through high quality phonics teaching.</p>
<a href="/about/ofsted">Ofsted Report</a>
</body></html>`

// schoolServer serves testSchoolPage.
func schoolServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testSchoolPage)) //nolint:errcheck
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunExtractCmd(t *testing.T) {
	t.Parallel()

	server := schoolServer(t)

	t.Run("prints statements and report link", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewExtractCmd(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Inspection report: " + server.URL + "/about/ofsted",
			"Strategic statements (1):",
			"every child becomes a confident, fluent reader",
			`(under "Our Vision")`,
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got %q", want, stdout)
			}
		}
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewExtractCmd(), "--json", server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got model.Extraction
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.Statements) != 1 {
			t.Errorf("expected 1 statement, got %+v", got.Statements)
		}
		if got.ReportLink == nil || got.ReportLink.URL != server.URL+"/about/ofsted" {
			t.Errorf("unexpected report link: %+v", got.ReportLink)
		}
	})

	t.Run("unavailable page is not an error", func(t *testing.T) {
		t.Parallel()

		missing := httptest.NewServer(http.NotFoundHandler())
		defer missing.Close()

		stdout, _, err := execute(t, NewExtractCmd(), missing.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "The page could not be used") {
			t.Errorf("expected advisory in output, got %q", stdout)
		}
	})

	t.Run("page with nothing usable", func(t *testing.T) {
		t.Parallel()

		bare := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><h1>Welcome</h1><p>Term dates</p></body></html>`)) //nolint:errcheck
		}))
		defer bare.Close()

		stdout, _, err := execute(t, NewExtractCmd(), bare.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No inspection report link or strategic statements found.") {
			t.Errorf("expected empty-page message, got %q", stdout)
		}
		if strings.Contains(stdout, "Inspection report:") {
			t.Errorf("expected no report line, got %q", stdout)
		}
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		t.Parallel()

		if _, _, err := execute(t, NewExtractCmd(), "ftp://school.example/"); err == nil {
			t.Error("expected error for ftp URL")
		}
	})

	t.Run("rejects timeout above limit", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, NewExtractCmd(), "--timeout", "30s", server.URL)
		if !errors.Is(err, config.ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("rejects malformed proxy", func(t *testing.T) {
		t.Parallel()

		if _, _, err := execute(t, NewExtractCmd(), "--proxy", "not-a-proxy", server.URL); err == nil {
			t.Error("expected error for malformed proxy")
		}
	})
}
