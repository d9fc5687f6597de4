package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/schoolscan/internal/config"
	"github.com/nao1215/schoolscan/internal/model"
)

func TestRunSearchCmd(t *testing.T) {
	t.Parallel()

	dataset := writeDataset(t, "www.oak.sch.uk")

	t.Run("lists matching schools", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewSearchCmd(), "--dataset", dataset, "oak")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "100001") || !strings.Contains(stdout, "Oak Primary School") {
			t.Errorf("expected Oak Primary School in output, got %q", stdout)
		}
		if strings.Contains(stdout, "Birch Academy") {
			t.Errorf("did not expect Birch Academy in output, got %q", stdout)
		}
	})

	t.Run("reports no matches", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewSearchCmd(), "--dataset", dataset, "willow")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, `No schools found matching "willow"`) {
			t.Errorf("unexpected output: %q", stdout)
		}
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewSearchCmd(), "--dataset", dataset, "--json", "YO1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []model.Institution
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got) != 1 || got[0].URN != "100002" {
			t.Errorf("expected Birch Academy only, got %+v", got)
		}
	})

	t.Run("limit caps results", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewSearchCmd(), "--dataset", dataset, "--json", "--limit", "1", "1000")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []model.Institution
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 result, got %d", len(got))
		}
	})

	t.Run("dataset from config file", func(t *testing.T) {
		t.Parallel()

		cfgPath := writeConfig(t, "dataset: "+dataset+"\n")
		stdout, _, err := execute(t, NewSearchCmd(), "--config", cfgPath, "birch")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Birch Academy") {
			t.Errorf("unexpected output: %q", stdout)
		}
	})

	t.Run("no dataset configured", func(t *testing.T) {
		t.Parallel()

		cfgPath := writeConfig(t, "defaults: {}\n")
		_, _, err := execute(t, NewSearchCmd(), "--config", cfgPath, "oak")
		if !errors.Is(err, config.ErrNoDataset) {
			t.Errorf("expected ErrNoDataset, got %v", err)
		}
	})

	t.Run("explicit config file must exist", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, NewSearchCmd(), "--config", "/nonexistent/.schoolscan", "oak")
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("requires a query", func(t *testing.T) {
		t.Parallel()

		if _, _, err := execute(t, NewSearchCmd(), "--dataset", dataset); err == nil {
			t.Error("expected error without query")
		}
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Oak", 10, "Oak"},
		{"exact", "Oak School", 10, "Oak School"},
		{"long", "Oak Primary School", 10, "Oak Pri..."},
		{"multibyte", "Ysgol Gymraeg Caerdydd ŵ", 6, "Ysg..."},
		{"tiny limit", "Oak School", 2, "Oa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}
