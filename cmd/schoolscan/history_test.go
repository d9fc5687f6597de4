package main

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/nao1215/schoolscan/internal/catalog"
	"github.com/nao1215/schoolscan/internal/config"
	"github.com/nao1215/schoolscan/internal/database"
	"github.com/nao1215/schoolscan/internal/matcher"
	"github.com/nao1215/schoolscan/internal/model"
	"github.com/nao1215/schoolscan/internal/report"
)

// seedHistory saves one matched and one refused assessment and returns
// the database directory with the saved IDs.
func seedHistory(t *testing.T) (string, int64, int64) {
	t.Helper()

	dbDir := t.TempDir()
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}

	oak := model.NewAssessment(model.Institution{
		URN: "100001", Name: "Oak Primary School", Phase: "Primary", Pupils: 420,
	})
	oak.AddArea("Improve the teaching of early reading and phonics", model.OriginInspectionReport)
	oak.Matches = matcher.New(cat).MatchAreas(oak.Areas, oak.Institution.Context())

	ctx := context.Background()
	oakID, err := db.SaveAssessment(ctx, oak)
	if err != nil {
		t.Fatal(err)
	}

	birch := model.NewAssessment(model.Institution{URN: "100002", Name: "Birch Academy"})
	birch.SetError(model.ErrNoImprovementAreas)
	birchID, err := db.SaveAssessment(ctx, birch)
	if err != nil {
		t.Fatal(err)
	}

	return dbDir, oakID, birchID
}

func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	dbDir, oakID, birchID := seedHistory(t)

	t.Run("lists institutions", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewHistoryCmd(), "--db-dir", dbDir, "--list-institutions")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Assessed schools (2)") {
			t.Errorf("unexpected output: %q", stdout)
		}
		if strings.Index(stdout, "Birch Academy") > strings.Index(stdout, "Oak Primary School") {
			t.Error("expected schools ordered by name")
		}
	})

	t.Run("lists history with match summary", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewHistoryCmd(), "--db-dir", dbDir, "--list", "100001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Oak Primary School (URN 100001, 1 assessments)") {
			t.Errorf("unexpected header: %q", stdout)
		}
		if !strings.Contains(stdout, "reading_instruction(") {
			t.Errorf("expected match summary, got %q", stdout)
		}
	})

	t.Run("renders latest assessment", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewHistoryCmd(), "--db-dir", dbDir, "100001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "IPAD IMPLEMENTATION REPORT FOR OAK PRIMARY SCHOOL") {
			t.Errorf("expected text report, got %q", stdout)
		}
	})

	t.Run("shows assessment by id as json", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewHistoryCmd(), "--db-dir", dbDir, "--json", "--show", strconv.FormatInt(oakID, 10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got report.JSONReport
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Assessment == nil || got.Assessment.ID != oakID {
			t.Errorf("unexpected assessment: %+v", got.Assessment)
		}
	})

	t.Run("refused assessment prints a message", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewHistoryCmd(), "--db-dir", dbDir, "--show", strconv.FormatInt(birchID, 10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No improvement areas were identified for Birch Academy") {
			t.Errorf("unexpected output: %q", stdout)
		}
	})

	t.Run("unknown school has no history", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewHistoryCmd(), "--db-dir", dbDir, "--list", "999999")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No saved assessments found for URN 999999") {
			t.Errorf("unexpected output: %q", stdout)
		}

		if _, _, err := execute(t, NewHistoryCmd(), "--db-dir", dbDir, "999999"); err == nil {
			t.Error("expected error when rendering an unknown school")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		if _, _, err := execute(t, NewHistoryCmd(), "--db-dir", dbDir, "--show", "9999"); err == nil {
			t.Error("expected error for unknown ID")
		}
	})
}

func TestRunHistoryCmdValidation(t *testing.T) {
	t.Parallel()

	t.Run("requires a URN", func(t *testing.T) {
		t.Parallel()

		if _, _, err := execute(t, NewHistoryCmd(), "--db-dir", t.TempDir()); err == nil {
			t.Error("expected error without URN")
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, NewHistoryCmd(), "--db-dir", t.TempDir(), "--json", "--markdown", "100001")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, NewHistoryCmd(), "--db-dir", t.TempDir(), "--list-institutions")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No saved assessments found in the database.") {
			t.Errorf("unexpected output: %q", stdout)
		}
	})
}

func TestFormatMatchSummary(t *testing.T) {
	t.Parallel()

	if got := formatMatchSummary(nil); got != "No matches" {
		t.Errorf("got %q", got)
	}
	got := formatMatchSummary([]database.MatchSummary{{Key: "reading_instruction", Score: 4}, {Key: "send_support", Score: 2}})
	if got != "reading_instruction(4) send_support(2)" {
		t.Errorf("got %q", got)
	}
}
