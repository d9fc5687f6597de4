package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/schoolscan/internal/config"
	"github.com/nao1215/schoolscan/internal/database"
	"github.com/nao1215/schoolscan/internal/model"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command reads assessments saved by the report command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [urn]",
		Short: "Show saved assessments",
		Long: `History shows assessments saved in the database by 'schoolscan report'.

Without flags, the latest saved report for the school is rendered again
from the stored assessment.

Examples:
  # Show the latest report for a school
  schoolscan history 100000

  # List all saved assessments for a school
  schoolscan history --list 100000

  # Show a specific assessment by ID in Markdown
  schoolscan history --show 12 --markdown

  # List all schools in the database
  schoolscan history --list-institutions`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List saved assessments for the specified school")
	cmd.Flags().BoolP("list-institutions", "L", false,
		"List all schools in the database")
	cmd.Flags().Int64P("show", "i", 0,
		"Show the assessment with this ID (use --list to see available IDs)")
	cmd.Flags().String("catalog", "",
		"Solution catalog YAML used to render the report")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the report in Markdown format")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	urn              string
	list             bool
	listInstitutions bool
	showID           int64
	catalogPath      string
	dbDir            string
	jsonOutput       bool
	markdownOutput   bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd, args)
	if err != nil {
		return err
	}

	// Validate before opening the database so a bad invocation
	// never creates an empty one.
	if err := opts.validate(); err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case opts.listInstitutions:
		return listAssessedInstitutions(ctx, out, db)
	case opts.list:
		return listAssessmentHistory(ctx, out, db, opts.urn)
	case opts.showID > 0:
		a, err := db.GetAssessmentByID(ctx, opts.showID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("no assessment with ID %d", opts.showID)
		}
		return renderStored(out, opts, a)
	default:
		a, err := db.GetLatestAssessment(ctx, opts.urn)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("no saved assessment for URN %s (use 'schoolscan report %s' first)", opts.urn, opts.urn)
		}
		return renderStored(out, opts, a)
	}
}

// parseHistoryFlags reads the history flags.
func parseHistoryFlags(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{}
	if len(args) > 0 {
		opts.urn = strings.TrimSpace(args[0])
	}

	flags := cmd.Flags()
	var err error
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.listInstitutions, err = flags.GetBool("list-institutions"); err != nil {
		return nil, err
	}
	if opts.showID, err = flags.GetInt64("show"); err != nil {
		return nil, err
	}
	if opts.catalogPath, err = flags.GetString("catalog"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdownOutput, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}
	return opts, nil
}

// validate checks flag combinations.
func (o *historyOptions) validate() error {
	if o.jsonOutput && o.markdownOutput {
		return config.ErrConflictingReportFormats
	}
	if o.showID < 0 {
		return fmt.Errorf("invalid assessment ID: %d", o.showID)
	}
	if o.listInstitutions || o.showID > 0 {
		return nil
	}
	if o.urn == "" {
		return errors.New("URN is required (use --list-institutions to see saved schools)")
	}
	return nil
}

// listAssessedInstitutions lists all schools that have saved assessments.
func listAssessedInstitutions(ctx context.Context, out io.Writer, db *database.ReportDB) error {
	institutions, err := db.ListAssessedInstitutions(ctx)
	if err != nil {
		return err
	}

	if len(institutions) == 0 {
		fmt.Fprintln(out, "No saved assessments found in the database.")
		fmt.Fprintln(out, "\nUse 'schoolscan report <urn>' to assess a school.")
		return nil
	}

	fmt.Fprintf(out, "Assessed schools (%d):\n\n", len(institutions))
	fmt.Fprintf(out, "  %-8s  %-40s  %-11s  %s\n", "URN", "Name", "Assessments", "Last assessed")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))
	for _, inst := range institutions {
		fmt.Fprintf(out, "  %-8s  %-40s  %-11d  %s\n",
			inst.URN,
			truncate(inst.Name, 40),
			inst.Assessments,
			inst.LastAssessed.Format("2006-01-02 15:04:05"),
		)
	}
	fmt.Fprintln(out, "\nUse 'schoolscan history --list <urn>' to see saved assessments for a school.")
	return nil
}

// listAssessmentHistory lists saved assessments for one school.
func listAssessmentHistory(ctx context.Context, out io.Writer, db *database.ReportDB, urn string) error {
	history, err := db.GetAssessmentHistoryWithMetadata(ctx, urn)
	if err != nil {
		return err
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No saved assessments found for URN %s\n", urn)
		return nil
	}

	fmt.Fprintf(out, "Assessment history for %s (URN %s, %d assessments):\n\n", history[0].Name, urn, len(history))
	fmt.Fprintf(out, "  %-6s  %-20s  %s\n", "ID", "Date", "Top matches")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
	for _, meta := range history {
		fmt.Fprintf(out, "  %-6d  %-20s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			formatMatchSummary(meta.Matches),
		)
	}
	fmt.Fprintln(out, "\nUse 'schoolscan history --show <id>' to render a saved assessment.")
	return nil
}

// formatMatchSummary formats matched solutions as "key(score)" pairs.
func formatMatchSummary(matches []database.MatchSummary) string {
	if len(matches) == 0 {
		return "No matches"
	}
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("%s(%d)", m.Key, m.Score)
	}
	return strings.Join(parts, " ")
}

// renderStored renders a saved assessment in the requested format.
func renderStored(out io.Writer, opts *historyOptions, a *model.Assessment) error {
	if a.Refused() {
		fmt.Fprintf(out, "No improvement areas were identified for %s (URN %s); no report was generated.\n",
			a.Institution.Name, a.Institution.URN)
		return nil
	}

	cat, err := loadCatalog(opts.catalogPath)
	if err != nil {
		return err
	}

	cfg := &config.Config{
		JSONReport:     opts.jsonOutput,
		MarkdownReport: opts.markdownOutput,
	}
	_, err = newReportWriter(out, cfg, cat).Write(a)
	return err
}
