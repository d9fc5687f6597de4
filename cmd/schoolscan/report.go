package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/schoolscan/internal/catalog"
	"github.com/nao1215/schoolscan/internal/config"
	"github.com/nao1215/schoolscan/internal/database"
	"github.com/nao1215/schoolscan/internal/institution"
	"github.com/nao1215/schoolscan/internal/matcher"
	"github.com/nao1215/schoolscan/internal/model"
	"github.com/nao1215/schoolscan/internal/pipeline"
	"github.com/nao1215/schoolscan/internal/report"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <urn>...",
		Short: "Build an iPad implementation report for one or more schools",
		Long: `Report builds an iPad implementation report for each school URN.

Improvement areas are collected from:
- Inspection priorities (--inspection, or inspection_priorities in the config file)
- Strategic priorities (--strategy, strategies in the config file, and
  statements found on the school website)
- Additional priorities (--priority, or priorities in the config file)

When no improvement area is found for a school, no report is produced
for it and a message is printed instead.

Examples:
  # Report for one school using its website
  schoolscan report --dataset edubase.csv 100000

  # Supply inspection priorities by hand and skip the website
  schoolscan report --no-fetch \
    --inspection "Improve the teaching of early reading and phonics" \
    --priority "Support pupils with SEND" 100000

  # Markdown reports for several schools written to a file
  schoolscan report --markdown -o reports/oakfield.md 100000 100001

Configuration file (.schoolscan) example:
  dataset: /data/edubase.csv
  defaults:
    priorities:
      - "Develop pupils' digital skills"
  schools:
    "100000":
      website: "https://www.oakfield.sch.uk/"
      inspection_priorities:
        - "Improve the teaching of early reading"`,
		Args: cobra.ArbitraryArgs,
		RunE: runReportCmd,
	}

	// Input flags
	cmd.Flags().StringP("dataset", "d", "",
		"Establishment dataset CSV (default: dataset from the configuration file)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .schoolscan in current or home directory)")
	cmd.Flags().String("catalog", "",
		"Solution catalog YAML replacing the built-in catalog")
	cmd.Flags().StringArrayP("inspection", "i", nil,
		"Inspection report priority (repeatable)")
	cmd.Flags().StringArrayP("strategy", "s", nil,
		"Strategic priority of the school (repeatable)")
	cmd.Flags().StringArrayP("priority", "p", nil,
		"Additional priority (repeatable)")
	cmd.Flags().String("report-url-template", "",
		"Inspection report URL used when none is found on the website ({urn} is replaced)")

	// Fetch flags
	cmd.Flags().Bool("no-fetch", false,
		"Do not read school websites")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Fetch timeout for each school website (at most 10s)")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of schools assessed concurrently")

	// Database flags
	cmd.Flags().Bool("no-cache", false,
		"Always fetch websites instead of reusing recent extractions")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"How long a stored website extraction is reused")
	cmd.Flags().Bool("no-save", false,
		"Do not save assessments to the history database")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write reports to specified file path (creates directories if needed)")
	cmd.Flags().Bool("explain", false,
		"Print the score breakdown of every scoring solution to stderr")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildReportConfig(cmd, args)
	if err != nil {
		return err
	}
	explain, err := cmd.Flags().GetBool("explain")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runReport(ctx, cfg, reportStreams{
		out:     cmd.OutOrStdout(),
		status:  cmd.ErrOrStderr(),
		explain: explain,
	}, logger)
}

// reportStreams separates report output from progress messages so that
// a JSON report on stdout stays parseable.
type reportStreams struct {
	out    io.Writer
	status io.Writer

	// explain prints score breakdowns to status.
	explain bool
}

// buildReportConfig creates a Config from cobra command flags and the
// configuration file. Flag values win over the file.
func buildReportConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.DatasetPath, err = flags.GetString("dataset"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.CatalogPath, err = flags.GetString("catalog"); err != nil {
		return nil, err
	}
	if cfg.ReportURLTemplate, err = flags.GetString("report-url-template"); err != nil {
		return nil, err
	}
	if cfg.NoFetch, err = flags.GetBool("no-fetch"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = flags.GetDuration("cache-ttl"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	cfg.UseCache = !noCache

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	inputs, err := flagInputs(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	f, err := loadConfigFile(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyFile(f)
	cfg.File = withFlagInputs(cfg.File, inputs)

	return cfg, nil
}

// flagInputs collects the improvement areas given on the command line.
// They apply to every target.
func flagInputs(cmd *cobra.Command) (config.SchoolConfig, error) {
	var sc config.SchoolConfig
	var err error
	if sc.InspectionPriorities, err = cmd.Flags().GetStringArray("inspection"); err != nil {
		return sc, err
	}
	if sc.Strategies, err = cmd.Flags().GetStringArray("strategy"); err != nil {
		return sc, err
	}
	if sc.Priorities, err = cmd.Flags().GetStringArray("priority"); err != nil {
		return sc, err
	}
	return sc, nil
}

// withFlagInputs returns a copy of f whose defaults also carry the
// command-line inputs, after the defaults from the file.
func withFlagInputs(f *config.File, inputs config.SchoolConfig) *config.File {
	if len(inputs.InspectionPriorities) == 0 && len(inputs.Strategies) == 0 && len(inputs.Priorities) == 0 {
		return f
	}

	merged := &config.File{Schools: make(map[string]config.SchoolConfig)}
	if f != nil {
		*merged = *f
		if merged.Schools == nil {
			merged.Schools = make(map[string]config.SchoolConfig)
		}
	}

	d := merged.Defaults
	merged.Defaults = config.SchoolConfig{
		Website:              d.Website,
		InspectionPriorities: append(append([]string(nil), d.InspectionPriorities...), inputs.InspectionPriorities...),
		Strategies:           append(append([]string(nil), d.Strategies...), inputs.Strategies...),
		Priorities:           append(append([]string(nil), d.Priorities...), inputs.Priorities...),
	}
	return merged
}

// runReport assesses every target and writes the reports.
func runReport(ctx context.Context, cfg *config.Config, streams reportStreams, logger *slog.Logger) error {
	// Catalog defects abort before any work.
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	ds, err := institution.Load(cfg.DatasetPath)
	if err != nil {
		return err
	}

	assessments, err := newAssessments(cfg, ds)
	if err != nil {
		return err
	}

	logger.Info("starting assessment",
		"targets", cfg.Targets,
		"fetch", !cfg.NoFetch,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.ReportDB
	if cfg.SaveToDB || (cfg.UseCache && !cfg.NoFetch) {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	m := matcher.New(cat, matcher.WithLogger(logger))
	factory, err := newPipelineFactory(cfg, m, db, logger)
	if err != nil {
		return err
	}

	out, closeOutput, err := openOutput(cfg.ReportFile, streams.out)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer := newReportWriter(out, cfg, cat)

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	var mu sync.Mutex
	refused := 0

	err = bp.ProcessBatchWithCallback(ctx, assessments, func(a *model.Assessment, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(streams.status, "[%d/%d] Assessed %s (URN %s)\n",
			index+1, len(assessments), a.Institution.Name, a.Institution.URN)

		if streams.explain {
			printBreakdown(streams.status, m.Explain(a.AreaTexts(), a.Institution.Context()))
		}

		if a.Refused() {
			refused++
			fmt.Fprintf(streams.status,
				"No improvement areas identified for %s (URN %s); no report generated.\n",
				a.Institution.Name, a.Institution.URN)
		} else if _, err := writer.Write(a); err != nil {
			logger.Error("report failed", "urn", a.Institution.URN, "error", err)
		}

		if err := saveAssessment(ctx, db, cfg.SaveToDB, a, logger); err != nil {
			logger.Error("failed to save assessment", "urn", a.Institution.URN, "error", err)
		}
	})

	fmt.Fprintf(streams.status, "Assessed %d school(s) in %s",
		len(assessments), time.Since(startTime).Round(time.Millisecond))
	if refused > 0 {
		fmt.Fprintf(streams.status, " (%d without improvement areas)", refused)
	}
	fmt.Fprintln(streams.status)
	if cfg.ReportFile != "" {
		fmt.Fprintf(streams.status, "Report written to %s\n", cfg.ReportFile)
	}

	return err
}

// newAssessments looks up every target and prepares its assessment.
// An unknown URN fails the whole run before anything is fetched.
func newAssessments(cfg *config.Config, ds *institution.Dataset) ([]*model.Assessment, error) {
	assessments := make([]*model.Assessment, 0, len(cfg.Targets))
	for _, urn := range cfg.Targets {
		inst, err := ds.Lookup(urn)
		if err != nil {
			return nil, err
		}

		school := cfg.School(inst.URN)
		if school.Website != "" {
			inst.Website = school.Website
		}

		a := model.NewAssessment(inst)
		a.InspectionPriorities = school.InspectionPriorities
		a.ManualStrategies = school.Strategies
		a.UserPriorities = school.Priorities
		assessments = append(assessments, a)
	}
	return assessments, nil
}

// newPipelineFactory returns a factory building one pipeline per assessment.
// The extractor and matcher are shared; both are safe for concurrent use.
func newPipelineFactory(cfg *config.Config, m *matcher.Matcher, db *database.ReportDB, logger *slog.Logger) (func() *pipeline.Pipeline, error) {
	var ext pipeline.Extractor
	if !cfg.NoFetch {
		e, err := newExtractor(cfg.FetchTimeout, cfg.ProxyAddress, cfg.UserAgent, cfg.MaxBodySize, logger)
		if err != nil {
			return nil, err
		}
		ext = e
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineFetch(!cfg.NoFetch),
		pipeline.WithPipelineReportURLTemplate(cfg.ReportURLTemplate),
	}
	if cfg.UseCache && db != nil {
		configOpts = append(configOpts, pipeline.WithPipelineCache(db, cfg.CacheTTL))
	}

	return func() *pipeline.Pipeline {
		return pipeline.DefaultPipeline(ext, m,
			[]pipeline.Option{
				pipeline.WithLogger(logger),
				pipeline.WithContinueOnError(true),
			},
			configOpts...,
		)
	}, nil
}

// newReportWriter returns the writer for the requested output format.
func newReportWriter(out io.Writer, cfg *config.Config, cat *catalog.Catalog) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, cat, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out, cat)
	default:
		return report.NewTextWriter(out, cat)
	}
}

// openOutput opens the report file, or returns fallback when path is empty.
// The returned close function is always safe to call.
func openOutput(path string, fallback io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return fallback, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports name the school and its priorities; keep them owner-readable.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // close after write
}

// saveAssessment saves the assessment to the database if enabled.
// If db is nil or saving is off, this function is a no-op.
func saveAssessment(ctx context.Context, db *database.ReportDB, enabled bool, a *model.Assessment, logger *slog.Logger) error {
	if db == nil || !enabled {
		return nil
	}

	id, err := db.SaveAssessment(ctx, a)
	if err != nil {
		return err
	}

	logger.Info("assessment saved to database", "urn", a.Institution.URN, "id", id)
	return nil
}

// printBreakdown prints the solutions that scored, in catalog order.
func printBreakdown(out io.Writer, breakdowns []matcher.Breakdown) {
	fmt.Fprintf(out, "  %-28s  %8s  %6s  %5s  %5s\n", "Solution", "Keywords", "Title", "Boost", "Total")
	for _, b := range breakdowns {
		if b.Total == 0 {
			continue
		}
		fmt.Fprintf(out, "  %-28s  %8d  %6d  %5d  %5d\n", b.Key, b.KeywordHits, b.TitleHits, b.Boost, b.Total)
	}
}
