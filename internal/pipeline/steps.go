package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/schoolscan/internal/model"
	"github.com/nao1215/schoolscan/internal/sanitize"
)

// Extractor extracts statements and a report link from one web page.
type Extractor interface {
	Extract(ctx context.Context, url string) *model.Extraction
}

// Matcher ranks catalog solutions against improvement areas.
type Matcher interface {
	MatchAreas(areas []model.ImprovementArea, ic model.InstitutionContext) []model.MatchResult
}

// ExtractionCache stores recent extractions keyed by URL.
// It is implemented by database.ReportDB.
type ExtractionCache interface {
	GetRecentExtraction(ctx context.Context, url string, maxAge time.Duration) (*model.Extraction, error)
	SaveExtraction(ctx context.Context, extraction *model.Extraction) error
}

// CollectAreasStep turns the user-supplied text on the assessment into
// improvement areas. Markup is stripped and empty entries are dropped.
type CollectAreasStep struct {
	logger *slog.Logger
}

// NewCollectAreasStep creates a new area collection step.
func NewCollectAreasStep(logger *slog.Logger) *CollectAreasStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectAreasStep{logger: logger}
}

// Name returns the step name.
func (s *CollectAreasStep) Name() string {
	return "collect_areas"
}

// Do executes the area collection step.
func (s *CollectAreasStep) Do(_ context.Context, assessment *model.Assessment) error {
	for _, text := range sanitize.Texts(assessment.InspectionPriorities) {
		assessment.AddArea(text, model.OriginInspectionReport)
	}
	for _, text := range sanitize.Texts(assessment.ManualStrategies) {
		assessment.AddArea(text, model.OriginPublishedStrategy)
	}
	for _, text := range sanitize.Texts(assessment.UserPriorities) {
		assessment.AddArea(text, model.OriginUserSupplied)
	}

	s.logger.Debug("collected user areas",
		"urn", assessment.Institution.URN,
		"areas", len(assessment.Areas),
	)
	return nil
}

// ExtractStep extracts published strategies from the institution website.
//
// An unreachable website is not a step failure: the extraction advisory is
// kept on the assessment and the pipeline continues with the areas it has.
type ExtractStep struct {
	extractor Extractor
	cache     ExtractionCache
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractionCache enables reuse of extractions younger than ttl.
func WithExtractionCache(cache ExtractionCache, ttl time.Duration) ExtractStepOption {
	return func(s *ExtractStep) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewExtractStep creates a new website extraction step.
func NewExtractStep(extractor Extractor, opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract_website"
}

// Do executes the extraction step.
func (s *ExtractStep) Do(ctx context.Context, assessment *model.Assessment) error {
	url := assessment.Institution.WebsiteURL()
	if url == "" {
		s.logger.Debug("no usable website", "urn", assessment.Institution.URN)
		return nil
	}

	extraction := s.cached(ctx, url)
	if extraction == nil {
		extraction = s.extractor.Extract(ctx, url)
		if s.cache != nil && extraction.Available() {
			if err := s.cache.SaveExtraction(ctx, extraction); err != nil {
				s.logger.Warn("failed to cache extraction", "url", url, "error", err)
			}
		}
	}

	assessment.Extraction = extraction
	for _, st := range extraction.Statements {
		assessment.AddArea(st.Text, model.OriginPublishedStrategy)
	}
	if assessment.ReportURL == "" {
		assessment.ReportURL = extraction.ReportURL()
	}

	return nil
}

func (s *ExtractStep) cached(ctx context.Context, url string) *model.Extraction {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	extraction, err := s.cache.GetRecentExtraction(ctx, url, s.cacheTTL)
	if err != nil {
		s.logger.Warn("failed to read extraction cache", "url", url, "error", err)
		return nil
	}
	if extraction != nil {
		s.logger.Debug("using cached extraction", "url", url, "fetched_at", extraction.FetchedAt)
	}
	return extraction
}

// ReportURLStep fills in the inspection report URL from a template when
// none was discovered. The template's "{urn}" placeholder is replaced by
// the institution URN.
type ReportURLStep struct {
	template string
}

// NewReportURLStep creates a new report URL fallback step.
func NewReportURLStep(template string) *ReportURLStep {
	return &ReportURLStep{template: template}
}

// Name returns the step name.
func (s *ReportURLStep) Name() string {
	return "report_url_fallback"
}

// Do executes the fallback step.
func (s *ReportURLStep) Do(_ context.Context, assessment *model.Assessment) error {
	if assessment.ReportURL != "" || s.template == "" || assessment.Institution.URN == "" {
		return nil
	}
	assessment.ReportURL = strings.ReplaceAll(s.template, "{urn}", assessment.Institution.URN)
	return nil
}

// MatchStep ranks catalog solutions against the collected areas.
type MatchStep struct {
	matcher Matcher
}

// NewMatchStep creates a new matching step.
func NewMatchStep(matcher Matcher) *MatchStep {
	return &MatchStep{matcher: matcher}
}

// Name returns the step name.
func (s *MatchStep) Name() string {
	return "match_solutions"
}

// Do executes the matching step.
// It returns model.ErrNoImprovementAreas when there is nothing to match;
// the matcher is not called in that case.
func (s *MatchStep) Do(_ context.Context, assessment *model.Assessment) error {
	if len(assessment.Areas) == 0 {
		return model.ErrNoImprovementAreas
	}
	assessment.Matches = s.matcher.MatchAreas(assessment.Areas, assessment.Institution.Context())
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Fetch enables website extraction.
	Fetch bool

	// Cache stores extractions between runs. Nil disables caching.
	Cache ExtractionCache

	// CacheTTL is how long a cached extraction stays fresh.
	CacheTTL time.Duration

	// ReportURLTemplate is used when no report link was discovered.
	// Empty disables the fallback.
	ReportURLTemplate string
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineFetch enables or disables website extraction.
func WithPipelineFetch(fetch bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Fetch = fetch
	}
}

// WithPipelineCache sets the extraction cache and its freshness window.
func WithPipelineCache(cache ExtractionCache, ttl time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Cache = cache
		c.CacheTTL = ttl
	}
}

// WithPipelineReportURLTemplate sets the report URL fallback template.
func WithPipelineReportURLTemplate(template string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ReportURLTemplate = template
	}
}

// DefaultPipeline creates a pipeline with all default steps configured:
// collect_areas, extract_website (when fetching), report_url_fallback
// (when a template is set) and match_solutions.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineFetch, etc).
func DefaultPipeline(extractor Extractor, matcher Matcher, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{Fetch: true}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddStep(NewCollectAreasStep(p.logger))

	if cfg.Fetch && extractor != nil {
		extractOpts := []ExtractStepOption{WithExtractLogger(p.logger)}
		if cfg.Cache != nil {
			extractOpts = append(extractOpts, WithExtractionCache(cfg.Cache, cfg.CacheTTL))
		}
		p.AddStep(NewExtractStep(extractor, extractOpts...))
	}

	if cfg.ReportURLTemplate != "" {
		p.AddStep(NewReportURLStep(cfg.ReportURLTemplate))
	}

	p.AddStep(NewMatchStep(matcher))

	return p
}
