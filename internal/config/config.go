package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "schoolscan"

	// DefaultFetchTimeout bounds a single website fetch. School websites
	// are usually small and slow hosts should not stall a batch.
	DefaultFetchTimeout = 10 * time.Second

	// MaxFetchTimeout is the largest fetch timeout accepted.
	MaxFetchTimeout = 10 * time.Second

	// DefaultBatchSize is the number of institutions assessed at once.
	DefaultBatchSize = 4

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultCacheTTL is how long a cached website extraction is reused.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultUserAgent is a common desktop browser string. Several school
	// website platforms reject requests that do not look like a browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config holds all configuration options for SchoolScan.
// It is populated from CLI flags and the .schoolscan file and passed
// through the application rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The number of options is small enough that nesting would only add
// indirection.
type Config struct {
	// Targets is the list of institution URNs to assess.
	Targets []string

	// DatasetPath is the establishment dataset CSV.
	DatasetPath string

	// CatalogPath is an optional catalog YAML replacing the embedded one.
	CatalogPath string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// FetchTimeout bounds each website fetch. At most MaxFetchTimeout.
	FetchTimeout time.Duration

	// NoFetch disables website extraction entirely.
	NoFetch bool

	// UserAgent is the User-Agent header sent with website requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// BatchSize is the number of concurrent assessments.
	BatchSize int

	// Verbose enables debug log output.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// File holds the loaded configuration file, if any.
	File *File

	// ReportURLTemplate is used for the inspection report link when none
	// is found on the website. "{urn}" is replaced by the URN.
	ReportURLTemplate string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// DBDir is the directory of the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB stores finished assessments in the database.
	SaveToDB bool

	// UseCache reuses website extractions stored in the database.
	UseCache bool

	// CacheTTL is how long a cached extraction stays fresh.
	CacheTTL time.Duration
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		FetchTimeout: DefaultFetchTimeout,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		BatchSize:    DefaultBatchSize,
		DBDir:        XDGDataDir(),
		SaveToDB:     true,
		UseCache:     true,
		CacheTTL:     DefaultCacheTTL,
	}
}

// ApplyFile fills settings that were not given on the command line from
// the configuration file.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.File = f
	if c.DatasetPath == "" {
		c.DatasetPath = f.Dataset
	}
	if c.CatalogPath == "" {
		c.CatalogPath = f.Catalog
	}
	if c.ReportURLTemplate == "" {
		c.ReportURLTemplate = f.ReportURLTemplate
	}
}

// School returns the per-school configuration for urn.
// The zero SchoolConfig is returned when no file is loaded.
func (c *Config) School(urn string) SchoolConfig {
	if c.File == nil {
		return SchoolConfig{}
	}
	return c.File.GetSchoolConfig(urn)
}

// XDGDataDir returns the XDG data directory for SchoolScan.
// On Linux: ~/.local/share/schoolscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for SchoolScan.
// On Linux: ~/.config/schoolscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.DatasetPath == "" {
		return ErrNoDataset
	}

	if c.FetchTimeout <= 0 || c.FetchTimeout > MaxFetchTimeout {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.CacheTTL < 0 {
		return ErrInvalidCacheTTL
	}

	return nil
}
