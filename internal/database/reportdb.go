package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/schoolscan/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "schoolscan.db"

// ErrDatabaseNotFound is returned by Open when the file is missing and
// Options.CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("database not found")

// ReportDB stores website extractions and assessments in SQLite.
// It is safe for concurrent use; SQLite serializes the writes.
type ReportDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	CreateIfNotExists bool
	EnableWAL         bool
}

// DefaultOptions creates the file on first use and turns on WAL.
func DefaultOptions() Options {
	return Options{CreateIfNotExists: true, EnableWAL: true}
}

// Open opens the database file inside dbDir, creating the directory and the
// schema as needed.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if err := prepareDir(dbDir, dbPath, opts.CreateIfNotExists); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(dbPath, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dbPath, err)
	}
	// One connection keeps pragmas consistent and writes serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	rdb := &ReportDB{db: db, dbPath: dbPath}
	if err := rdb.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare schema in %s: %w", dbPath, err)
	}
	return rdb, nil
}

func prepareDir(dbDir, dbPath string, create bool) error {
	if create {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		return nil
	}
	_, err := os.Stat(dbPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
	case err != nil:
		return fmt.Errorf("failed to check database path: %w", err)
	}
	return nil
}

// dsn builds a modernc.org/sqlite connection string. mode=rw refuses to
// create a missing file. The busy timeout lets two commands share the file.
func dsn(path string, opts Options) string {
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	s := path + "?mode=" + mode + "&_pragma=busy_timeout(5000)"
	if opts.EnableWAL {
		s += "&_pragma=journal_mode(WAL)"
	}
	return s
}

// Path returns the path of the database file.
func (rdb *ReportDB) Path() string {
	return rdb.dbPath
}

// Close closes the database.
func (rdb *ReportDB) Close() error {
	return rdb.db.Close()
}

// schema is applied in order on every Open. Each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS extractions (
		url             TEXT PRIMARY KEY,
		final_url       TEXT,
		statements_json TEXT NOT NULL,
		report_link     TEXT,
		content_hash    TEXT,
		timestamp       DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extractions_timestamp ON extractions(timestamp)`,
	`CREATE TABLE IF NOT EXISTS assessments (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		urn           TEXT NOT NULL,
		name          TEXT NOT NULL,
		timestamp     DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json   TEXT NOT NULL,
		match_summary TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assessments_urn ON assessments(urn, id)`,
}

func (rdb *ReportDB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := rdb.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveExtraction inserts or replaces the cached extraction for its URL.
// Extractions carrying an advisory error are not worth caching and are
// silently skipped.
func (rdb *ReportDB) SaveExtraction(ctx context.Context, extraction *model.Extraction) error {
	if extraction == nil || !extraction.Available() {
		return nil
	}

	statementsJSON, err := json.Marshal(extraction.Statements)
	if err != nil {
		return fmt.Errorf("failed to serialize statements: %w", err)
	}

	var reportLink sql.NullString
	if extraction.ReportLink != nil {
		data, err := json.Marshal(extraction.ReportLink)
		if err != nil {
			return fmt.Errorf("failed to serialize report link: %w", err)
		}
		reportLink = sql.NullString{String: string(data), Valid: true}
	}

	query := `
	INSERT INTO extractions (url, final_url, statements_json, report_link, content_hash)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		final_url = excluded.final_url,
		statements_json = excluded.statements_json,
		report_link = excluded.report_link,
		content_hash = excluded.content_hash,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err = rdb.db.ExecContext(ctx, query,
		extraction.URL,
		extraction.FinalURL,
		string(statementsJSON),
		reportLink,
		extraction.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}

	return nil
}

// GetRecentExtraction returns the cached extraction for url if it was
// stored within maxAge. It returns nil, nil when there is no fresh entry.
// The returned extraction has FromCache set.
func (rdb *ReportDB) GetRecentExtraction(ctx context.Context, url string, maxAge time.Duration) (*model.Extraction, error) {
	query := `
	SELECT url, final_url, statements_json, report_link, content_hash, timestamp
	FROM extractions
	WHERE url = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(maxAge.Seconds()))

	var (
		extraction     model.Extraction
		finalURL       sql.NullString
		statementsJSON string
		reportLink     sql.NullString
		contentHash    sql.NullString
		timestamp      string
	)

	err := rdb.db.QueryRowContext(ctx, query, url, modifier).Scan(
		&extraction.URL,
		&finalURL,
		&statementsJSON,
		&reportLink,
		&contentHash,
		&timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}

	if err := json.Unmarshal([]byte(statementsJSON), &extraction.Statements); err != nil {
		return nil, fmt.Errorf("failed to parse statements: %w", err)
	}
	if extraction.Statements == nil {
		extraction.Statements = make([]model.CandidateStatement, 0)
	}
	if reportLink.Valid && reportLink.String != "" {
		var link model.ReportLink
		if err := json.Unmarshal([]byte(reportLink.String), &link); err != nil {
			return nil, fmt.Errorf("failed to parse report link: %w", err)
		}
		extraction.ReportLink = &link
	}

	extraction.FinalURL = finalURL.String
	extraction.ContentHash = contentHash.String
	extraction.FetchedAt = parseTimestamp(timestamp)
	extraction.FromCache = true

	return &extraction, nil
}

// MatchSummary is the key and score of one matched solution.
type MatchSummary struct {
	Key   string `json:"key"`
	Score int    `json:"score"`
}

// SaveAssessment saves a complete assessment as JSON and sets its ID.
func (rdb *ReportDB) SaveAssessment(ctx context.Context, assessment *model.Assessment) (int64, error) {
	reportJSON, err := json.Marshal(assessment)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize assessment: %w", err)
	}

	summary := make([]MatchSummary, len(assessment.Matches))
	for i, m := range assessment.Matches {
		summary[i] = MatchSummary{Key: m.Key, Score: m.RelevanceScore}
	}
	summaryJSON, _ := json.Marshal(summary) //nolint:errcheck,errchkjson // plain structs; Marshal won't fail

	query := `
	INSERT INTO assessments (urn, name, report_json, match_summary)
	VALUES (?, ?, ?, ?)
	`

	result, err := rdb.db.ExecContext(ctx, query,
		assessment.Institution.URN,
		assessment.Institution.Name,
		string(reportJSON),
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save assessment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read assessment id: %w", err)
	}
	assessment.ID = id

	return id, nil
}

// GetLatestAssessment retrieves the most recent assessment for an institution.
// It returns nil, nil when the institution was never assessed.
func (rdb *ReportDB) GetLatestAssessment(ctx context.Context, urn string) (*model.Assessment, error) {
	query := `
	SELECT id, report_json FROM assessments
	WHERE urn = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`
	return rdb.queryAssessment(ctx, query, urn)
}

// GetAssessmentByID retrieves an assessment by its database ID.
// It returns nil, nil when there is no such assessment.
func (rdb *ReportDB) GetAssessmentByID(ctx context.Context, id int64) (*model.Assessment, error) {
	query := `
	SELECT id, report_json FROM assessments
	WHERE id = ?
	`
	return rdb.queryAssessment(ctx, query, id)
}

func (rdb *ReportDB) queryAssessment(ctx context.Context, query string, arg any) (*model.Assessment, error) {
	var id int64
	var reportJSON string

	err := rdb.db.QueryRowContext(ctx, query, arg).Scan(&id, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	var assessment model.Assessment
	if err := json.Unmarshal([]byte(reportJSON), &assessment); err != nil {
		return nil, fmt.Errorf("failed to parse assessment: %w", err)
	}
	assessment.ID = id
	if assessment.ErrorMessage == model.ErrNoImprovementAreas.Error() {
		assessment.Error = model.ErrNoImprovementAreas
	}

	return &assessment, nil
}

// AssessedInstitution is an institution with at least one stored assessment.
type AssessedInstitution struct {
	URN          string
	Name         string
	Assessments  int
	LastAssessed time.Time
}

// ListAssessedInstitutions returns every institution with stored
// assessments, ordered by name.
func (rdb *ReportDB) ListAssessedInstitutions(ctx context.Context) ([]AssessedInstitution, error) {
	query := `
	SELECT urn, MAX(name), COUNT(*), MAX(timestamp)
	FROM assessments
	GROUP BY urn
	ORDER BY MAX(name), urn
	`

	rows, err := rdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	defer rows.Close()

	var results []AssessedInstitution
	for rows.Next() {
		var inst AssessedInstitution
		var timestamp string
		if err := rows.Scan(&inst.URN, &inst.Name, &inst.Assessments, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan institution: %w", err)
		}
		inst.LastAssessed = parseTimestamp(timestamp)
		results = append(results, inst)
	}

	return results, rows.Err()
}

// AssessmentMetadata contains summary information about a stored assessment.
// This is used for displaying history without loading the full assessment.
type AssessmentMetadata struct {
	// ID is the unique identifier of the assessment in the database.
	ID int64

	// URN is the assessed institution.
	URN string

	// Name is the institution name at the time of the assessment.
	Name string

	// Timestamp is when the assessment was saved.
	Timestamp time.Time

	// Matches are the matched solution keys with their scores, in rank order.
	Matches []MatchSummary
}

// GetAssessmentHistoryWithMetadata retrieves assessment metadata for an
// institution, newest first.
func (rdb *ReportDB) GetAssessmentHistoryWithMetadata(ctx context.Context, urn string) ([]AssessmentMetadata, error) {
	query := `
	SELECT id, urn, name, timestamp, match_summary
	FROM assessments
	WHERE urn = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, urn)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment history: %w", err)
	}
	defer rows.Close()

	var results []AssessmentMetadata
	for rows.Next() {
		var meta AssessmentMetadata
		var timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.URN, &meta.Name, &timestamp, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)

		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.Matches); err != nil {
				meta.Matches = nil
			}
		}
		if meta.Matches == nil {
			meta.Matches = make([]MatchSummary, 0)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// parseTimestamp accepts what CURRENT_TIMESTAMP and the driver produce:
// "2006-01-02 15:04:05" with optional fractional seconds, or RFC 3339.
// Anything else yields the zero time.
func parseTimestamp(s string) time.Time {
	layouts := [...]string{time.DateTime, "2006-01-02 15:04:05.999999999", time.RFC3339Nano, "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
