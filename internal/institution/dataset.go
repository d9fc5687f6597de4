package institution

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/nao1215/schoolscan/internal/model"
)

// Column names in the establishment export.
const (
	ColumnURN      = "URN"
	ColumnName     = "EstablishmentName"
	ColumnStreet   = "Street"
	ColumnTown     = "Town"
	ColumnPostcode = "Postcode"
	ColumnType     = "TypeOfEstablishment (name)"
	ColumnPhase    = "PhaseOfEducation (name)"
	ColumnPupils   = "NumberOfPupils"
	ColumnFSM      = "PercentageFSM"
	ColumnWebsite  = "SchoolWebsite"
)

// DefaultSearchLimit is used by Search when limit is not positive.
const DefaultSearchLimit = 20

// Dataset is an in-memory, read-only establishment register.
type Dataset struct {
	records []model.Institution
	byURN   map[string]int
}

// Load reads a dataset file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse reads a dataset from r.
// Rows without a URN are skipped. When a URN repeats, the first row wins.
func Parse(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	data, err = toUTF8(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := indexColumns(header)
	for _, required := range []string{ColumnURN, ColumnName} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	ds := &Dataset{
		records: make([]model.Institution, 0),
		byURN:   make(map[string]int),
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		inst := cols.institution(row)
		if inst.URN == "" {
			continue
		}
		if _, dup := ds.byURN[inst.URN]; dup {
			continue
		}
		ds.byURN[inst.URN] = len(ds.records)
		ds.records = append(ds.records, inst)
	}

	return ds, nil
}

// Len returns the number of institutions.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Lookup returns the institution with the given URN.
func (d *Dataset) Lookup(urn string) (model.Institution, error) {
	i, ok := d.byURN[strings.TrimSpace(urn)]
	if !ok {
		return model.Institution{}, fmt.Errorf("%w: URN %s", ErrNotFound, urn)
	}
	return d.records[i], nil
}

// Search returns institutions whose name, URN or postcode contains query,
// case-insensitively, in dataset order. An empty query returns nothing.
func (d *Dataset) Search(query string, limit int) []model.Institution {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []model.Institution{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	results := make([]model.Institution, 0)
	for _, inst := range d.records {
		if len(results) == limit {
			break
		}
		if strings.Contains(strings.ToLower(inst.Name), q) ||
			strings.Contains(inst.URN, q) ||
			strings.Contains(strings.ToLower(inst.Postcode), q) {
			results = append(results, inst)
		}
	}
	return results
}

type columns map[string]int

func indexColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) institution(row []string) model.Institution {
	return model.Institution{
		URN:      c.get(row, ColumnURN),
		Name:     c.get(row, ColumnName),
		Street:   c.get(row, ColumnStreet),
		Town:     c.get(row, ColumnTown),
		Postcode: c.get(row, ColumnPostcode),
		Type:     c.get(row, ColumnType),
		Phase:    c.get(row, ColumnPhase),
		Pupils:   parseCount(c.get(row, ColumnPupils)),
		FSM:      parsePercent(c.get(row, ColumnFSM)),
		Website:  c.get(row, ColumnWebsite),
	}
}

// parseCount accepts "123" and "123.0"; anything else is zero.
func parseCount(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// parsePercent accepts "23.4" and "23.4%"; suppressed or invalid values are zero.
func parsePercent(s string) float64 {
	s = strings.TrimSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// toUTF8 strips a UTF-8 byte order mark and decodes Windows-1252 input.
func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return decoded, nil
}
