// Package locations provides the village dataset backends: a CSV file loaded
// once at startup, or a Postgres table for production datasets.
package locations

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

// requiredColumns are the dataset columns the loader insists on, after header
// normalization (lowercased, whitespace-trimmed).
var requiredColumns = []string{"district", "taluka", "village", "lat", "lon"}

// SchemaError reports a dataset whose header is missing required columns.
// Raised at load time; the service refuses to start on it.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("location dataset missing required columns: %s", strings.Join(e.Missing, ", "))
}

// rowKey indexes a village within the district → taluka hierarchy. All parts
// are normalized so lookups are case- and whitespace-insensitive.
type rowKey struct {
	district, taluka, village string
}

func keyOf(district, taluka, village string) rowKey {
	return rowKey{
		district: normalize(district),
		taluka:   normalize(taluka),
		village:  normalize(village),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CSVStore is an immutable in-memory location store backed by a CSV file.
// Loaded once at startup; safe for concurrent reads.
type CSVStore struct {
	rows  []domain.Location
	index map[rowKey]domain.Location
}

// LoadCSV reads and indexes the village dataset at path. A missing required
// column yields a SchemaError; a malformed coordinate fails the load with the
// offending line number.
func LoadCSV(path string) (*CSVStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open location dataset: %w", err)
	}
	defer f.Close()

	store, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("load location dataset %s: %w", path, err)
	}
	return store, nil
}

func parse(r io.Reader) (*CSVStore, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx, err := indexHeader(records[0])
	if err != nil {
		return nil, err
	}

	store := &CSVStore{index: make(map[rowKey]domain.Location, len(records)-1)}
	for i, rec := range records[1:] {
		line := i + 2
		loc, err := parseRow(rec, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		key := keyOf(loc.District, loc.Taluka, loc.Village)
		if _, dup := store.index[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate village %s / %s / %s", line, loc.District, loc.Taluka, loc.Village)
		}
		store.index[key] = loc
		store.rows = append(store.rows, loc)
	}

	return store, nil
}

// indexHeader maps normalized column names to their positions. The exported
// datasets carry a UTF-8 BOM on the first header cell, which is stripped.
func indexHeader(header []string) (map[string]int, error) {
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\uFEFF")
		colIdx[normalize(h)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return colIdx, nil
}

func parseRow(rec []string, colIdx map[string]int) (domain.Location, error) {
	field := func(col string) string {
		idx := colIdx[col]
		if idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	lat, err := parseCoordinate(field("lat"))
	if err != nil {
		return domain.Location{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := parseCoordinate(field("lon"))
	if err != nil {
		return domain.Location{}, fmt.Errorf("lon: %w", err)
	}

	return domain.Location{
		District: field("district"),
		Taluka:   field("taluka"),
		Village:  field("village"),
		Lat:      lat,
		Lon:      lon,
	}, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite coordinate %q", s)
	}
	return v, nil
}

// Len returns the number of village rows loaded.
func (s *CSVStore) Len() int { return len(s.rows) }

// Lookup resolves a village selection to its dataset row.
func (s *CSVStore) Lookup(_ context.Context, district, taluka, village string) (domain.Location, error) {
	loc, ok := s.index[keyOf(district, taluka, village)]
	if !ok {
		return domain.Location{}, &domain.NotFoundError{District: district, Taluka: taluka, Village: village}
	}
	return loc, nil
}

// Districts lists every district, sorted.
func (s *CSVStore) Districts(_ context.Context) ([]string, error) {
	return s.distinct(func(domain.Location) bool { return true }, func(l domain.Location) string { return l.District }), nil
}

// Talukas lists the talukas of a district, sorted.
func (s *CSVStore) Talukas(_ context.Context, district string) ([]string, error) {
	d := normalize(district)
	return s.distinct(
		func(l domain.Location) bool { return normalize(l.District) == d },
		func(l domain.Location) string { return l.Taluka },
	), nil
}

// Villages lists the villages of a (district, taluka) pair, sorted.
func (s *CSVStore) Villages(_ context.Context, district, taluka string) ([]string, error) {
	d, t := normalize(district), normalize(taluka)
	return s.distinct(
		func(l domain.Location) bool { return normalize(l.District) == d && normalize(l.Taluka) == t },
		func(l domain.Location) string { return l.Village },
	), nil
}

func (s *CSVStore) distinct(match func(domain.Location) bool, pick func(domain.Location) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, loc := range s.rows {
		if !match(loc) {
			continue
		}
		v := pick(loc)
		if _, dup := seen[normalize(v)]; dup {
			continue
		}
		seen[normalize(v)] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
