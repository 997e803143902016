package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iafilius/DeathTrajectories/src/logging"
)

// ErrMissingColumn is returned when the header lacks one of the required columns.
var ErrMissingColumn = errors.New("missing required column")

// RowError reports a malformed data row. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Accepted header names per field, compared after lower-casing and trimming.
var (
	countryColumns = []string{"country", "country/region", "country_region"}
	daysColumns    = []string{"days_since_first_10_deaths", "days_since_threshold", "days"}
	deathsColumns  = []string{"deaths", "total_deaths"}
)

// Load reads a CSV dataset from path.
func Load(path string) (*Dataset, error) {
	defer logging.TimeTrack(time.Now(), "load "+path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	st := ds.Stats()
	logging.Infof("loaded %d records for %d countries from %s (skipped %d rows without day offset)", st.Records, len(ds.countries), path, st.SkippedNoDays)
	return ds, nil
}

// Parse reads a CSV dataset with a header row. Columns are located by name; any
// extra columns are ignored.
func Parse(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("country: %w", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	ci, di, ni, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var records []DeathRecord
	stats := LoadStats{}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		stats.Lines++
		if isBlankRow(row) {
			continue
		}
		country := strings.TrimSpace(cell(row, ci))
		if country == "" {
			return nil, &RowError{Line: line, Column: header[ci], Err: errors.New("empty country")}
		}
		daysText := strings.TrimSpace(cell(row, di))
		if daysText == "" || strings.EqualFold(daysText, "nan") {
			stats.SkippedNoDays++
			continue
		}
		days, err := parseWhole(daysText)
		if err != nil {
			return nil, &RowError{Line: line, Column: header[di], Err: err}
		}
		deaths, err := parseWhole(strings.TrimSpace(cell(row, ni)))
		if err != nil {
			return nil, &RowError{Line: line, Column: header[ni], Err: err}
		}
		if deaths < 0 {
			return nil, &RowError{Line: line, Column: header[ni], Err: fmt.Errorf("negative deaths %d", deaths)}
		}
		records = append(records, DeathRecord{Country: country, Days: days, Deaths: deaths})
	}
	return newDataset(records, stats), nil
}

func locateColumns(header []string) (country, days, deaths int, err error) {
	country, days, deaths = -1, -1, -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case country < 0 && contains(countryColumns, name):
			country = i
		case days < 0 && contains(daysColumns, name):
			days = i
		case deaths < 0 && contains(deathsColumns, name):
			deaths = i
		}
	}
	switch {
	case country < 0:
		return 0, 0, 0, fmt.Errorf("country: %w", ErrMissingColumn)
	case days < 0:
		return 0, 0, 0, fmt.Errorf("days since threshold: %w", ErrMissingColumn)
	case deaths < 0:
		return 0, 0, 0, fmt.Errorf("deaths: %w", ErrMissingColumn)
	}
	return country, days, deaths, nil
}

// parseWhole accepts integers and integral floats ("12.0"), which is what
// spreadsheet and dataframe exports tend to produce.
func parseWhole(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
