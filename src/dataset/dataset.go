// Package dataset holds the per-country cumulative death table the dashboard is
// built on. A Dataset is loaded once and never mutated afterwards, so it can be
// shared by concurrent readers without locking.
package dataset

import "sort"

// DefaultPath is where the dashboard looks for its CSV when nothing else is configured.
const DefaultPath = "./data/deaths.csv"

// DeathRecord is one row: cumulative deaths of a country on a given day offset.
type DeathRecord struct {
	Country string `json:"country"`
	// Days since the country's 10th cumulative death. May be negative.
	Days   int `json:"days"`
	Deaths int `json:"deaths"`
}

// LoadStats describes what happened while parsing the source file.
type LoadStats struct {
	Lines         int `json:"lines"`
	Records       int `json:"records"`
	SkippedNoDays int `json:"skipped_no_days"`
}

// Option is a picker entry for one country.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Dataset is the immutable, ordered table of DeathRecords.
type Dataset struct {
	records   []DeathRecord
	countries []string
	counts    map[string]int
	stats     LoadStats
}

// New builds a Dataset from records. The slice is copied; later changes by the
// caller are not observed.
func New(records []DeathRecord) *Dataset {
	return newDataset(append([]DeathRecord(nil), records...), LoadStats{Lines: len(records), Records: len(records)})
}

func newDataset(records []DeathRecord, stats LoadStats) *Dataset {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Country]++
	}
	countries := make([]string, 0, len(counts))
	for c := range counts {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	stats.Records = len(records)
	return &Dataset{records: records, countries: countries, counts: counts, stats: stats}
}

// Len returns the number of records. A nil Dataset is empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Records returns a copy of all records in source order.
func (d *Dataset) Records() []DeathRecord {
	if d == nil {
		return nil
	}
	return append([]DeathRecord(nil), d.records...)
}

// Each calls fn for every record in source order without copying the table.
func (d *Dataset) Each(fn func(DeathRecord)) {
	if d == nil {
		return
	}
	for _, r := range d.records {
		fn(r)
	}
}

// Countries returns the sorted unique country names.
func (d *Dataset) Countries() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.countries...)
}

// Has reports whether at least one record exists for country.
func (d *Dataset) Has(country string) bool {
	if d == nil {
		return false
	}
	return d.counts[country] > 0
}

// RowCount returns the number of records for country.
func (d *Dataset) RowCount(country string) int {
	if d == nil {
		return 0
	}
	return d.counts[country]
}

// Stats returns the load statistics.
func (d *Dataset) Stats() LoadStats {
	if d == nil {
		return LoadStats{}
	}
	return d.stats
}

// CountryOptions returns one picker option per country, sorted by name.
func (d *Dataset) CountryOptions() []Option {
	names := d.Countries()
	options := make([]Option, 0, len(names))
	for _, c := range names {
		options = append(options, Option{Label: c, Value: c})
	}
	return options
}
