// Package trajectory turns the death table plus the dashboard selection into
// per-country series and the chart description renderers consume.
package trajectory

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/iafilius/DeathTrajectories/src/dataset"
)

// Point is one (day offset, cumulative deaths) sample.
type Point struct {
	Days   int `json:"days"`
	Deaths int `json:"deaths"`
}

// Series is the line for one country, ascending by Days.
type Series struct {
	Country string  `json:"country"`
	Points  []Point `json:"points"`
}

// FilteredSeries maps each selected country to its points, in selection order.
// Countries with no matching rows are present with zero points so renderers keep
// their legend slot and colour stable.
type FilteredSeries struct {
	series []Series
	index  map[string]int
}

// Filter keeps records whose country is selected and whose day offset lies in
// sel.Range, grouped by country. It never fails: unknown countries give empty
// series, an empty selection gives no series, an inverted range gives only
// empty series. ds is not modified.
func Filter(ds *dataset.Dataset, sel Selection) FilteredSeries {
	countries := uniqueCountries(sel.Countries)
	fs := FilteredSeries{index: make(map[string]int, len(countries))}
	for _, c := range countries {
		fs.index[c] = len(fs.series)
		fs.series = append(fs.series, Series{Country: c, Points: []Point{}})
	}
	if len(countries) == 0 || sel.Range.Empty() {
		return fs
	}
	r := sel.Range
	ds.Each(func(rec dataset.DeathRecord) {
		if !r.Contains(rec.Days) {
			return
		}
		i, ok := fs.index[rec.Country]
		if !ok {
			return
		}
		fs.series[i].Points = append(fs.series[i].Points, Point{Days: rec.Days, Deaths: rec.Deaths})
	})
	// Source rows are chronological per country, so this normally keeps input order.
	for i := range fs.series {
		pts := fs.series[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].Days < pts[b].Days })
	}
	return fs
}

func uniqueCountries(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Len returns the number of series, empty ones included.
func (fs FilteredSeries) Len() int { return len(fs.series) }

// Countries returns the series keys in selection order.
func (fs FilteredSeries) Countries() []string {
	out := make([]string, 0, len(fs.series))
	for _, s := range fs.series {
		out = append(out, s.Country)
	}
	return out
}

// Points returns a copy of the points for country and whether the country is a key.
func (fs FilteredSeries) Points(country string) ([]Point, bool) {
	i, ok := fs.index[country]
	if !ok {
		return nil, false
	}
	return append([]Point{}, fs.series[i].Points...), true
}

// Series returns a copy of all series in selection order.
func (fs FilteredSeries) Series() []Series {
	out := make([]Series, 0, len(fs.series))
	for _, s := range fs.series {
		out = append(out, Series{Country: s.Country, Points: append([]Point{}, s.Points...)})
	}
	return out
}

// NonEmpty counts series with at least one point.
func (fs FilteredSeries) NonEmpty() int {
	n := 0
	for _, s := range fs.series {
		if len(s.Points) > 0 {
			n++
		}
	}
	return n
}

// Total counts points across all series.
func (fs FilteredSeries) Total() int {
	n := 0
	for _, s := range fs.series {
		n += len(s.Points)
	}
	return n
}

func (fs FilteredSeries) MarshalJSON() ([]byte, error) {
	return json.Marshal(fs.Series())
}
