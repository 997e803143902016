package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/iafilius/DeathTrajectories/src/dataset"
	"github.com/iafilius/DeathTrajectories/src/logging"
)

type countrySummary struct {
	Country   string
	Rows      int
	FirstDay  int
	LastDay   int
	MaxDeaths int
}

func summarize(ds *dataset.Dataset, country string) []countrySummary {
	byCountry := map[string]*countrySummary{}
	ds.Each(func(r dataset.DeathRecord) {
		if country != "" && r.Country != country {
			return
		}
		s, ok := byCountry[r.Country]
		if !ok {
			s = &countrySummary{Country: r.Country, FirstDay: r.Days, LastDay: r.Days}
			byCountry[r.Country] = s
		}
		s.Rows++
		if r.Days < s.FirstDay {
			s.FirstDay = r.Days
		}
		if r.Days > s.LastDay {
			s.LastDay = r.Days
		}
		if r.Deaths > s.MaxDeaths {
			s.MaxDeaths = r.Deaths
		}
	})
	out := make([]countrySummary, 0, len(byCountry))
	for _, c := range ds.Countries() {
		if s, ok := byCountry[c]; ok {
			out = append(out, *s)
		}
	}
	return out
}

func printSummary(w io.Writer, ds *dataset.Dataset, sums []countrySummary) {
	st := ds.Stats()
	fmt.Fprintf(w, "Total rows: %d (skipped without day offset: %d)\n", st.Records, st.SkippedNoDays)
	if len(sums) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Country", "Rows", "First Day", "Last Day", "Max Deaths"})
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: false, Right: false, Top: true, Bottom: true})
	for _, s := range sums {
		table.Append([]string{
			s.Country,
			strconv.Itoa(s.Rows),
			strconv.Itoa(s.FirstDay),
			strconv.Itoa(s.LastDay),
			strconv.Itoa(s.MaxDeaths),
		})
	}
	table.Render()
}

func main() {
	var file string
	var country string
	flag.StringVar(&file, "file", dataset.DefaultPath, "Path to deaths CSV")
	flag.StringVar(&country, "country", "", "Optional country filter (exact match)")
	flag.Parse()
	logging.SetLogLevel("warn")
	ds, err := dataset.Load(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	printSummary(os.Stdout, ds, summarize(ds, country))
}
