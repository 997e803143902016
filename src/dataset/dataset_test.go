package dataset

import "testing"

func TestNewCopiesInput(t *testing.T) {
	in := []DeathRecord{{Country: "Spain", Days: 0, Deaths: 10}}
	ds := New(in)
	in[0].Deaths = 999
	if got := ds.Records()[0].Deaths; got != 10 {
		t.Fatalf("dataset observed caller mutation: %d", got)
	}
	out := ds.Records()
	out[0].Country = "France"
	if ds.Has("France") || !ds.Has("Spain") {
		t.Fatalf("dataset observed mutation of returned records")
	}
}

func TestCountryOptionsSortedUnique(t *testing.T) {
	ds := New([]DeathRecord{
		{Country: "US", Days: 0, Deaths: 10},
		{Country: "China", Days: 0, Deaths: 17},
		{Country: "US", Days: 1, Deaths: 12},
		{Country: "Brazil", Days: 0, Deaths: 11},
	})
	opts := ds.CountryOptions()
	want := []string{"Brazil", "China", "US"}
	if len(opts) != len(want) {
		t.Fatalf("expected %d options, got %d", len(want), len(opts))
	}
	for i, o := range opts {
		if o.Label != want[i] || o.Value != want[i] {
			t.Fatalf("option %d = %+v, want %s", i, o, want[i])
		}
	}
}

func TestNilDatasetIsEmpty(t *testing.T) {
	var ds *Dataset
	if ds.Len() != 0 || ds.Records() != nil || ds.Countries() != nil || ds.Has("US") {
		t.Fatalf("nil dataset should behave as empty")
	}
	calls := 0
	ds.Each(func(DeathRecord) { calls++ })
	if calls != 0 {
		t.Fatalf("Each on nil dataset called fn %d times", calls)
	}
}
