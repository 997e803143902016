package render

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/iafilius/DeathTrajectories/src/dataset"
	"github.com/iafilius/DeathTrajectories/src/trajectory"
)

func scenarioSpec(countries []string, low, high int) trajectory.ChartSpec {
	ds := dataset.New([]dataset.DeathRecord{
		{Country: "US", Days: 0, Deaths: 10},
		{Country: "US", Days: 5, Deaths: 50},
		{Country: "US", Days: 30, Deaths: 250_000},
		{Country: "Brazil", Days: 0, Deaths: 10},
		{Country: "Brazil", Days: 5, Deaths: 20},
	})
	sel := trajectory.NewSelection(countries, low, high)
	return trajectory.BuildChart(trajectory.Filter(ds, sel), sel)
}

func TestPNGRendersAtRequestedSize(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(&buf, scenarioSpec([]string{"US", "Brazil"}, 0, 50), Options{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != DefaultWidth || b.Dy() != trajectory.ChartHeight {
		t.Fatalf("unexpected size %dx%d", b.Dx(), b.Dy())
	}
}

func TestChartSinglePointSeries(t *testing.T) {
	img, err := Chart(scenarioSpec([]string{"Brazil"}, 5, 5), Options{Width: 900})
	if err != nil {
		t.Fatalf("single point render: %v", err)
	}
	if img.Bounds().Dx() != 900 {
		t.Fatalf("width = %d", img.Bounds().Dx())
	}
}

func TestEmptySelectionDrawsHint(t *testing.T) {
	for _, spec := range []trajectory.ChartSpec{
		scenarioSpec(nil, 0, 50),
		scenarioSpec([]string{"US"}, 40, 10),
		scenarioSpec([]string{"Atlantis"}, 0, 50),
	} {
		img, err := Chart(spec, Options{})
		if err != nil {
			t.Fatalf("empty render: %v", err)
		}
		b := img.Bounds()
		found := false
		for x := b.Min.X; x < b.Max.X && !found; x++ {
			r, g, bl, _ := img.At(x, b.Dy()/2).RGBA()
			if uint8(r>>8) == noticeBoxColor.R && uint8(g>>8) == noticeBoxColor.G && uint8(bl>>8) == noticeBoxColor.B {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected hint box on the middle row for %+v", spec.Selection)
		}
	}
}

func TestBuildSeriesKeepsColourSlots(t *testing.T) {
	spec := scenarioSpec([]string{"Atlantis", "Brazil"}, 0, 50)
	series := buildSeries(spec)
	if len(series) != 1 {
		t.Fatalf("expected only Brazil to be drawn, got %d series", len(series))
	}
	cs, ok := series[0].(chart.ContinuousSeries)
	if !ok {
		t.Fatalf("unexpected series type %T", series[0])
	}
	if cs.Name != "Brazil" || cs.Style.StrokeColor != SeriesColor(1) {
		t.Fatalf("Brazil must keep the second colour slot: %+v", cs.Style)
	}
}

func TestYPositionClampsToDomain(t *testing.T) {
	spec := scenarioSpec([]string{"US"}, 0, 50)
	cases := []struct {
		deaths int
		want   float64
	}{
		{0, 1},
		{10, 1},
		{1000, 3},
		{250_000, math.Log10(200_000)},
	}
	for _, c := range cases {
		if got := yPosition(c.deaths, spec); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("yPosition(%d) = %v want %v", c.deaths, got, c.want)
		}
	}
}

func TestLogTicksAndLabels(t *testing.T) {
	ticks := logTicks(10, 200_000)
	want := []string{"10", "100", "1k", "10k", "100k", "200k"}
	if len(ticks) != len(want) {
		t.Fatalf("ticks = %v", ticks)
	}
	for i, v := range ticks {
		if got := formatCount(math.Pow(10, v)); got != want[i] {
			t.Fatalf("tick %d label %q want %q", i, got, want[i])
		}
	}
	if got := formatCount(1_500_000); got != "1.5M" {
		t.Fatalf("formatCount(1.5M) = %q", got)
	}
}

func TestDayTicks(t *testing.T) {
	cases := []struct {
		min, max int
		first    float64
		last     float64
	}{
		{0, 50, 0, 50},
		{0, 160, 0, 160},
		{3, 9, 3, 9},
		{0, 1, 0, 1},
	}
	for _, c := range cases {
		ticks := dayTicks(c.min, c.max, 11)
		if len(ticks) < 2 {
			t.Fatalf("[%d,%d]: too few ticks %v", c.min, c.max, ticks)
		}
		if ticks[0] != c.first || ticks[len(ticks)-1] != c.last {
			t.Fatalf("[%d,%d]: ticks %v", c.min, c.max, ticks)
		}
		for i := 1; i < len(ticks); i++ {
			if ticks[i] <= ticks[i-1] || ticks[i] != math.Trunc(ticks[i]) {
				t.Fatalf("[%d,%d]: ticks not increasing whole days %v", c.min, c.max, ticks)
			}
		}
	}
}

func TestComputeDimensions(t *testing.T) {
	cases := []struct {
		w, h, wantW, wantH int
	}{
		{0, 0, DefaultWidth, DefaultHeight},
		{100, 600, 800, 600},
		{1600, 400, 1600, 400},
		{9000, 600, 2400, 600},
	}
	for _, c := range cases {
		w, h := ComputeDimensions(c.w, c.h)
		if w != c.wantW || h != c.wantH {
			t.Fatalf("ComputeDimensions(%d,%d) = %d,%d", c.w, c.h, w, h)
		}
	}
}
