package trajectory

// Fixed chart labelling and scale.
const (
	ChartTitle  = "Country by country: how coronavirus death trajectories compare"
	XAxisTitle  = "Number of days since 10th total confirmed death"
	YAxisTitle  = "Total Deaths"
	YDomainMin  = 10.0
	YDomainMax  = 200_000.0
	ChartHeight = 600
)

// ChartSpec is everything a renderer needs to draw the trajectory chart.
type ChartSpec struct {
	Title  string `json:"title"`
	XTitle string `json:"x_title"`
	YTitle string `json:"y_title"`
	LogY   bool   `json:"log_y"`
	// X domain follows the selected day window.
	XMin   int     `json:"x_min"`
	XMax   int     `json:"x_max"`
	YMin   float64 `json:"y_min"`
	YMax   float64 `json:"y_max"`
	Height int     `json:"height"`

	Selection Selection `json:"selection"`
	Series    []Series  `json:"series"`
}

// BuildChart wraps fs with the fixed title, axis labels and log y domain.
func BuildChart(fs FilteredSeries, sel Selection) ChartSpec {
	xMin, xMax := sel.Range.Low, sel.Range.High
	if xMax <= xMin {
		// go-chart refuses zero-width ranges
		xMax = xMin + 1
	}
	countries := sel.Countries
	if countries == nil {
		countries = []string{}
	}
	return ChartSpec{
		Title:     ChartTitle,
		XTitle:    XAxisTitle,
		YTitle:    YAxisTitle,
		LogY:      true,
		XMin:      xMin,
		XMax:      xMax,
		YMin:      YDomainMin,
		YMax:      YDomainMax,
		Height:    ChartHeight,
		Selection: Selection{Countries: append([]string{}, countries...), Range: sel.Range},
		Series:    fs.Series(),
	}
}

// HasData reports whether any series has points to draw.
func (c ChartSpec) HasData() bool {
	for _, s := range c.Series {
		if len(s.Points) > 0 {
			return true
		}
	}
	return false
}
