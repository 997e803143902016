package web

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iafilius/DeathTrajectories/src/config"
	"github.com/iafilius/DeathTrajectories/src/dataset"
	"github.com/iafilius/DeathTrajectories/src/trajectory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ds := dataset.New([]dataset.DeathRecord{
		{Country: "US", Days: 0, Deaths: 10},
		{Country: "US", Days: 5, Deaths: 50},
		{Country: "Brazil", Days: 0, Deaths: 10},
		{Country: "Brazil", Days: 5, Deaths: 20},
		{Country: "Spain", Days: 3, Deaths: 35},
	})
	srv := httptest.NewServer(NewServer(ds, config.Default()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getSpec(t *testing.T, base, query string) trajectory.ChartSpec {
	t.Helper()
	resp, err := http.Get(base + "/api/series?" + query)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var spec trajectory.ChartSpec
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&spec))
	return spec
}

func TestSeriesScenario(t *testing.T) {
	srv := newTestServer(t)
	spec := getSpec(t, srv.URL, "country=US&country=Brazil&low=0&high=5")
	require.Len(t, spec.Series, 2)
	assert.Equal(t, "US", spec.Series[0].Country)
	assert.Equal(t, []trajectory.Point{{Days: 0, Deaths: 10}, {Days: 5, Deaths: 50}}, spec.Series[0].Points)
	assert.Equal(t, []trajectory.Point{{Days: 0, Deaths: 10}, {Days: 5, Deaths: 20}}, spec.Series[1].Points)
	assert.True(t, spec.LogY)
	assert.Equal(t, trajectory.ChartTitle, spec.Title)

	spec = getSpec(t, srv.URL, "country=US&country=Brazil&low=1&high=4")
	require.Len(t, spec.Series, 2)
	assert.Empty(t, spec.Series[0].Points)
	assert.Empty(t, spec.Series[1].Points)

	spec = getSpec(t, srv.URL, "country=US&country=US&low=0&high=5")
	require.Len(t, spec.Series, 1)
}

func TestSeriesDefaultsAndPickers(t *testing.T) {
	srv := newTestServer(t)
	spec := getSpec(t, srv.URL, "")
	assert.Equal(t, trajectory.DefaultCountries, spec.Selection.Countries)
	assert.Equal(t, trajectory.DayRange{Low: 0, High: 50}, spec.Selection.Range)
	assert.Len(t, spec.Series, 6)

	spec = getSpec(t, srv.URL, "c1=&c2=Spain&c3=&c4=&c5=&c6=&low=0&high=10")
	require.Len(t, spec.Series, 1)
	assert.Equal(t, "Spain", spec.Series[0].Country)
	assert.Equal(t, []trajectory.Point{{Days: 3, Deaths: 35}}, spec.Series[0].Points)
}

func TestSeriesRangeHandling(t *testing.T) {
	srv := newTestServer(t)
	spec := getSpec(t, srv.URL, "country=US&low=-20&high=999")
	assert.Equal(t, trajectory.DayRange{Low: 0, High: 160}, spec.Selection.Range)

	spec = getSpec(t, srv.URL, "country=US&low=9&high=2")
	require.Len(t, spec.Series, 1)
	assert.Empty(t, spec.Series[0].Points)

	spec = getSpec(t, srv.URL, "country=US&low=9&high=2&moved=low")
	assert.Equal(t, trajectory.DayRange{Low: 9, High: 11}, spec.Selection.Range)

	resp, err := http.Get(srv.URL + "/api/series?low=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChartPNG(t *testing.T) {
	srv := newTestServer(t)
	for _, q := range []string{"country=US&country=Brazil&low=0&high=5", "country=Nowhere", "w=900"} {
		resp, err := http.Get(srv.URL + "/chart.png?" + q)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, q)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		img, err := png.Decode(resp.Body)
		resp.Body.Close()
		require.NoError(t, err, q)
		assert.Equal(t, trajectory.ChartHeight, img.Bounds().Dy())
	}
	resp, err := http.Get(srv.URL + "/chart.png?w=wide")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/?c1=Spain&c2=&c3=&c4=&c5=&c6=US&low=3&high=40")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, trajectory.ChartTitle)
	assert.Contains(t, page, "Choose Up to 6 Countries to Compare:")
	assert.Equal(t, 6, strings.Count(page, "<select "))
	assert.Contains(t, page, `<option value="Spain" selected>`)
	assert.Contains(t, page, `value="3"`)
	assert.Contains(t, page, `value="40"`)
	assert.Contains(t, page, "/chart.png?c1=Spain")
	assert.Contains(t, page, "Data and chart last updated")
}

// selectBlock returns the markup of the <select> named name.
func selectBlock(t *testing.T, page, name string) string {
	t.Helper()
	start := strings.Index(page, `<select name="`+name+`"`)
	require.GreaterOrEqual(t, start, 0, "no select %s", name)
	end := strings.Index(page[start:], "</select>")
	require.Greater(t, end, 0)
	return page[start : start+end]
}

func TestIndexPageBlankPickersStayBlank(t *testing.T) {
	ds := dataset.New([]dataset.DeathRecord{
		{Country: "Afghanistan", Days: 0, Deaths: 10},
		{Country: "US", Days: 0, Deaths: 10},
	})
	cfg := config.Default()
	cfg.Countries = []string{"US"}
	srv := httptest.NewServer(NewServer(ds, cfg).Handler())
	defer srv.Close()

	for _, query := range []string{"", "?c1=US&c2=&c3=&c4=&c5=&c6="} {
		resp, err := http.Get(srv.URL + "/" + query)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		page := string(body)

		first := selectBlock(t, page, "c1")
		assert.Contains(t, first, `<option value="US" selected>`)
		assert.NotContains(t, first, `<option value="" selected>`)
		for _, name := range []string{"c2", "c3", "c4", "c5", "c6"} {
			block := selectBlock(t, page, name)
			assert.Contains(t, block, `<option value="" selected>Choose Country...</option>`, "picker %s query %q", name, query)
			assert.Equal(t, 1, strings.Count(block, " selected>"), "picker %s query %q", name, query)
		}
	}
}

func TestRoutingErrors(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.PostForm(srv.URL+"/api/series", url.Values{"low": {"1"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCountriesAndHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/countries")
	require.NoError(t, err)
	var out struct {
		Countries []dataset.Option `json:"countries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	require.Len(t, out.Countries, 3)
	assert.Equal(t, "Brazil", out.Countries[0].Value)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok rows=5\n", string(body))
}

func TestServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(dataset.New(nil), nil).Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	defer client.CloseIdleConnections()
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestSetDatasetSwapsServedData(t *testing.T) {
	s := NewServer(dataset.New([]dataset.DeathRecord{{Country: "US", Days: 0, Deaths: 10}}), nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	spec := getSpec(t, srv.URL, "country=Peru&low=0&high=5")
	require.Len(t, spec.Series, 1)
	assert.Empty(t, spec.Series[0].Points)

	s.SetDataset(dataset.New([]dataset.DeathRecord{
		{Country: "Peru", Days: 0, Deaths: 10},
		{Country: "Peru", Days: 2, Deaths: 19},
	}))
	spec = getSpec(t, srv.URL, "country=Peru&low=0&high=5")
	require.Len(t, spec.Series, 1)
	assert.Len(t, spec.Series[0].Points, 2)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok rows=2\n", string(body))
	assert.Equal(t, 2, s.Dataset().Len())
}
