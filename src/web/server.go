// Package web serves the trajectory dashboard: an HTML page with the country
// pickers and day range, the rendered chart, and a small JSON API.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iafilius/DeathTrajectories/src/config"
	"github.com/iafilius/DeathTrajectories/src/dataset"
	"github.com/iafilius/DeathTrajectories/src/logging"
	"github.com/iafilius/DeathTrajectories/src/render"
	"github.com/iafilius/DeathTrajectories/src/trajectory"
)

//go:embed templates/index.html
var templateFS embed.FS

const shutdownTimeout = 5 * time.Second

// snapshot pairs a dataset with the picker options derived from it.
type snapshot struct {
	ds      *dataset.Dataset
	options []dataset.Option
}

// Server answers dashboard requests. Each request reads one immutable dataset
// snapshot; SetDataset swaps in a new one for later requests.
type Server struct {
	data atomic.Pointer[snapshot]
	cfg  *config.Config
	tmpl *template.Template
}

// NewServer prepares a Server. A nil cfg means config.Default().
func NewServer(ds *dataset.Dataset, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	tmpl := template.Must(template.New("index.html").ParseFS(templateFS, "templates/index.html"))
	s := &Server{cfg: cfg, tmpl: tmpl}
	s.SetDataset(ds)
	return s
}

// SetDataset replaces the dataset served to subsequent requests.
func (s *Server) SetDataset(ds *dataset.Dataset) {
	s.data.Store(&snapshot{ds: ds, options: ds.CountryOptions()})
}

// Dataset returns the dataset currently served.
func (s *Server) Dataset() *dataset.Dataset { return s.data.Load().ds }

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.getOnly(s.handleIndex))
	mux.HandleFunc("/chart.png", s.getOnly(s.handleChart))
	mux.HandleFunc("/api/series", s.getOnly(s.handleSeries))
	mux.HandleFunc("/api/countries", s.getOnly(s.handleCountries))
	mux.HandleFunc("/healthz", s.getOnly(s.handleHealth))
	return mux
}

func (s *Server) getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// compute is the request/response form of the dashboard callback: selection in,
// chart description out.
func (s *Server) compute(r *http.Request, snap *snapshot) (trajectory.Selection, trajectory.ChartSpec, error) {
	sel, err := parseSelection(r.URL.Query(), s.cfg.DefaultSelection())
	if err != nil {
		return trajectory.Selection{}, trajectory.ChartSpec{}, err
	}
	fs := trajectory.Filter(snap.ds, sel)
	logging.Debugf("filter countries=%v days=%v series=%d points=%d", sel.Countries, sel.Range, fs.Len(), fs.Total())
	return sel, trajectory.BuildChart(fs, sel), nil
}

type optionView struct {
	Value    string
	Selected bool
}

type pickerView struct {
	Name    string
	Empty   bool
	Options []optionView
}

type markView struct {
	trajectory.Mark
	Percent float64
}

type pageData struct {
	Title       string
	Pickers     []pickerView
	Low, High   int
	MinDay      int
	MaxDay      int
	Marks       []markView
	ChartURL    string
	ChartWidth  int
	ChartHeight int
	UpdatedNote string
	Rows        int
	Countries   int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap := s.data.Load()
	sel, spec, err := s.compute(r, snap)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	values := pickerValues(r.URL.Query(), sel)
	pickers := make([]pickerView, 0, len(pickerNames))
	for i, name := range pickerNames {
		pickers = append(pickers, pickerView{Name: name, Empty: values[i] == "", Options: pickerOptions(snap.options, values[i])})
	}
	marks := make([]markView, 0)
	for _, m := range trajectory.SliderMarks() {
		marks = append(marks, markView{Mark: m, Percent: 100 * float64(m.Value-trajectory.MinDay) / float64(trajectory.MaxDay-trajectory.MinDay)})
	}
	data := pageData{
		Title:       spec.Title,
		Pickers:     pickers,
		Low:         sel.Range.Low,
		High:        sel.Range.High,
		MinDay:      trajectory.MinDay,
		MaxDay:      trajectory.MaxDay,
		Marks:       marks,
		ChartURL:    "/chart.png?" + selectionQuery(sel).Encode(),
		ChartWidth:  s.cfg.Chart.Width,
		ChartHeight: s.cfg.Chart.Height,
		UpdatedNote: s.cfg.UpdatedNote,
		Rows:        snap.ds.Len(),
		Countries:   len(snap.options),
	}
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		logging.Errorf("render page: %v", err)
		http.Error(w, "page render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// pickerOptions lists all dataset countries, marking selected. A selected value
// the dataset does not know is still offered so the picker keeps it.
func pickerOptions(options []dataset.Option, selected string) []optionView {
	out := make([]optionView, 0, len(options)+1)
	known := false
	for _, o := range options {
		isSel := o.Value == selected
		known = known || isSel
		out = append(out, optionView{Value: o.Value, Selected: isSel})
	}
	if selected != "" && !known {
		out = append([]optionView{{Value: selected, Selected: true}}, out...)
	}
	return out
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	_, spec, err := s.compute(r, s.data.Load())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	width := s.cfg.Chart.Width
	if v := r.URL.Query().Get("w"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid w %q: must be a whole number", v), http.StatusBadRequest)
			return
		}
		width = n
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, spec, render.Options{Width: width, Height: s.cfg.Chart.Height}); err != nil {
		logging.Errorf("chart for %v: %v", spec.Selection, err)
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	_, spec, err := s.compute(r, s.data.Load())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"countries": s.data.Load().options})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "ok rows=%d\n", s.Dataset().Len())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logging.Errorf("encode json: %v", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	logging.Infof("serving %d records at http://%s", s.Dataset().Len(), ln.Addr().String())
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully. ln is
// closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logging.Infof("server stopped")
		return nil
	})
	return g.Wait()
}
