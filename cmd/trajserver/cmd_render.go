package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iafilius/DeathTrajectories/src/dataset"
	"github.com/iafilius/DeathTrajectories/src/logging"
	"github.com/iafilius/DeathTrajectories/src/render"
	"github.com/iafilius/DeathTrajectories/src/trajectory"
)

type renderOptions struct {
	out        string
	outDir     string
	countries  []string
	low, high  int
	width      int
	perCountry bool
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	ro := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the trajectory chart as PNG without starting a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ds, err := opts.loadAll()
			if err != nil {
				return err
			}
			sel := cfg.DefaultSelection()
			if cmd.Flags().Changed("country") {
				sel = trajectory.NewSelection(ro.countries, sel.Range.Low, sel.Range.High)
			}
			if cmd.Flags().Changed("low") {
				sel.Range.Low = ro.low
			}
			if cmd.Flags().Changed("high") {
				sel.Range.High = ro.high
			}
			sel.Range = sel.Range.Clamp()
			ropts := render.Options{Width: cfg.Chart.Width, Height: cfg.Chart.Height}
			if ro.width > 0 {
				ropts.Width = ro.width
			}
			if ro.perCountry {
				written, err := renderPerCountry(ds, sel, ro.outDir, ropts)
				for _, p := range written {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return err
			}
			if ro.out == "" {
				return fmt.Errorf("--out is required (use - for stdout)")
			}
			if ro.out == "-" {
				return renderSelection(cmd.OutOrStdout(), ds, sel, ropts)
			}
			return writeChartFile(ro.out, ds, sel, ropts)
		},
	}
	cmd.Flags().StringVar(&ro.out, "out", "", "Output PNG path, - for stdout")
	cmd.Flags().StringVar(&ro.outDir, "out-dir", "charts", "Output directory for --per-country")
	cmd.Flags().StringSliceVar(&ro.countries, "country", nil, "Country to plot (repeatable, at most 6)")
	cmd.Flags().IntVar(&ro.low, "low", trajectory.DefaultRange.Low, "First day offset (inclusive)")
	cmd.Flags().IntVar(&ro.high, "high", trajectory.DefaultRange.High, "Last day offset (inclusive)")
	cmd.Flags().IntVar(&ro.width, "width", 0, "Image width in pixels, overrides config")
	cmd.Flags().BoolVar(&ro.perCountry, "per-country", false, "Write one PNG per selected country into --out-dir")
	return cmd
}

func renderSelection(w io.Writer, ds *dataset.Dataset, sel trajectory.Selection, opts render.Options) error {
	fs := trajectory.Filter(ds, sel)
	logging.Infof("rendering %d series (%d points) for days %v", fs.NonEmpty(), fs.Total(), sel.Range)
	return render.PNG(w, trajectory.BuildChart(fs, sel), opts)
}

func writeChartFile(path string, ds *dataset.Dataset, sel trajectory.Selection, opts render.Options) error {
	var buf bytes.Buffer
	if err := renderSelection(&buf, ds, sel, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// renderPerCountry writes <outDir>/<slug>.png for every distinct selected
// country, rendering concurrently. It returns the paths written, in selection
// order, together with the first error; files written before a failure are
// still reported.
func renderPerCountry(ds *dataset.Dataset, sel trajectory.Selection, outDir string, opts render.Options) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create out dir: %w", err)
	}
	countries := trajectory.Filter(ds, sel).Countries()
	paths := make([]string, len(countries))
	ok := make([]bool, len(countries))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, c := range countries {
		i, c := i, c
		paths[i] = filepath.Join(outDir, slug(c)+".png")
		g.Go(func() error {
			one := trajectory.Selection{Countries: []string{c}, Range: sel.Range}
			if err := writeChartFile(paths[i], ds, one, opts); err != nil {
				return err
			}
			ok[i] = true
			return nil
		})
	}
	err := g.Wait()
	written := make([]string, 0, len(paths))
	for i, p := range paths {
		if ok[i] {
			written = append(written, p)
		}
	}
	return written, err
}

// slug lowercases name and replaces anything but letters, digits, dash and
// underscore with '-'.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "country"
	}
	return b.String()
}
