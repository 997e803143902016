package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iafilius/DeathTrajectories/src/config"
	"github.com/iafilius/DeathTrajectories/src/dataset"
	"github.com/iafilius/DeathTrajectories/src/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Long: `Serve the dashboard over HTTP until interrupted.

Routes:
  /               dashboard page
  /chart.png      chart for the query selection (c1..c6 or country, low, high, w)
  /api/series     chart description as JSON
  /api/countries  picker options as JSON
  /healthz        liveness`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ds, err := opts.loadAll()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, ds, watch)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, overrides config (e.g. 127.0.0.1:8050)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the CSV when it changes on disk")
	return cmd
}

// serve runs the HTTP server and, with watch set, a dataset watcher feeding
// reloads into it. Both stop when ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, ds *dataset.Dataset, watch bool) error {
	srv := web.NewServer(ds, cfg)
	g, gctx := errgroup.WithContext(ctx)
	if watch {
		w, err := dataset.NewWatcher(cfg.DataPath, dataset.DefaultDebounce, srv.SetDataset)
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}
	g.Go(func() error { return srv.Run(gctx, cfg.Listen) })
	return g.Wait()
}
