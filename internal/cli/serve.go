package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/biolens/internal/server"
	"github.com/mkarlsen/biolens/internal/store"
	"github.com/mkarlsen/biolens/pkg/graph"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve experiment data and rendered scenes over HTTP",
		Long: `Serve experiment data and rendered scenes over HTTP.

Endpoints:
  GET /healthz          liveness and build information
  GET /api/experiments  raw experiment records
  GET /api/graph        filtered node/edge model with diagnostics
  GET /api/scene        rendered scene (svg, png, dot, json, or graphviz)

When the store is a JSON file, edits to the file are picked up
automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	st, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return err
	}

	if fs, ok := st.(*store.FileStore); ok {
		err := fs.Watch(ctx,
			func(records []graph.Record) {
				c.Logger.Info("experiment file reloaded", "records", len(records))
			},
			func(err error) {
				c.Logger.Warn("experiment file reload failed", "error", err)
			})
		if err != nil {
			return err
		}
	}

	srv := server.New(st, runner, c.Logger)
	return srv.ListenAndServe(ctx, addr)
}
