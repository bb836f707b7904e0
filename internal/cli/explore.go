package cli

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/layout"
	"github.com/mkarlsen/biolens/pkg/pipeline"
	"github.com/mkarlsen/biolens/pkg/view"
)

// exploreCommand creates the explore command for the interactive
// terminal explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		filter  string
		mode    string
		seed    uint64
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "explore [experiments.json]",
		Short: "Explore the experiment graph interactively",
		Long: `Explore the experiment graph interactively in the terminal.

Pan, zoom, switch layout modes, filter by category, grab and reposition
nodes, and open experiment details, all driven by the same layout engine
that powers render and serve.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return c.runExplore(cmd.Context(), file, filter, mode, seed, noCache)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "research category filter (default all)")
	cmd.Flags().StringVar(&mode, "mode", pipeline.DefaultMode, "layout mode: force, radial, hierarchical")
	cmd.Flags().Uint64Var(&seed, "seed", pipeline.DefaultSeed, "random seed for reproducible layouts")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, file, filterStr, modeStr string, seed uint64, noCache bool) error {
	f, err := graph.ParseFilter(filterStr)
	if err != nil {
		return err
	}
	mode, err := layout.ParseMode(modeStr)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	src, closeFn, err := c.newSource(ctx, cfg, file)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn(ctx)
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return err
	}

	records, err := runner.Fetch(ctx, src, pipeline.Options{})
	if err != nil {
		return err
	}
	nodes, edges, diag := graph.Build(records)
	if diag.DroppedEdges > 0 {
		c.Logger.Debug("dropped dangling references", "count", diag.DroppedEdges)
	}

	// The TUI owns the terminal, so the state logger stays quiet.
	state := view.New(nodes, edges, view.Options{
		Filter: f,
		Mode:   mode,
		Seed:   seed,
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})

	prog := tea.NewProgram(NewExplorerModel(state), tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	_, err = prog.Run()
	return err
}
