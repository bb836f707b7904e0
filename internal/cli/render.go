package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/biolens/pkg/pipeline"
	"github.com/mkarlsen/biolens/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string // output file path (or base path for multiple formats)
	formatsStr string // comma-separated output formats
	noCache    bool   // disable caching
	pipeline.Options
}

// renderCommand creates the render command for generating static graph
// images from an experiment dataset.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [experiments.json]",
		Short: "Render the experiment graph to image files",
		Long: `Render the experiment graph to image files.

Reads experiment records from a JSON file, the configured source URL, or
the configured store, positions them with the selected layout mode, and
writes one file per requested format.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			opts.Formats = parseFormats(opts.formatsStr)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(withLogger(cmd.Context(), c.Logger), file, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json, graphviz (comma-separated)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "research category filter (default all)")
	cmd.Flags().StringVar(&opts.Mode, "mode", pipeline.DefaultMode, "layout mode: force, radial, hierarchical")
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "viewport width")
	cmd.Flags().Float64Var(&opts.Height, "height", pipeline.DefaultHeight, "viewport height")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "random seed for reproducible layouts")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "raster scale factor (png)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the dataset cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")

	return cmd
}

// runRender fetches records, runs the pipeline, and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, file string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

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

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}

	opts.Logger = logger
	prog := newProgress(logger)

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s layout...", opts.Mode))
	spinner.Start()

	result, err := runner.Execute(ctx, src, opts.Options)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d format(s)", len(result.Artifacts)))

	printStats(len(result.Nodes), len(result.Edges), result.Diagnostics.DroppedEdges, result.CacheInfo.RenderHit)

	if err := writeArtifacts(result, opts); err != nil {
		return err
	}
	next := "biolens explore"
	if file != "" {
		next += " " + file
	}
	printNextStep("Explore interactively", next)
	return nil
}

// writeArtifacts writes each rendered format to its output file. With a
// single format the --output path is used as-is; with multiple formats
// it is treated as a base path and the format extension is appended.
func writeArtifacts(result *pipeline.Result, opts *renderOpts) error {
	base := basePath(opts.output)
	single := len(opts.Formats) == 1

	for _, f := range opts.Formats {
		format, err := render.ParseFormat(f)
		if err != nil {
			return err
		}
		data, ok := result.Artifacts[string(format)]
		if !ok {
			continue
		}

		path := opts.output
		if !single || path == "" {
			path = base + "." + format.Ext()
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// basePath derives the base output path, stripping a known format
// extension so "graph.svg" and "graph" behave the same.
func basePath(output string) string {
	if output == "" {
		return "experiments"
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if _, err := render.ParseFormat(ext); err == nil {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}
