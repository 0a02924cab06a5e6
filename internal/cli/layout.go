package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	pferrors "github.com/matzehuels/packetflow/pkg/errors"
	"github.com/matzehuels/packetflow/pkg/pipeline"
)

// layoutCommand creates the layout command for rendering a route's topology.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [destination]",
		Short: "Render the topology of a route",
		Long: `Render the topology of a route without packets.

The route to the destination is looked up in the route table, laid out on a
surface of the given size, and written in each requested format. Without a
destination the default six-node topology is rendered.

The frame view (default) draws the graph the way the animation shows it. The
nodelink view hands the route to Graphviz and additionally supports DOT.

Results are cached locally for faster subsequent runs.`,
		Example: `  packetflow layout google.com
  packetflow layout github.com -f svg,png --dpr 2
  packetflow layout example.com --view nodelink -f dot,svg -o example`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeDestinations,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Destination = args[0]
			}
			if output != "" {
				if err := pferrors.ValidatePath(output); err != nil {
					return err
				}
			}
			opts.Formats = parseFormats(formatsStr)
			c.setCLIDefaults(&opts)
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: <destination>)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output formats, comma separated: svg, json, png, pdf, dot")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	cmd.Flags().Float64Var(&opts.Width, "width", 0, "surface width in logical pixels (default from config)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "surface height in logical pixels (default from config)")
	cmd.Flags().Float64Var(&opts.DPR, "dpr", 0, "device pixel ratio (default from config)")
	cmd.Flags().StringVarP(&opts.View, "view", "t", pipeline.DefaultView, "view: frame (default), nodelink")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show host names and round-trip times")
	cmd.Flags().BoolVar(&opts.Pinned, "pinned", false, "pin nodelink nodes to their frame positions")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cached route lookups and layouts")

	return cmd
}

// runLayout resolves, lays out and renders a route, then writes the artifacts.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %s...", destinationLabel(opts.Destination)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := output
	if base == "" {
		base = outputBase(opts.Destination)
	}
	paths, err := writeArtifacts(result.Artifacts, base)
	if err != nil {
		return err
	}

	printSuccess("Layout complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(len(result.Graph.Nodes), len(result.Graph.Edges), result.CacheInfo.RenderHit)
	if result.Graph.Default {
		printDetail("no route given, rendered the default topology")
	}
	if result.Graph.Width > opts.Width {
		printWarning("route needs %.0f px, wider than the %.0f px viewport", result.Graph.Width, opts.Width)
	}
	printNewline()
	printNextStep("Animate", appName+" play "+strings.TrimSpace("traceroute "+opts.Destination))

	return nil
}

// writeArtifacts writes each artifact to <base>.<format> in format order and
// returns the written paths.
func writeArtifacts(artifacts map[string][]byte, base string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path := base + "." + f
		if err := os.WriteFile(path, artifacts[f], 0644); err != nil {
			return paths, fmt.Errorf("write output %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputBase derives a file-system friendly base name from a destination.
func outputBase(dest string) string {
	if dest == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, dest)
}

func destinationLabel(dest string) string {
	if dest == "" {
		return "default topology"
	}
	return dest
}

// completeDestinations offers destinations from the built-in and configured
// route tables.
func (c *CLI) completeDestinations(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	routes, _, err := c.newRouteSource(cmd.Context(), false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer closeSource(routes)
	dests, err := routes.Destinations(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, d := range dests {
		if strings.HasPrefix(d, toComplete) {
			out = append(out, d)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
