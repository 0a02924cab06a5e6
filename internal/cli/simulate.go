package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/packetflow/pkg/anim"
	pferrors "github.com/matzehuels/packetflow/pkg/errors"
	"github.com/matzehuels/packetflow/pkg/pipeline"
	"github.com/matzehuels/packetflow/pkg/render/sink"
	"github.com/matzehuels/packetflow/pkg/route"
)

const (
	defaultSimFrames = 600
	defaultSimEvery  = 10
)

// simulation controls an offline run of a session against a virtual clock.
type simulation struct {
	FPS    int  // virtual frames per second
	Frames int  // upper bound on ticks
	Every  int  // emit every n-th frame
	Replay bool // replay the request once it has finished
}

// simSummary reports what a simulation did.
type simSummary struct {
	Ticks      int
	Emitted    int
	Replayed   bool
	MaxPackets int
	Elapsed    time.Duration
}

// simulateCommand creates the simulate command for writing frame snapshots.
func (c *CLI) simulateCommand() *cobra.Command {
	var (
		out        string
		formatsStr string
		policy     string
		width      float64
		height     float64
		dpr        float64
		noCache    bool
		planOnly   bool
	)
	sim := simulation{Frames: defaultSimFrames, Every: defaultSimEvery}

	cmd := &cobra.Command{
		Use:   "simulate <command> [destination]",
		Short: "Run a command against a virtual clock and write frames",
		Long: `Run a command against a virtual clock and write frame snapshots.

The command is one of nslookup, ping, traceroute or ipconfig (and their
aliases). Ping and traceroute follow the route to the destination when one is
given; the other commands always use the default topology.

The session is ticked at --fps without waiting in real time, and every
--every-th frame is written to --out. The run stops once all packets have
arrived, or after --frames ticks.`,
		Example: `  packetflow simulate traceroute google.com --every 5
  packetflow simulate ping github.com -f svg,json --out frames/github
  packetflow simulate nslookup --plan`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeSimulateArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := anim.ParseCommandType(args[0])
			if err != nil {
				return err
			}
			var dest string
			if len(args) == 2 {
				dest = args[1]
			}
			if err := pferrors.ValidatePath(out); err != nil {
				return err
			}
			formats, err := parseFrameFormats(formatsStr)
			if err != nil {
				return err
			}
			if sim.FPS <= 0 {
				sim.FPS = c.Config.Animation.FPS
			}
			if policy == "" {
				policy = c.Config.Animation.Policy
			}
			p, err := anim.ParsePendingPolicy(policy)
			if err != nil {
				return err
			}
			opts := pipeline.Options{Destination: dest, Width: width, Height: height, DPR: dpr}
			c.setCLIDefaults(&opts)
			return c.runSimulate(cmd.Context(), ct, opts, p, sim, formats, out, noCache, planOnly)
		},
	}

	cmd.Flags().StringVar(&out, "out", "frames", "output directory for frame snapshots")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "svg", "frame formats, comma separated: svg, json, png, pdf")
	cmd.Flags().IntVar(&sim.Frames, "frames", sim.Frames, "maximum number of ticks")
	cmd.Flags().IntVar(&sim.Every, "every", sim.Every, "write every n-th frame")
	cmd.Flags().IntVar(&sim.FPS, "fps", 0, "virtual frames per second (default from config)")
	cmd.Flags().BoolVar(&sim.Replay, "replay", false, "replay the request once after it finishes")
	cmd.Flags().StringVar(&policy, "policy", "", "pending-leg policy on new requests: keep, cancel (default from config)")
	cmd.Flags().Float64Var(&width, "width", 0, "surface width in logical pixels (default from config)")
	cmd.Flags().Float64Var(&height, "height", 0, "surface height in logical pixels (default from config)")
	cmd.Flags().Float64Var(&dpr, "dpr", 0, "device pixel ratio (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching of route lookups")
	cmd.Flags().BoolVar(&planOnly, "plan", false, "print the leg plan and exit")

	return cmd
}

// runSimulate resolves the route, prints the plan and writes the frames.
func (c *CLI) runSimulate(ctx context.Context, ct anim.CommandType, opts pipeline.Options, policy anim.PendingPolicy,
	sim simulation, formats []string, out string, noCache, planOnly bool) error {
	req := anim.Request{Type: ct}
	if ct.UsesRoute() && opts.Destination != "" {
		hops, err := c.resolve(ctx, opts, noCache)
		if err != nil {
			return err
		}
		req.Route = hops
	}

	surface := opts.Surface()
	plan, err := anim.Plan(req, *surface)
	if err != nil {
		return err
	}
	printInfo("%s %s", StyleHighlight.Render(string(ct)), destinationLabel(opts.Destination))
	fmt.Println(legTable(plan.Legs))
	if planOnly {
		return nil
	}

	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	session := anim.NewSession(surface, anim.WithPendingPolicy(policy), anim.WithLogger(c.Logger))
	session.Handle(req)

	p := newProgress(c.Logger)
	summary, err := runSimulation(ctx, session, sim, func(i int, f anim.Frame) error {
		for _, format := range formats {
			data, err := sink.Render(f, format)
			if err != nil {
				return fmt.Errorf("render frame %d: %w", i, err)
			}
			path := filepath.Join(out, fmt.Sprintf("frame-%05d.%s", i, format))
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("write frame %s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Simulated %d ticks", summary.Ticks))

	printSuccess("Simulation complete")
	printFile(out)
	printKeyValue("Frames", fmt.Sprintf("%d written of %d ticks", summary.Emitted, summary.Ticks))
	printKeyValue("Duration", summary.Elapsed.String())
	printKeyValue("Peak", fmt.Sprintf("%d packets", summary.MaxPackets))
	if summary.Replayed {
		printDetail("request replayed once")
	}
	return nil
}

// simulateCommandNames are the shell names offered for the first argument.
var simulateCommandNames = []string{"nslookup", "ping", "traceroute", "ipconfig"}

// completeSimulateArgs completes the command name, then a destination.
func (c *CLI) completeSimulateArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		var out []string
		for _, name := range simulateCommandNames {
			if strings.HasPrefix(name, toComplete) {
				out = append(out, name)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
	return c.completeDestinations(cmd, args[1:], toComplete)
}

// resolve looks up the route for opts.Destination through a runner.
func (c *CLI) resolve(ctx context.Context, opts pipeline.Options, noCache bool) ([]route.Hop, error) {
	runner, err := c.newRunner(ctx, noCache, false)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	return runner.Resolve(ctx, opts)
}

// runSimulation ticks s at sim.FPS on a virtual clock, calling emit for every
// sim.Every-th frame and for the last one. It stops when the session has no
// packets and nothing pending, or after sim.Frames ticks.
func runSimulation(ctx context.Context, s *anim.Session, sim simulation, emit func(int, anim.Frame) error) (simSummary, error) {
	if sim.FPS <= 0 {
		sim.FPS = anim.DefaultFPS
	}
	if sim.Every <= 0 {
		sim.Every = 1
	}
	step := time.Second / time.Duration(sim.FPS)
	start := s.Now()

	var sum simSummary
	var last anim.Frame
	lastEmitted := -1
	for i := 0; i < sim.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		f := s.Tick(start + time.Duration(i)*step)
		last = f
		sum.Ticks = i + 1
		sum.MaxPackets = max(sum.MaxPackets, len(f.Sprites))

		if i%sim.Every == 0 {
			if err := emit(i, f); err != nil {
				return sum, err
			}
			sum.Emitted++
			lastEmitted = i
		}

		if i > 0 && f.Empty() && f.Pending == 0 {
			if sim.Replay && !sum.Replayed && s.HasReplay() {
				s.Replay()
				sum.Replayed = true
				continue
			}
			break
		}
	}
	if sum.Ticks > 0 && lastEmitted != sum.Ticks-1 {
		if err := emit(sum.Ticks-1, last); err != nil {
			return sum, err
		}
		sum.Emitted++
	}
	sum.Elapsed = last.Now - start
	return sum, nil
}

// parseFrameFormats parses and validates a comma-separated list of frame formats.
func parseFrameFormats(s string) ([]string, error) {
	raw := parseFormats(s)
	formats := make([]string, 0, len(raw))
	for _, f := range raw {
		format, err := sink.ParseFormat(f)
		if err != nil {
			return nil, err
		}
		formats = append(formats, format)
	}
	return formats, nil
}

// legTable renders a leg plan as a table.
func legTable(legs []anim.Leg) string {
	rows := make([][]string, len(legs))
	for i, leg := range legs {
		nodes := len(leg.Route)
		if nodes == 0 {
			nodes = len(leg.Keys)
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			leg.Offset.String(),
			string(leg.Direction),
			strconv.Itoa(nodes),
			strconv.FormatFloat(leg.Speed, 'f', 1, 64),
			leg.Color,
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Start", "Direction", "Nodes", "Speed", "Colour").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 5 && row >= 0 && row < len(legs) {
				return lipgloss.NewStyle().Foreground(lipgloss.Color(legs[row].Color))
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
