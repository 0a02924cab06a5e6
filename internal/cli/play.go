package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/pipeline"
	"github.com/matzehuels/packetflow/pkg/route"
)

// playCommand creates the play command for interactive terminal animation.
func (c *CLI) playCommand() *cobra.Command {
	var (
		noCache bool
		policy  string
		fps     int
	)

	cmd := &cobra.Command{
		Use:   "play [command] [destination]",
		Short: "Animate commands interactively in the terminal",
		Long: `Animate commands interactively in the terminal.

Keys issue commands for the selected destination:
  l  nslookup      p  ping        t  traceroute   i  ipconfig
  r  replay        c  clear       tab  next destination
  d  toggle legend ?  more keys   q  quit

With a command argument it is issued as soon as the player starts.`,
		Example: `  packetflow play
  packetflow play traceroute google.com`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var initial *anim.CommandType
			var dest string
			if len(args) > 0 {
				ct, err := anim.ParseCommandType(args[0])
				if err != nil {
					return err
				}
				initial = &ct
			}
			if len(args) > 1 {
				dest = args[1]
			}
			if policy == "" {
				policy = c.Config.Animation.Policy
			}
			p, err := anim.ParsePendingPolicy(policy)
			if err != nil {
				return err
			}
			if fps <= 0 {
				fps = c.Config.Animation.FPS
			}
			return c.runPlay(cmd.Context(), initial, dest, p, fps, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching of route lookups")
	cmd.Flags().StringVar(&policy, "policy", "", "pending-leg policy on new requests: keep, cancel (default from config)")
	cmd.Flags().IntVar(&fps, "fps", 0, "frames per second (default from config)")

	return cmd
}

// runPlay starts the bubbletea program until the user quits or ctx ends.
func (c *CLI) runPlay(ctx context.Context, initial *anim.CommandType, dest string, policy anim.PendingPolicy, fps int, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	dests, err := runner.Routes.Destinations(ctx)
	if err != nil {
		return fmt.Errorf("list destinations: %w", err)
	}
	cursor := 0
	if dest != "" {
		if i := slices.Index(dests, dest); i >= 0 {
			cursor = i
		} else {
			dests = append([]string{dest}, dests...)
		}
	}

	// The program owns the terminal, so session logs are dropped.
	opts := pipeline.Options{}
	c.setCLIDefaults(&opts)
	session := anim.NewSession(opts.Surface(), anim.WithPendingPolicy(policy), anim.WithLogger(newLogger(io.Discard, LogInfo)))

	resolve := func(ctx context.Context, d string) ([]route.Hop, error) {
		return runner.Resolve(ctx, pipeline.Options{Destination: d})
	}
	model := NewPlayerModel(ctx, session, dests, resolve, fps)
	model.Cursor = cursor
	if initial != nil {
		model = model.withInitial(*initial)
	}

	loggerFromContext(ctx).Debug("starting player", "destinations", len(dests), "fps", fps, "policy", policy)
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
