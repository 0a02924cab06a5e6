package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/packetflow/pkg/route"
)

// routesCommand creates the routes command for inspecting the route table.
func (c *CLI) routesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List known destinations and their hop counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoutes(cmd.Context())
		},
	}

	cmd.AddCommand(c.routesShowCommand())
	cmd.AddCommand(c.routesImportCommand())

	return cmd
}

// routesShowCommand creates the "routes show" subcommand.
func (c *CLI) routesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show <destination>",
		Short:             "Print the hops of one route",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDestinations,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			routes, _, err := c.newRouteSource(ctx, false)
			if err != nil {
				return err
			}
			defer closeSource(routes)

			hops, err := routes.Lookup(ctx, args[0])
			if err != nil {
				return err
			}
			printInfo("%s %s", StyleHighlight.Render(args[0]), StyleDim.Render(fmt.Sprintf("(%d hops)", len(hops))))
			for i, h := range hops {
				printKeyValue(strconv.Itoa(i+1), fmt.Sprintf("%-16s %-40s %6.1f ms", h.IP, h.Name, h.Time))
			}
			return nil
		},
	}
}

// routesImportCommand creates the "routes import" subcommand.
func (c *CLI) routesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a route table file into the configured MongoDB collection",
		Long: `Import a route table file (JSON or TOML) into MongoDB.

Requires [mongo] uri in the config file or PACKETFLOW_MONGO_URI. Existing
routes for the same destinations are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoutesImport(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runRoutes(ctx context.Context) error {
	routes, _, err := c.newRouteSource(ctx, false)
	if err != nil {
		return err
	}
	defer closeSource(routes)

	dests, err := routes.Destinations(ctx)
	if err != nil {
		return fmt.Errorf("list destinations: %w", err)
	}
	if len(dests) == 0 {
		printInfo("No routes")
		return nil
	}

	rows := make([][]string, 0, len(dests))
	for _, d := range dests {
		hops, err := routes.Lookup(ctx, d)
		if err != nil {
			return err
		}
		last := ""
		if len(hops) > 0 {
			last = hops[len(hops)-1].IP
		}
		rows = append(rows, []string{d, strconv.Itoa(len(hops)), last})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Destination", "Hops", "Address").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 1:
				return StyleNumber
			case col == 2:
				return StyleDim
			}
			return StyleValue
		})
	fmt.Println(t.Render())
	printNextStep("Animate", appName+" play traceroute "+dests[0])
	return nil
}

func (c *CLI) runRoutesImport(ctx context.Context, path string) error {
	if c.Config.Mongo.URI == "" {
		return fmt.Errorf("routes import: no MongoDB configured (set [mongo] uri or PACKETFLOW_MONGO_URI)")
	}
	table, err := route.LoadFile(path)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Connecting to MongoDB...")
	spinner.Start()
	store, err := route.NewMongoStore(ctx, c.mongoConfig())
	if err != nil {
		spinner.StopWithError("Connection failed")
		return err
	}
	defer store.Close()

	spinner.SetMessage(fmt.Sprintf("Importing %d routes...", len(table)))
	if err := store.Import(ctx, table); err != nil {
		spinner.StopWithError("Import failed")
		return fmt.Errorf("import routes: %w", err)
	}
	spinner.StopWithSuccess(fmt.Sprintf("Imported %d routes", len(table)))
	printDetail("Database: %s.%s", c.Config.Mongo.Database, c.Config.Mongo.Collection)
	return nil
}

// closeSource closes route sources that hold a connection or a file watch.
func closeSource(s route.Source) {
	if closer, ok := s.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
