package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/packetflow/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts and live animation sessions over HTTP",
		Long: `Serve layouts and live animation sessions over HTTP.

Endpoints:
  GET    /healthz
  GET    /api/routes                       list destinations
  GET    /api/routes/{dest}                route hops
  GET    /api/routes/{dest}/layout         rendered topology (?format=svg|json|png|pdf|dot)
  POST   /api/sessions                     create a session
  POST   /api/sessions/{id}/requests       issue a command
  POST   /api/sessions/{id}/replay         replay the last command
  POST   /api/sessions/{id}/clear          drop live packets
  POST   /api/sessions/{id}/resize         resize the surface
  GET    /api/sessions/{id}/frame          latest frame (?format=json|svg|png|pdf)
  DELETE /api/sessions/{id}                end a session

With --watch the routes file is reloaded whenever it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache, watch || c.Config.Routes.Watch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the routes file on change")

	return cmd
}

// runServe builds the server from the loaded configuration and runs it until
// ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, addr string, noCache, watch bool) error {
	runner, err := c.newRunner(ctx, noCache, watch)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	cfg := c.Config
	srv := server.New(runner, server.Config{
		Width:       cfg.Viewport.Width,
		Height:      cfg.Viewport.Height,
		DPR:         cfg.Viewport.DPR,
		FPS:         cfg.Animation.FPS,
		Policy:      cfg.Policy(),
		SessionIdle: cfg.Server.SessionIdle.Duration,
	}, c.Logger)
	defer srv.Close()

	printInfo("Listening on %s", StyleLink.Render("http://"+addr))
	printNextStep("Try", "curl http://"+addr+"/api/routes")
	return srv.Run(ctx, addr)
}
