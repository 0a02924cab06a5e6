// Package cli implements the packetflow command-line interface.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/packetflow/pkg/buildinfo"
	"github.com/matzehuels/packetflow/pkg/cache"
	"github.com/matzehuels/packetflow/pkg/config"
	"github.com/matzehuels/packetflow/pkg/observability"
	"github.com/matzehuels/packetflow/pkg/pipeline"
	"github.com/matzehuels/packetflow/pkg/route"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// mongoSourceName scopes cached lookups against a Mongo route store.
	mongoSourceName = "mongo"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded in the root command's PersistentPreRunE.
	Config *config.Config

	configPath string
	routesFile string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level. Debug level also registers logging
// observability hooks so scheduler and cache events show up with -v.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Packetflow animates network packets along real routes",
		Long: `Packetflow lays out network routes as node graphs and animates packets
travelling along them for lookup, ping, traceroute and local-config commands.

Frames can be written to disk, played in the terminal, or served over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/packetflow/config.toml)")
	root.PersistentFlags().StringVar(&c.routesFile, "routes", "", "route table file (JSON or TOML), merged over the built-in routes")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.routesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and environment, then applies flag
// overrides that are shared by every command.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.routesFile != "" {
		cfg.Routes.File = c.routesFile
	}
	c.Config = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "routes", cfg.Routes.File, "mongo", cfg.Mongo.URI != "", "redis", cfg.Redis.Addr)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. With watch set and a routes
// file configured, the table is reloaded when the file changes until ctx ends.
func (c *CLI) newRunner(ctx context.Context, noCache, watch bool) (*pipeline.Runner, error) {
	routes, sourceName, err := c.newRouteSource(ctx, watch)
	if err != nil {
		return nil, err
	}
	ch, keyer, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(routes, cache.Observe(ch, cacheLabel(ch)), keyer, c.Logger)
	runner.SourceName = sourceName
	runner.ArtifactTTL = c.Config.Cache.TTL.Duration
	return runner, nil
}

// newRouteSource picks Mongo when a URI is configured, otherwise the built-in
// table merged with the routes file.
func (c *CLI) newRouteSource(ctx context.Context, watch bool) (route.Source, string, error) {
	cfg := c.Config
	if cfg.Mongo.URI != "" {
		store, err := route.NewMongoStore(ctx, c.mongoConfig())
		if err != nil {
			return nil, "", err
		}
		c.Logger.Debug("using mongo route store", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		return store, mongoSourceName, nil
	}
	if watch && cfg.Routes.File != "" {
		w, err := route.Watch(ctx, cfg.Routes.File, c.Logger)
		if err != nil {
			return nil, "", err
		}
		c.Logger.Debug("watching route table", "file", cfg.Routes.File)
		return w, "", nil
	}
	table, err := route.Load(cfg.Routes.File)
	if err != nil {
		return nil, "", err
	}
	return table, "", nil
}

func (c *CLI) mongoConfig() route.MongoConfig {
	return route.MongoConfig{
		URI:        c.Config.Mongo.URI,
		Database:   c.Config.Mongo.Database,
		Collection: c.Config.Mongo.Collection,
		Timeout:    c.Config.Mongo.Timeout.Duration,
	}
}

// newCache returns Redis when an address is configured, the file cache
// otherwise, and a NullCache when caching is off.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	cfg := c.Config
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil, nil
	}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rc, cache.NewScopedKeyer(nil, cfg.Redis.Prefix), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache directory unavailable, caching disabled", "error", err)
		return cache.NewNullCache(), nil, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return fc, nil, nil
}

func cacheLabel(c cache.Cache) string {
	switch c.(type) {
	case *cache.RedisCache:
		return "redis"
	case *cache.FileCache:
		return "file"
	default:
		return "null"
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default
// (~/.cache/packetflow/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config != nil && c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return config.CacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// setCLIDefaults fills pipeline options from the loaded configuration.
func (c *CLI) setCLIDefaults(opts *pipeline.Options) {
	if opts.Width <= 0 {
		opts.Width = c.Config.Viewport.Width
	}
	if opts.Height <= 0 {
		opts.Height = c.Config.Viewport.Height
	}
	if opts.DPR <= 0 {
		opts.DPR = c.Config.Viewport.DPR
	}
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// registerLogHooks routes scheduler, cache and HTTP events into the debug log.
func registerLogHooks(l *log.Logger) {
	h := &logHooks{logger: l}
	observability.SetSchedulerHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(&httpLogHooks{logger: l})
}
