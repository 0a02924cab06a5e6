package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/packetflow/pkg/cache"
	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators, so multiple
// goroutines can share one Runner with different options.
type Runner struct {
	Routes route.Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// SourceName scopes cached route lookups. Leave it empty to skip caching
	// lookups, which is right for in-memory tables.
	SourceName string

	// ArtifactTTL overrides how long layouts and rendered artifacts are
	// cached. Zero means cache.TTLLayout and cache.TTLArtifact.
	ArtifactTTL time.Duration
}

// NewRunner creates a runner.
// If routes is nil, the built-in table is used.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(routes route.Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if routes == nil {
		routes = route.Builtin()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Routes: routes,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete resolve → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	result := &Result{}

	// Stage 1: Resolve
	resolveStart := time.Now()
	hops, resolveHit, err := r.ResolveWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Hops = hops
	result.RouteHash = RouteHash(hops)
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Stats.HopCount = len(hops)
	result.CacheInfo.ResolveHit = resolveHit

	logger.Debug("resolved route",
		"destination", describe(opts.Destination),
		"hops", len(hops),
		"cached", resolveHit)

	// Stage 2: Layout
	layoutStart := time.Now()
	g, layoutHit, err := r.LayoutWithCacheInfo(ctx, hops, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Graph = g
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Width = g.Width
	result.CacheInfo.LayoutHit = layoutHit

	logger.Info("computed layout",
		"nodes", len(g.Nodes),
		"width", g.Width,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"view", opts.View,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ResolveWithCacheInfo looks the destination up and reports whether the hops
// came from the cache. An empty destination resolves to no hops.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, opts Options) ([]route.Hop, bool, error) {
	if err := opts.ValidateForResolve(); err != nil {
		return nil, false, err
	}
	if opts.Destination == "" {
		return nil, false, nil
	}

	var cacheKey string
	if r.SourceName != "" {
		cacheKey = r.Keyer.RouteKey(r.SourceName, opts.Destination)
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				var hops []route.Hop
				if err := json.Unmarshal(data, &hops); err == nil {
					return hops, true, nil
				}
			}
		}
	}

	hops, err := r.Routes.Lookup(ctx, opts.Destination)
	if err != nil {
		return nil, false, err
	}

	if cacheKey != "" {
		if data, err := json.Marshal(hops); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLRoute)
		}
	}
	return hops, false, nil
}

// Resolve is a convenience wrapper that discards the cache hit info.
func (r *Runner) Resolve(ctx context.Context, opts Options) ([]route.Hop, error) {
	hops, _, err := r.ResolveWithCacheInfo(ctx, opts)
	return hops, err
}

// LayoutWithCacheInfo lays out hops with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, hops []route.Hop, opts Options) (topology.Graph, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return topology.Graph{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(RouteHash(hops), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached topology.Graph
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, true, nil
			}
			// Undecodable entries fall through to recompute.
		}
	}

	g := Layout(hops, opts)

	if data, err := json.Marshal(g); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLLayout))
	}
	return g, false, nil
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, hops []route.Hop, opts Options) (topology.Graph, error) {
	g, _, err := r.LayoutWithCacheInfo(ctx, hops, opts)
	return g, err
}

// RenderWithCacheInfo renders artifacts with caching and returns cache hit
// info. The hit flag is set only when every format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g topology.Graph, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutHash, err := LayoutHash(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if opts.Refresh {
			missing = append(missing, format)
			continue
		}
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			missing = append(missing, format)
		}
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(g, renderOpts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLArtifact))
		artifacts[format] = data
	}
	return artifacts, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g topology.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// Close releases resources held by the runner: the cache, and the route
// source when it holds a connection or a file watch.
func (r *Runner) Close() error {
	var errs []error
	if c, ok := r.Routes.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	return errors.Join(errs...)
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.ArtifactTTL > 0 {
		return r.ArtifactTTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
