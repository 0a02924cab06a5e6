// Package cache stores rendered layout artifacts between runs.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// a shared server deployment and [NullCache] when caching is disabled. Keys
// come from a [Keyer] so that scoping (see [ScopedKeyer]) stays independent of
// the backend.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/packetflow/pkg/observability"
)

// Default lifetimes for cached entries.
const (
	TTLRoute    = 10 * time.Minute
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
// Get reports a miss with hit == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts are the inputs that change a computed layout besides the route.
type LayoutKeyOpts struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	View     string  `json:"view"`
	DPR      float64 `json:"dpr"`
	Detailed bool    `json:"detailed,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// RouteKey identifies a destination's hop list in a named source.
	RouteKey(source, dest string) string
	// LayoutKey identifies a layout of the route with the given hash.
	LayoutKey(routeHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies a rendering of the layout with the given hash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RouteKey returns "route:<source>:<dest>".
func (DefaultKeyer) RouteKey(source, dest string) string {
	return "route:" + source + ":" + dest
}

// LayoutKey hashes the route hash together with the viewport.
func (DefaultKeyer) LayoutKey(routeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", routeHash, opts)
}

// ArtifactKey hashes the layout hash together with the render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Observe wraps c so that reads and writes report to the registered cache
// hooks under the given key type.
func Observe(c Cache, label string) Cache {
	if c == nil {
		return nil
	}
	return &observed{Cache: c, label: label}
}

type observed struct {
	Cache
	label string
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := o.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, o.label)
		} else {
			observability.Cache().OnCacheMiss(ctx, o.label)
		}
	}
	return data, hit, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := o.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, o.label, len(data))
	return nil
}
