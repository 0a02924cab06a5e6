// Package pipeline resolves a destination to a route, lays it out and
// renders it, caching each stage.
//
// This is the static half of packetflow: the `layout` command and the
// server's layout endpoint both go through a [Runner], so a destination
// rendered once at a given viewport is served from cache afterwards.
//
// # Stages
//
//  1. Resolve: look the destination up in a [route.Source]
//  2. Layout: place the hops on a surface with [topology.Layout]
//  3. Render: produce artifacts in the requested formats, either as a
//     packet-free animation frame or as a Graphviz node-link diagram
//
// # Usage
//
//	runner := pipeline.NewRunner(routes, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Destination: "example.com",
//	    Formats:     []string{"svg", "json"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/packetflow/pkg/cache"
	pferrors "github.com/matzehuels/packetflow/pkg/errors"
	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default viewport width in logical pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default viewport height in logical pixels.
	DefaultHeight = 400.0

	// DefaultDPR is the default device pixel ratio.
	DefaultDPR = 1.0
)

// Views select how a laid-out route is drawn.
const (
	// ViewFrame draws the topology the way the animation does, without packets.
	ViewFrame = "frame"
	// ViewNodelink draws the topology with Graphviz.
	ViewNodelink = "nodelink"
)

// DefaultView is the default rendering view.
const DefaultView = ViewFrame

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats lists the formats each view accepts.
var ValidFormats = map[string][]string{
	ViewFrame:    {FormatSVG, FormatJSON, FormatPNG, FormatPDF},
	ViewNodelink: {FormatSVG, FormatJSON, FormatPNG, FormatPDF, FormatDOT},
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Resolve options. An empty destination renders the default topology.
	Destination string `json:"destination,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"`

	// Layout options
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	DPR    float64 `json:"dpr,omitempty"`

	// Render options
	View     string   `json:"view,omitempty"`
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // host names on frames, full labels on node-link
	Pinned   bool     `json:"pinned,omitempty"`   // node-link keeps laid-out positions

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Hops is the resolved route, empty for the default topology.
	Hops []route.Hop

	// RouteHash is the content hash of the route.
	RouteHash string

	// Graph is the laid-out topology.
	Graph topology.Graph

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	HopCount    int
	Width       float64
	ResolveTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ResolveHit bool
	LayoutHit  bool
	RenderHit  bool // all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateView checks that a view is known.
func ValidateView(view string) error {
	if _, ok := ValidFormats[view]; !ok {
		return pferrors.New(pferrors.ErrCodeInvalidInput, "invalid view: %q (must be one of: frame, nodelink)", view)
	}
	return nil
}

// ValidateFormat checks that format is supported by view.
func ValidateFormat(view, format string) error {
	if !slices.Contains(ValidFormats[view], format) {
		return pferrors.New(pferrors.ErrCodeInvalidFormat, "invalid format for %s view: %q (must be one of: %s)",
			view, format, strings.Join(ValidFormats[view], ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are supported by view.
func ValidateFormats(view string, formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(view, f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for a full run.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// ValidateForResolve checks the destination.
func (o *Options) ValidateForResolve() error {
	if o.Destination != "" {
		if err := pferrors.ValidateDestination(o.Destination); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults fills in the viewport.
func (o *Options) SetLayoutDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.DPR <= 0 {
		o.DPR = DefaultDPR
	}
	o.setLogger()
}

// ValidateForLayout sets layout defaults. Any positive viewport is valid.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return nil
}

// SetRenderDefaults fills in the view and formats.
func (o *Options) SetRenderDefaults() {
	if o.View == "" {
		o.View = DefaultView
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.setLogger()
}

// ValidateForRender sets defaults and checks the view and formats.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateView(o.View); err != nil {
		return err
	}
	return ValidateFormats(o.View, o.Formats)
}

// IsNodelink reports whether the run renders a Graphviz diagram.
func (o *Options) IsNodelink() bool {
	return o.View == ViewNodelink
}

// Surface returns a fresh surface for the configured viewport.
func (o *Options) Surface() *topology.Surface {
	return topology.NewSurface(o.Width, o.Height, o.DPR)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{Width: o.Width, Height: o.Height}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:   format,
		View:     o.View,
		DPR:      o.DPR,
		Detailed: o.Detailed,
	}
	if o.IsNodelink() && o.Pinned {
		opts.View = ViewNodelink + "-pinned"
	}
	return opts
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// describe names the destination for log lines.
func describe(dest string) string {
	if dest == "" {
		return "(default topology)"
	}
	return dest
}
