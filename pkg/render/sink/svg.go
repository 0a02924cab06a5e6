package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// Drawing constants in logical pixels.
const (
	edgeColor       = "#cbd5e0"
	edgeWidth       = 2.0
	nodeRadius      = 20.0
	nodeStrokeWidth = 3.0
	labelAbove      = 28.0
	labelBelow      = 38.0
	detailGap       = 13.0
	labelColor      = "#2d3748"
	detailColor     = "#718096"
	packetRadius    = 8.0
	packetStroke    = 2.0
	glowRadius      = 15.0

	fontFamily = `-apple-system, 'Segoe UI', Helvetica, Arial, sans-serif`
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	background string
	title      string
	detail     bool
	packets    bool
}

// WithBackground fills the canvas with the given colour.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithTitle adds a <title> element.
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// WithoutDetail omits the host-name line under node labels.
func WithoutDetail() SVGOption { return func(r *svgRenderer) { r.detail = false } }

// WithoutPackets draws only the static topology.
func WithoutPackets() SVGOption { return func(r *svgRenderer) { r.packets = false } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{detail: true, packets: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws a frame: edges, then nodes, then packets in frame order.
// The width and height attributes are in device pixels and the viewBox in
// logical pixels, so strokes and text stay crisp at any pixel ratio.
func RenderSVG(f anim.Frame, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	g := f.Graph
	dpr := f.DPR
	if dpr < 1 {
		dpr = 1
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		g.Width, g.Height, g.Width*dpr, g.Height*dpr)

	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(r.title))
	}
	if r.packets {
		renderGlowDefs(&buf, f.Sprites)
	}
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.background)
	}

	renderEdges(&buf, g)
	for _, n := range g.Nodes {
		renderNode(&buf, n, g.Height/2, r.detail)
	}
	if r.packets {
		for _, s := range f.Sprites {
			renderPacket(&buf, s)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// RenderGraphSVG draws a topology without packets.
func RenderGraphSVG(g topology.Graph, dpr float64, opts ...SVGOption) []byte {
	return RenderSVG(anim.Frame{Graph: g, DPR: dpr}, opts...)
}

func renderEdges(buf *bytes.Buffer, g topology.Graph) {
	for _, e := range g.Edges {
		if e.From < 0 || e.To < 0 || e.From >= len(g.Nodes) || e.To >= len(g.Nodes) {
			continue
		}
		a, b := g.Nodes[e.From], g.Nodes[e.To]
		fmt.Fprintf(buf, `  <line class="edge" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.0f"/>`+"\n",
			a.X, a.Y, b.X, b.Y, edgeColor, edgeWidth)
	}
}

// labelY places labels below nodes in the lower half and above otherwise.
func labelY(n topology.Node, centerY float64) float64 {
	if n.Y > centerY {
		return n.Y + labelBelow
	}
	return n.Y - labelAbove
}

func renderNode(buf *bytes.Buffer, n topology.Node, centerY float64, detail bool) {
	fmt.Fprintf(buf, `  <g class="node node-%s" id="node-%s">`+"\n", n.Kind, escape(n.Key))
	fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.0f" fill="%s" stroke="#fff" stroke-width="%.0f"/>`+"\n",
		n.X, n.Y, nodeRadius, n.Color, nodeStrokeWidth)

	if n.HopNumber > 0 {
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="11" font-weight="bold" fill="#fff">%d</text>`+"\n",
			n.X, n.Y, fontFamily, n.HopNumber)
	}

	ly := labelY(n, centerY)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="12" font-weight="bold" fill="%s">%s</text>`+"\n",
		n.X, ly, fontFamily, labelColor, escape(n.Label))

	if detail && n.FullLabel != "" && n.FullLabel != n.Label {
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="9" fill="%s">%s</text>`+"\n",
			n.X, ly+detailGap, fontFamily, detailColor, escape(topology.TruncateLabel(n.FullLabel)))
	}
	buf.WriteString("  </g>\n")
}

func renderPacket(buf *bytes.Buffer, s anim.Sprite) {
	fmt.Fprintf(buf, `  <circle class="packet %s" cx="%.1f" cy="%.1f" r="%.0f" fill="%s" stroke="#fff" stroke-width="%.0f"/>`+"\n",
		s.Direction, s.X, s.Y, packetRadius, s.Color, packetStroke)
	fmt.Fprintf(buf, `  <circle class="glow" cx="%.1f" cy="%.1f" r="%.0f" fill="url(#%s)"/>`+"\n",
		s.X, s.Y, glowRadius, glowID(s.Color))
}

// renderGlowDefs emits one radial gradient per packet colour, fading from
// two-thirds opacity to transparent.
func renderGlowDefs(buf *bytes.Buffer, sprites []anim.Sprite) {
	var colors []string
	for _, s := range sprites {
		if !slices.Contains(colors, s.Color) {
			colors = append(colors, s.Color)
		}
	}
	if len(colors) == 0 {
		return
	}
	buf.WriteString("  <defs>\n")
	for _, c := range colors {
		fmt.Fprintf(buf, `    <radialGradient id="%s"><stop offset="0" stop-color="%s" stop-opacity="0.67"/><stop offset="1" stop-color="%s" stop-opacity="0"/></radialGradient>`+"\n",
			glowID(c), c, c)
	}
	buf.WriteString("  </defs>\n")
}

func glowID(color string) string {
	return "glow-" + strings.TrimPrefix(color, "#")
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
