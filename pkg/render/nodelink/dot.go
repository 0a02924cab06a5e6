package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/packetflow/pkg/render"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds host name, address and latency to node labels.
	// When false, only the short label is shown.
	Detailed bool

	// Pinned fixes every node at its laid-out position and renders with
	// neato. When false, Graphviz lays the route out left to right.
	Pinned bool
}

// pointsPerInch converts logical pixels to Graphviz positions.
const pointsPerInch = 72.0

// ToDOT converts a laid-out topology to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Node colours follow the topology's categories. With [Options.Pinned],
// positions are emitted with the y axis flipped, since Graphviz grows
// upwards.
func ToDOT(g topology.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	if opts.Pinned {
		fmt.Fprintf(&buf, "  inputscale=%.0f;\n", pointsPerInch)
		buf.WriteString("  notranslate=true;\n")
	} else {
		buf.WriteString("  rankdir=LR;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontcolor=white, fontsize=11, width=0.55, fixedsize=true];\n")
	buf.WriteString("  edge [color=\"#cbd5e0\", penwidth=2];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := fmtAttrs(n, opts, g.Height)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if e.From < 0 || e.To < 0 || e.From >= len(g.Nodes) || e.To >= len(g.Nodes) {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q;\n", g.Nodes[e.From].Key, g.Nodes[e.To].Key)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n topology.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}
	parts := []string{n.Label}
	if n.FullLabel != "" && n.FullLabel != n.Label {
		parts = append(parts, n.FullLabel)
	}
	if n.IP != "" {
		parts = append(parts, fmt.Sprintf("%s %.1f ms", n.IP, n.Time))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n topology.Node, opts Options, height float64) []string {
	attrs := []string{
		fmt.Sprintf("xlabel=%q", fmtLabel(n, opts.Detailed)),
		fmt.Sprintf("fillcolor=%q", n.Color),
		"color=white",
	}
	if n.HopNumber > 0 {
		attrs = append(attrs, fmt.Sprintf("label=%q", strconv.Itoa(n.HopNumber)))
	} else {
		attrs = append(attrs, `label=""`)
	}
	if opts.Pinned {
		attrs = append(attrs, fmt.Sprintf("pos=\"%.1f,%.1f!\"", n.X, height-n.Y))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string, opts Options) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	if opts.Pinned {
		gv.SetLayout(graphviz.NEATO)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string, opts Options) ([]byte, error) {
	svg, err := RenderSVG(dot, opts)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, opts Options, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot, opts)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
