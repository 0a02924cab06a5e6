package pipeline

import (
	"fmt"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/render/nodelink"
	"github.com/matzehuels/packetflow/pkg/render/sink"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// Render generates output artifacts in the requested formats.
func Render(g topology.Graph, opts Options) (map[string][]byte, error) {
	if opts.IsNodelink() {
		return renderNodelink(g, opts)
	}
	return renderFrame(g, opts)
}

// renderFrame draws the graph as an animation frame with no packets in flight.
func renderFrame(g topology.Graph, opts Options) (map[string][]byte, error) {
	f := anim.Frame{Graph: g, DPR: opts.DPR}
	var svgOpts []sink.SVGOption
	if !opts.Detailed {
		svgOpts = append(svgOpts, sink.WithoutDetail())
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(f, svgOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(f)
		case FormatPNG:
			data, err = sink.RenderPNG(f, sink.WithPNGSVGOptions(svgOpts...))
		case FormatPDF:
			data, err = sink.RenderPDF(f, sink.WithPDFSVGOptions(svgOpts...))
		default:
			return nil, fmt.Errorf("unsupported frame format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderNodelink draws the graph with Graphviz. The DOT source is built once
// and shared by every format.
func renderNodelink(g topology.Graph, opts Options) (map[string][]byte, error) {
	nlOpts := nodelink.Options{Detailed: opts.Detailed, Pinned: opts.Pinned}
	dot := nodelink.ToDOT(g, nlOpts)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(dot, nlOpts)
		case FormatPNG:
			data, err = nodelink.RenderPNG(dot, nlOpts, 2.0*opts.DPR)
		case FormatPDF:
			data, err = nodelink.RenderPDF(dot, nlOpts)
		case FormatJSON:
			data, err = sink.RenderGraphJSON(g, opts.DPR)
		default:
			return nil, fmt.Errorf("unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
