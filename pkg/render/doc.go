// Package render turns animation frames and laid-out topologies into
// images and documents.
//
// # Overview
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Frame sinks: SVG, JSON, PNG, PDF and terminal output (in [sink])
//   - Node-link export of a topology through Graphviz (in [nodelink])
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg := sink.RenderSVG(frame)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 1.0)
//
// # Node-Link Diagrams
//
//	dot := nodelink.ToDOT(graph, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// [sink]: github.com/matzehuels/packetflow/pkg/render/sink
// [nodelink]: github.com/matzehuels/packetflow/pkg/render/nodelink
package render
