// Package nodelink exports laid-out topologies as Graphviz node-link diagrams.
//
// # Usage
//
// Convert a topology to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Pinned: true})
//	svg, err := nodelink.RenderSVG(dot, nodelink.Options{Pinned: true})
//
// # Options
//
//   - Detailed: labels carry host name, address and latency
//   - Pinned: nodes keep the zig-zag positions computed by the layout engine
//     and Graphviz only routes edges and places labels (neato)
//
// Without pinning, Graphviz arranges the route itself, left to right.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
