// Package pkg provides the core libraries for packetflow network visualization.
//
// # Overview
//
// Packetflow lays out a network route as a row of nodes and animates packets
// travelling along it, the way nslookup, ping, traceroute and ipconfig would
// move them. The pkg directory is organized into four main areas:
//
//  1. [topology] and [anim] - The layout engine and the animation scheduler
//  2. [route] - Route tables (built-in, JSON/TOML files, MongoDB)
//  3. [render] - Frame sinks and Graphviz node-link export
//  4. [pipeline] - Orchestration (resolve → layout → render) with [cache]
//
// # Architecture
//
// The typical data flow through packetflow:
//
//	Route Source (table, file, MongoDB)
//	         ↓
//	    [topology] package (place hops on a surface)
//	         ↓
//	    [anim] package (schedule legs, advance packets, emit frames)
//	         ↓
//	    [render/sink] package (SVG, JSON, PNG, PDF, terminal)
//
// # Quick Start
//
// Animate a traceroute and render one frame:
//
//	import (
//	    "github.com/matzehuels/packetflow/pkg/anim"
//	    "github.com/matzehuels/packetflow/pkg/render/sink"
//	    "github.com/matzehuels/packetflow/pkg/route"
//	    "github.com/matzehuels/packetflow/pkg/topology"
//	)
//
//	// 1. Look up the route
//	hops, _ := route.Builtin().Lookup(ctx, "example.com")
//
//	// 2. Create a session and issue the command
//	s := anim.NewSession(topology.NewSurface(800, 400, 1))
//	s.Handle(anim.Request{Type: anim.RouteTrace, Route: hops})
//
//	// 3. Advance the clock
//	f := s.Tick(1500 * time.Millisecond)
//
//	// 4. Render to SVG
//	svg := sink.RenderSVG(f)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [topology] - Places hops left to right on a drawing surface, growing the
// surface when a route does not fit, and builds the six-node default
// topology used when no route is known.
//
// [anim] - Expands requests into timed legs, keeps them on a timeline, and
// advances packets one frame per tick. [anim.Loop] runs a session on its own
// goroutine at a fixed frame rate.
//
// [route] - Route hops and sources: the built-in table, JSON and TOML files,
// a file watcher that reloads on change, and a MongoDB store.
//
// ## Visualization
//
// [render/sink] - Frame output formats (SVG, JSON, PNG, PDF, terminal).
//
// [render/nodelink] - Node-link diagrams of a topology using Graphviz.
//
// [render] - Format conversion (SVG to PDF/PNG).
//
// ## Infrastructure
//
// [pipeline] - Resolve → layout → render with per-stage caching, shared by the
// CLI and the HTTP server.
//
// [cache] - Cache interface with file, Redis and null implementations.
//
// [config] - TOML configuration file and environment overrides.
//
// [errors] - Coded errors mapped to HTTP status codes.
//
// [observability] - Hooks for scheduler, cache and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/anim/...               # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// [topology]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/topology
// [anim]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/anim
// [anim.Loop]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/anim#Loop
// [route]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/route
// [render]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/packetflow/pkg/observability
package pkg
