// Package topology lays out simulated network paths on a drawing surface.
//
// # Overview
//
// A route is an ordered list of [route.Hop] values. [Layout] turns it into a
// [Graph]: node 0 is always the local machine ("self"), nodes 1..n are the
// hops in traversal order, and consecutive nodes are joined by exactly one
// edge. Nodes are spread left to right with a fixed margin on each side and
// alternate above and below the centre line (the zig-zag) so that labels of
// neighbouring hops never collide, however long the route is.
//
// When no hops are supplied, [Layout] falls back to the fixed six-node
// default topology returned by [Default]:
//
//	pc ── router1 ── isp ──┬── router2 ── server
//	                       └── dns
//
// # Spacing
//
// The ideal gap between neighbouring nodes is 120 logical pixels and the
// minimum is 90. If the route does not fit the surface at the ideal gap, the
// [Surface] is widened (it never shrinks) and the gap is then clamped into
// [MinSpacing, IdealSpacing].
//
// # Classification
//
// Each hop is given an icon, colour and short label by matching its name
// against keyword groups in a fixed priority order (home router, ISP gateway,
// exchange point, backbone, edge/CDN). The last hop falls back to the
// destination category; every other unmatched hop is a generic router.
//
// Layout is a pure function apart from widening the surface. Graphs are
// rebuilt from scratch on every pass and never mutated afterwards.
//
// [route.Hop]: github.com/matzehuels/packetflow/pkg/route.Hop
package topology
