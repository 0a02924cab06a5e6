package topology

import (
	"slices"

	"github.com/matzehuels/packetflow/pkg/route"
)

// Layout constants in logical pixels.
const (
	MarginLeft     = 50.0
	MarginRight    = 50.0
	IdealSpacing   = 120.0
	MinSpacing     = 90.0
	VerticalOffset = 70.0
)

// Edge joins two nodes of a graph by index.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Graph is a laid-out topology. For a route graph, Nodes[0] is the local
// machine and Edges join consecutive nodes. The default topology has its own
// fixed edge set and Default set to true.
type Graph struct {
	Nodes   []Node  `json:"nodes"`
	Edges   []Edge  `json:"edges"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Default bool    `json:"default,omitempty"`
}

// HopCount returns the number of hops (nodes after self) of a route graph.
func (g Graph) HopCount() int {
	if g.Default || len(g.Nodes) == 0 {
		return 0
	}
	return len(g.Nodes) - 1
}

// Node returns the node with the given key.
func (g Graph) Node(key string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return Node{}, false
}

// Path resolves keys into a leg route. Unknown keys are skipped.
func (g Graph) Path(keys ...string) []Node {
	out := make([]Node, 0, len(keys))
	for _, k := range keys {
		if n, ok := g.Node(k); ok {
			out = append(out, n)
		}
	}
	return out
}

// Prefix returns nodes 0..i+1 of a route graph, the span probed by the
// i-th traceroute leg. It is clamped to the graph size.
func (g Graph) Prefix(i int) []Node {
	end := min(max(i+2, 0), len(g.Nodes))
	return slices.Clone(g.Nodes[:end])
}

// All returns a copy of every node in order.
func (g Graph) All() []Node {
	return slices.Clone(g.Nodes)
}

// Reverse returns a reversed copy of nodes.
func Reverse(nodes []Node) []Node {
	out := slices.Clone(nodes)
	slices.Reverse(out)
	return out
}

// RequiredWidth returns the width needed to lay out hopCount hops at the
// ideal spacing, margins included.
func RequiredWidth(hopCount int) float64 {
	return MarginLeft + float64(hopCount)*IdealSpacing + MarginRight
}

// Spacing returns the horizontal gap used for hopCount hops on a surface of
// the given width.
func Spacing(width float64, hopCount int) float64 {
	if hopCount < 1 {
		return IdealSpacing
	}
	available := width - MarginLeft - MarginRight
	return max(MinSpacing, min(IdealSpacing, available/float64(hopCount)))
}

// Layout positions hops on s and returns the route graph with the self node
// prepended. An empty hop list yields the default topology. The surface is
// widened when the route does not fit at the ideal spacing.
func Layout(hops []route.Hop, s *Surface) Graph {
	if len(hops) == 0 {
		return Default(s)
	}

	if req := RequiredWidth(len(hops)); req > s.Width() {
		s.Grow(req)
	}

	spacing := Spacing(s.Width(), len(hops))
	centerY := s.Height() / 2

	g := Graph{
		Nodes:  make([]Node, 0, len(hops)+1),
		Edges:  make([]Edge, 0, len(hops)),
		Width:  s.Width(),
		Height: s.Height(),
	}
	g.Nodes = append(g.Nodes, selfNode(MarginLeft, centerY))

	for i, h := range hops {
		n := i + 1
		y := centerY - VerticalOffset
		if n%2 == 0 {
			y = centerY + VerticalOffset
		}
		x := MarginLeft + spacing*float64(n)
		g.Nodes = append(g.Nodes, hopNode(h, n, i == len(hops)-1, x, y))
		g.Edges = append(g.Edges, Edge{From: i, To: n})
	}
	return g
}
