package topology

import (
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/packetflow/pkg/route"
)

func makeHops(n int) []route.Hop {
	hops := make([]route.Hop, n)
	for i := range hops {
		hops[i] = route.Hop{IP: fmt.Sprintf("10.0.0.%d", i+1), Name: fmt.Sprintf("r%d.example.net", i+1), Time: float64(i + 1)}
	}
	return hops
}

func TestLayoutNodeCount(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 6, 12, 30} {
		t.Run(fmt.Sprintf("%d_hops", n), func(t *testing.T) {
			s := NewSurface(800, 400, 1)
			g := Layout(makeHops(n), s)

			if len(g.Nodes) != n+1 {
				t.Fatalf("len(Nodes) = %d, want %d", len(g.Nodes), n+1)
			}
			if len(g.Edges) != n {
				t.Errorf("len(Edges) = %d, want %d", len(g.Edges), n)
			}
			self := g.Nodes[0]
			if self.X != MarginLeft || self.Y != 200 || self.Kind != KindSelf || self.HopNumber != 0 {
				t.Errorf("self node = %+v, want fixed self at (%v, 200)", self, MarginLeft)
			}
			for i, e := range g.Edges {
				if e.From != i || e.To != i+1 {
					t.Errorf("Edges[%d] = %+v, want %d→%d", i, e, i, i+1)
				}
			}
			if g.HopCount() != n {
				t.Errorf("HopCount() = %d, want %d", g.HopCount(), n)
			}
		})
	}
}

func TestLayoutSingleHop(t *testing.T) {
	g := Layout([]route.Hop{{IP: "93.184.216.34", Name: "example.com", Time: 20}}, NewSurface(800, 400, 1))
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("got %d nodes / %d edges, want 2 / 1", len(g.Nodes), len(g.Edges))
	}
	if g.Nodes[1].Kind != KindDestination {
		t.Errorf("single hop kind = %s, want %s", g.Nodes[1].Kind, KindDestination)
	}
}

func TestLayoutZigZag(t *testing.T) {
	s := NewSurface(800, 400, 1)
	g := Layout(makeHops(9), s)
	center := s.Height() / 2

	for k := 1; k < len(g.Nodes); k++ {
		dy := g.Nodes[k].Y - center
		want := -VerticalOffset
		if k%2 == 0 {
			want = VerticalOffset
		}
		if dy != want {
			t.Errorf("node %d offset = %v, want %v", k, dy, want)
		}
	}
}

func TestLayoutXMonotonic(t *testing.T) {
	g := Layout(makeHops(15), NewSurface(600, 400, 1))
	for i := 1; i < len(g.Nodes); i++ {
		if g.Nodes[i].X < g.Nodes[i-1].X {
			t.Errorf("node %d x = %v < node %d x = %v", i, g.Nodes[i].X, i-1, g.Nodes[i-1].X)
		}
	}
}

func TestLayoutSpacing(t *testing.T) {
	tests := []struct {
		name      string
		width     float64
		hops      int
		wantWidth float64
		wantGap   float64
	}{
		// 100 + 3*120 = 460 fits; available 700/3 clamps to ideal.
		{"fits_clamped_to_ideal", 800, 3, 800, IdealSpacing},
		// 100 + 10*120 = 1300 > 800: grows, gap is ideal.
		{"grows_to_required", 800, 10, 1300, IdealSpacing},
		// exactly fits
		{"exact_fit", 700, 5, 700, IdealSpacing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSurface(tt.width, 400, 1)
			g := Layout(makeHops(tt.hops), s)
			if s.Width() != tt.wantWidth {
				t.Errorf("surface width = %v, want %v", s.Width(), tt.wantWidth)
			}
			if g.Width != tt.wantWidth {
				t.Errorf("graph width = %v, want %v", g.Width, tt.wantWidth)
			}
			gap := g.Nodes[1].X - g.Nodes[0].X
			if math.Abs(gap-tt.wantGap) > 1e-9 {
				t.Errorf("gap = %v, want %v", gap, tt.wantGap)
			}
		})
	}
}

func TestSpacingClamp(t *testing.T) {
	tests := []struct {
		width float64
		hops  int
		want  float64
	}{
		{1000, 2, IdealSpacing},
		{500, 4, 100},
		{300, 4, MinSpacing},
		{800, 0, IdealSpacing},
	}
	for _, tt := range tests {
		if got := Spacing(tt.width, tt.hops); got != tt.want {
			t.Errorf("Spacing(%v, %d) = %v, want %v", tt.width, tt.hops, got, tt.want)
		}
	}
}

func TestLayoutRequiredWidthAtLeastMinimum(t *testing.T) {
	for k := 1; k <= 40; k++ {
		s := NewSurface(320, 400, 1)
		Layout(makeHops(k), s)
		minWidth := MarginLeft + MarginRight + float64(k)*MinSpacing
		if s.Width() < minWidth {
			t.Errorf("%d hops: width %v < minimum %v", k, s.Width(), minWidth)
		}
	}
}

func TestLayoutNeverShrinksSurface(t *testing.T) {
	s := NewSurface(800, 400, 1)
	Layout(makeHops(20), s)
	grown := s.Width()

	Layout(makeHops(2), s)
	if s.Width() != grown {
		t.Errorf("width after short route = %v, want %v", s.Width(), grown)
	}
}

func TestLayoutEmptyFallsBackToDefault(t *testing.T) {
	g := Layout(nil, NewSurface(800, 400, 1))
	if !g.Default {
		t.Fatal("empty route should produce the default topology")
	}
	if len(g.Nodes) != 6 || len(g.Edges) != 5 {
		t.Errorf("default topology = %d nodes / %d edges, want 6 / 5", len(g.Nodes), len(g.Edges))
	}
	if g.HopCount() != 0 {
		t.Errorf("HopCount() = %d, want 0 for default topology", g.HopCount())
	}
}

func TestLayoutDuplicateNames(t *testing.T) {
	hops := []route.Hop{
		{IP: "10.0.0.1", Name: "core.example.net"},
		{IP: "10.0.0.2", Name: "core.example.net"},
		{IP: "10.0.0.3", Name: "core.example.net"},
	}
	g := Layout(hops, NewSurface(800, 400, 1))
	if len(g.Nodes) != 4 {
		t.Fatalf("len(Nodes) = %d, want 4", len(g.Nodes))
	}
	seen := map[string]bool{}
	for _, n := range g.Nodes {
		if seen[n.Key] {
			t.Errorf("duplicate node key %q", n.Key)
		}
		seen[n.Key] = true
	}
	if g.Nodes[1].X == g.Nodes[2].X {
		t.Error("identical names should still get distinct positions")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		last bool
		want Kind
	}{
		{"home-router.local", false, KindHome},
		{"my-router.local", true, KindHome},
		{"gateway.isp-provider.net", false, KindISP},
		{"isp-core", false, KindISP},
		{"international-gw.jpix.ad.jp", false, KindExchange},
		{"ix-dojima.jpnap.net", false, KindExchange},
		{"isp-ix.example.net", false, KindISP}, // ISP outranks IX
		{"backbone-tokyo.google.net", false, KindBackbone},
		{"edge-nrt.1e100.net", false, KindEdge},
		{"cdn-ams.wikimedia.org", false, KindEdge},
		{"example.com", true, KindDestination},
		{"example.com", false, KindRouter},
		{"HOME-ROUTER", false, KindRouter}, // case-sensitive
		{"backbone-edge", false, KindBackbone}, // priority order
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name, tt.last); got != tt.want {
				t.Errorf("Classify(%q, %v) = %s, want %s", tt.name, tt.last, got, tt.want)
			}
		})
	}
}

func TestHopNodeLabels(t *testing.T) {
	g := Layout([]route.Hop{
		{Name: "core-1.example.net"},
		{Name: "core-2.example.net"},
		{Name: "example.com"},
	}, NewSurface(800, 400, 1))

	if got := g.Nodes[1].Label; got != "🔀 #1" {
		t.Errorf("router label = %q, want %q", got, "🔀 #1")
	}
	if got := g.Nodes[3].Label; got != "🎯 Dest" {
		t.Errorf("destination label = %q, want %q", got, "🎯 Dest")
	}
	if got := g.Nodes[3].FullLabel; got != "example.com" {
		t.Errorf("FullLabel = %q, want example.com", got)
	}
}

func TestPrefixAndReverse(t *testing.T) {
	g := Layout(makeHops(4), NewSurface(800, 400, 1))

	p := g.Prefix(1)
	if len(p) != 3 || p[2].HopNumber != 2 {
		t.Fatalf("Prefix(1) = %d nodes ending at hop %d, want 3 ending at hop 2", len(p), p[len(p)-1].HopNumber)
	}
	if got := len(g.Prefix(10)); got != 5 {
		t.Errorf("Prefix(10) clamped length = %d, want 5", got)
	}

	r := Reverse(p)
	if r[0].HopNumber != 2 || r[2].HopNumber != 0 {
		t.Errorf("Reverse order wrong: %d..%d", r[0].HopNumber, r[2].HopNumber)
	}
	if p[0].HopNumber != 0 {
		t.Error("Reverse mutated its input")
	}
}

func TestDefaultPath(t *testing.T) {
	g := Default(NewSurface(800, 400, 1))
	path := g.Path(KeyPC, KeyRouter1, KeyISP, KeyDNS)
	if len(path) != 4 {
		t.Fatalf("len(path) = %d, want 4", len(path))
	}
	if path[3].X != 500 || path[3].Y != 260 {
		t.Errorf("dns at (%v, %v), want (500, 260)", path[3].X, path[3].Y)
	}
	if got := len(g.Path("pc", "nowhere")); got != 1 {
		t.Errorf("unknown keys should be skipped, got %d nodes", got)
	}
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"example.com", "example.com"},
		{"exactly-18-chars.x", "exactly-18-chars.x"},
		{"gateway.isp-provider.net", "gateway.isp-pro..."},
	}
	for _, tt := range tests {
		if got := TruncateLabel(tt.in); got != tt.want {
			t.Errorf("TruncateLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
