package anim

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/packetflow/pkg/observability"
	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

func makeHops(n int) []route.Hop {
	hops := make([]route.Hop, n)
	for i := range hops {
		hops[i] = route.Hop{IP: fmt.Sprintf("10.0.%d.1", i), Name: fmt.Sprintf("core-%d.example.net", i+1), Time: float64(i)}
	}
	return hops
}

func newTestSession(opts ...Option) *Session {
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	return NewSession(topology.NewSurface(800, 400, 1), opts...)
}

func TestReachabilityLongRoute(t *testing.T) {
	s := newTestSession()
	g := s.Handle(Request{Type: Reachability, Route: makeHops(6)})
	if g == nil || len(g.Tasks) != 2 {
		t.Fatalf("expected 2 legs, got %+v", g)
	}

	out, in := g.Tasks[0].Leg(), g.Tasks[1].Leg()
	if out.Speed != 3.5 || in.Speed != 3.5 {
		t.Errorf("speeds = %v/%v, want 3.5", out.Speed, in.Speed)
	}
	if out.Offset != 0 {
		t.Errorf("outbound offset = %v, want 0", out.Offset)
	}
	if in.Offset != 1800*time.Millisecond {
		t.Errorf("inbound offset = %v, want 1.8s", in.Offset)
	}
	if len(out.Route) != 7 || out.Color != ColorRequest {
		t.Errorf("outbound = %d nodes %s, want 7 nodes %s", len(out.Route), out.Color, ColorRequest)
	}
	if in.Route[0].HopNumber != 6 || in.Route[6].HopNumber != 0 || in.Color != ColorResponse {
		t.Errorf("inbound is not the reversed route")
	}
}

func TestReachabilityTiming(t *testing.T) {
	tests := []struct {
		hops      int
		wantDelay time.Duration
		wantSpeed float64
	}{
		{1, 400 * time.Millisecond, 2.5},
		{5, 2000 * time.Millisecond, 2.5},
		{6, 1800 * time.Millisecond, 3.5},
		{10, 3000 * time.Millisecond, 3.5},
	}
	for _, tt := range tests {
		d, sp := ReachabilityTiming(tt.hops)
		if d != tt.wantDelay || sp != tt.wantSpeed {
			t.Errorf("ReachabilityTiming(%d) = %v, %v; want %v, %v", tt.hops, d, sp, tt.wantDelay, tt.wantSpeed)
		}
	}
}

func TestReachabilityWithoutRoute(t *testing.T) {
	s := newTestSession()
	g := s.Handle(Request{Type: Reachability})
	if !s.Graph().Default {
		t.Error("expected default topology")
	}
	out, in := g.Tasks[0].Leg(), g.Tasks[1].Leg()
	if out.Speed != 2.5 || in.Offset != 1500*time.Millisecond {
		t.Errorf("got speed %v / reply %v, want 2.5 / 1.5s", out.Speed, in.Offset)
	}
	want := []string{topology.KeyPC, topology.KeyRouter1, topology.KeyISP, topology.KeyRouter2, topology.KeyServer}
	if fmt.Sprint(out.Keys) != fmt.Sprint(want) {
		t.Errorf("outbound keys = %v, want %v", out.Keys, want)
	}
}

func TestRouteTraceTwoHops(t *testing.T) {
	s := newTestSession()
	g := s.Handle(Request{Type: RouteTrace, Route: makeHops(2)})
	if g == nil || len(g.Tasks) != 4 {
		t.Fatalf("expected 4 legs (2 pairs), got %v", g)
	}

	want := []struct {
		offset time.Duration
		dir    Direction
		nodes  int
	}{
		{0, Outbound, 2},
		{250 * time.Millisecond, Inbound, 2},
		{1000 * time.Millisecond, Outbound, 3},
		{1250 * time.Millisecond, Inbound, 3},
	}
	for i, w := range want {
		leg := g.Tasks[i].Leg()
		if leg.Offset != w.offset || leg.Direction != w.dir || len(leg.Route) != w.nodes {
			t.Errorf("leg %d = {%v %s %d nodes}, want {%v %s %d nodes}",
				i, leg.Offset, leg.Direction, len(leg.Route), w.offset, w.dir, w.nodes)
		}
		if leg.Speed != 2 {
			t.Errorf("leg %d speed = %v, want 2", i, leg.Speed)
		}
	}
}

func TestTraceTimingBands(t *testing.T) {
	tests := []struct {
		hops      int
		wantDelay time.Duration
		wantSpeed float64
	}{
		{1, 1000 * time.Millisecond, 2},
		{3, 1000 * time.Millisecond, 2},
		{4, 800 * time.Millisecond, 2.5},
		{5, 800 * time.Millisecond, 2.5},
		{6, 600 * time.Millisecond, 3},
		{20, 600 * time.Millisecond, 3},
	}
	for _, tt := range tests {
		d, sp := TraceTiming(tt.hops)
		if d != tt.wantDelay || sp != tt.wantSpeed {
			t.Errorf("TraceTiming(%d) = %v, %v; want %v, %v", tt.hops, d, sp, tt.wantDelay, tt.wantSpeed)
		}
	}
}

func TestRouteTraceEmptyRoute(t *testing.T) {
	s := newTestSession()
	s.Handle(Request{Type: Reachability, Route: makeHops(4)})
	if s.Graph().Default {
		t.Fatal("expected route graph after reachability")
	}

	if g := s.Handle(Request{Type: RouteTrace}); g != nil {
		t.Errorf("empty route-trace scheduled %d legs", len(g.Tasks))
	}
	if !s.Graph().Default {
		t.Error("empty route-trace should clear the current route")
	}
	if !s.HasReplay() {
		t.Error("empty route-trace should still be recorded for replay")
	}
}

func TestLookupIgnoresRoute(t *testing.T) {
	s := newTestSession()
	g := s.Handle(Request{Type: Lookup, Route: makeHops(8)})
	if !s.Graph().Default {
		t.Error("lookup should show the default topology")
	}
	out, in := g.Tasks[0].Leg(), g.Tasks[1].Leg()
	if out.Color != ColorLookup || out.Speed != 3 || in.Offset != time.Second {
		t.Errorf("lookup legs = %+v / %+v", out, in)
	}

	f := s.Tick(0)
	if len(f.Sprites) != 1 {
		t.Fatalf("expected outbound packet at t=0, got %d", len(f.Sprites))
	}
	if f.Sprites[0].X != 50 || f.Sprites[0].Y != 200 {
		t.Errorf("first sprite at (%v, %v), want pc (50, 200)", f.Sprites[0].X, f.Sprites[0].Y)
	}
}

func TestLocalConfig(t *testing.T) {
	s := newTestSession()
	g := s.Handle(Request{Type: LocalConfig})
	out, in := g.Tasks[0].Leg(), g.Tasks[1].Leg()
	if out.Color != ColorConfig || out.Speed != 4 || len(out.Keys) != 2 {
		t.Errorf("outbound = %+v", out)
	}
	if in.Offset != 500*time.Millisecond || in.Keys[0] != topology.KeyRouter1 {
		t.Errorf("inbound = %+v", in)
	}
}

func TestDeferredLegsFireInOrder(t *testing.T) {
	s := newTestSession()
	s.Handle(Request{Type: Reachability, Route: makeHops(2)})

	if f := s.Tick(0); len(f.Sprites) != 1 || f.Pending != 1 {
		t.Fatalf("t=0: %d sprites, %d pending; want 1, 1", len(f.Sprites), f.Pending)
	}
	if f := s.Tick(799 * time.Millisecond); len(f.Sprites) != 1 {
		t.Errorf("t=799ms: %d sprites, want 1", len(f.Sprites))
	}
	f := s.Tick(800 * time.Millisecond)
	if len(f.Sprites) != 2 || f.Pending != 0 {
		t.Fatalf("t=800ms: %d sprites, %d pending; want 2, 0", len(f.Sprites), f.Pending)
	}
	if f.Sprites[1].Direction != Inbound || f.Sprites[1].Color != ColorResponse {
		t.Errorf("second sprite = %+v, want inbound response", f.Sprites[1])
	}
}

func TestPacketRetiredLazily(t *testing.T) {
	s := newTestSession()
	s.Handle(Request{Type: LocalConfig})

	// Speed 4 covers the single segment in 25 frames.
	var frames int
	for ; frames < 100; frames++ {
		f := s.Tick(time.Duration(frames) * time.Millisecond)
		if len(f.Sprites) == 0 {
			break
		}
	}
	if frames < 25 || frames > 27 {
		t.Errorf("packet drawn for %d frames, want about 25", frames)
	}

	// The exhausted packet is marked inactive but still in the live set.
	pkts := s.Packets()
	if len(pkts) != 1 || pkts[0].Active {
		t.Fatalf("after exhaustion: %+v, want one inactive packet", pkts)
	}

	s.Tick(time.Duration(frames+1) * time.Millisecond)
	if got := len(s.Packets()); got != 0 {
		t.Errorf("inactive packet still live after next tick: %d packets", got)
	}
}

func TestPacketAdvance(t *testing.T) {
	p := &Packet{
		Route: []topology.Node{{X: 0, Y: 0}, {X: 100, Y: 50}, {X: 200, Y: 0}},
		Speed: 50,
	}
	x, y, ok := p.Position()
	if !ok || x != 0 || y != 0 {
		t.Fatalf("start position = (%v, %v, %v)", x, y, ok)
	}
	p.advance()
	if x, y, _ := p.Position(); x != 50 || y != 25 {
		t.Errorf("half-way position = (%v, %v), want (50, 25)", x, y)
	}
	p.advance()
	if p.Index != 1 || p.Progress != 0 {
		t.Errorf("after full segment: index=%d progress=%v", p.Index, p.Progress)
	}
	p.advance()
	p.advance()
	if _, _, ok := p.Position(); ok {
		t.Error("position should be unavailable at the last node")
	}
}

func TestSingleNodeLegRetires(t *testing.T) {
	p := &Packet{Route: []topology.Node{{X: 1, Y: 1}}, Speed: 1}
	if _, _, ok := p.Position(); ok {
		t.Error("single-node route has no segment to draw")
	}
}

func TestClearPacketsThenTick(t *testing.T) {
	s := newTestSession()
	s.Handle(Request{Type: LocalConfig})
	s.Tick(600 * time.Millisecond)
	if len(s.Packets()) != 2 {
		t.Fatalf("expected 2 live packets, got %d", len(s.Packets()))
	}

	s.ClearPackets()
	f := s.Tick(601 * time.Millisecond)
	if !f.Empty() {
		t.Errorf("frame after clear has %d sprites", len(f.Sprites))
	}
	if len(f.Graph.Nodes) == 0 {
		t.Error("static topology should still be drawn")
	}
}

func TestPendingPolicy(t *testing.T) {
	tests := []struct {
		policy      PendingPolicy
		wantSprites bool
	}{
		{KeepPending, true},
		{CancelPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			s := newTestSession(WithPendingPolicy(tt.policy))
			s.Handle(Request{Type: RouteTrace, Route: makeHops(3)})
			s.Tick(0)
			s.ClearPackets()

			f := s.Tick(1100 * time.Millisecond)
			if got := !f.Empty(); got != tt.wantSprites {
				t.Errorf("sprites after clear = %v, want %v", got, tt.wantSprites)
			}
		})
	}
}

func TestCancelPendingOnNewRequest(t *testing.T) {
	s := newTestSession(WithPendingPolicy(CancelPending))
	first := s.Handle(Request{Type: RouteTrace, Route: makeHops(5)})
	s.Tick(0)

	second := s.Handle(Request{Type: LocalConfig})
	if first.Pending() != 0 {
		t.Errorf("earlier request still has %d pending legs", first.Pending())
	}
	if second.Pending() != 2 {
		t.Errorf("new request has %d pending legs, want 2", second.Pending())
	}
	if len(s.Groups()) != 1 {
		t.Errorf("Groups() = %d, want 1", len(s.Groups()))
	}
}

func TestKeepPendingBleedsThrough(t *testing.T) {
	s := newTestSession()
	s.Handle(Request{Type: RouteTrace, Route: makeHops(3)})
	s.Handle(Request{Type: LocalConfig})

	commands := map[CommandType]bool{}
	for _, p := range s.Pending() {
		commands[p.Command] = true
	}
	if !commands[RouteTrace] || !commands[LocalConfig] {
		t.Errorf("pending commands = %v, want both requests", commands)
	}
}

func TestGroupCancel(t *testing.T) {
	s := newTestSession()
	g := s.Handle(Request{Type: RouteTrace, Route: makeHops(3)})
	s.Tick(0)

	if n := g.Cancel(); n != 5 {
		t.Errorf("Cancel() = %d, want 5 (one leg already fired)", n)
	}
	if n := g.Cancel(); n != 0 {
		t.Errorf("second Cancel() = %d, want 0", n)
	}
	if len(s.Pending()) != 0 {
		t.Errorf("Pending() = %d after cancel", len(s.Pending()))
	}
}

func TestReplayDeterminism(t *testing.T) {
	offsets := func(s *Session, g *Group) []string {
		var out []string
		for _, h := range g.Tasks {
			out = append(out, fmt.Sprintf("%v/%v/%s/%d", h.Due()-s.Now(), h.Leg().Speed, h.Leg().Direction, len(h.Leg().Route)))
		}
		return out
	}

	s := newTestSession()
	first := offsets(s, s.Handle(Request{Type: RouteTrace, Route: makeHops(4)}))
	s.Tick(10 * time.Second)

	second := offsets(s, s.Replay())
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Errorf("replay schedule differs:\n first: %v\nsecond: %v", first, second)
	}
}

func TestReplayBeforeRequest(t *testing.T) {
	s := newTestSession()
	if s.HasReplay() {
		t.Error("HasReplay() before any request")
	}
	if g := s.Replay(); g != nil {
		t.Error("Replay() before any request should be a no-op")
	}
	if f := s.Tick(0); f.Replay {
		t.Error("frame offers replay before any request")
	}
}

func TestReplayClearsPackets(t *testing.T) {
	s := newTestSession()
	s.Handle(Request{Type: Lookup})
	s.Tick(0)
	s.Tick(1000 * time.Millisecond)
	if len(s.Packets()) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(s.Packets()))
	}
	s.Replay()
	if len(s.Packets()) != 0 {
		t.Errorf("Replay() left %d packets", len(s.Packets()))
	}
	if f := s.Tick(1000 * time.Millisecond); len(f.Sprites) != 1 || !f.Replay {
		t.Errorf("after replay: %d sprites, replay=%v", len(f.Sprites), f.Replay)
	}
}

func TestRequestRouteIsCopied(t *testing.T) {
	s := newTestSession()
	hops := makeHops(3)
	s.Handle(Request{Type: Reachability, Route: hops})
	hops[0].Name = "mutated"

	last, _ := s.LastRequest()
	if last.Route[0].Name == "mutated" {
		t.Error("session kept a reference to the caller's route")
	}
}

func TestUnknownCommandIgnored(t *testing.T) {
	s := newTestSession()
	if g := s.Handle(Request{Type: "teleport"}); g != nil {
		t.Error("unknown command scheduled legs")
	}
	if s.HasReplay() {
		t.Error("unknown command recorded for replay")
	}
}

func TestResizeKeepsPacketRoutes(t *testing.T) {
	s := newTestSession()
	s.Handle(Request{Type: Reachability, Route: makeHops(3)})
	s.Tick(0)
	before := s.Packets()[0].Route[0].Y

	s.Resize(800, 600)
	if got := s.Graph().Nodes[0].Y; got != 300 {
		t.Errorf("relaid self y = %v, want 300", got)
	}
	if got := s.Packets()[0].Route[0].Y; got != before {
		t.Errorf("in-flight packet route moved from %v to %v", before, got)
	}
}

func TestDefaultLegsResolveAtFireTime(t *testing.T) {
	s := newTestSession()
	s.Handle(Request{Type: LocalConfig})
	s.Resize(800, 600)

	f := s.Tick(0)
	if len(f.Sprites) != 1 || f.Sprites[0].Y != 300 {
		t.Errorf("sprite = %+v, want resolved on the resized default topology", f.Sprites)
	}
}

func TestLongRouteGrowsSurface(t *testing.T) {
	s := newTestSession()
	s.Handle(Request{Type: RouteTrace, Route: makeHops(12)})
	if w := s.Surface().Width(); w != topology.RequiredWidth(12) {
		t.Errorf("surface width = %v, want %v", w, topology.RequiredWidth(12))
	}
}

func TestTickTimeNeverGoesBackwards(t *testing.T) {
	s := newTestSession()
	s.Tick(time.Second)
	s.Handle(Request{Type: LocalConfig})
	f := s.Tick(0)
	if f.Now != time.Second {
		t.Errorf("Now = %v, want 1s", f.Now)
	}
	if len(f.Sprites) != 1 {
		t.Errorf("legs due at 1s should fire, got %d sprites", len(f.Sprites))
	}
}

type panickingHooks struct{ observability.NoopSchedulerHooks }

func (panickingHooks) OnLegStart(string, string, int, float64) { panic("hook exploded") }

func TestTickRecoversFromFault(t *testing.T) {
	observability.SetSchedulerHooks(panickingHooks{})
	defer observability.Reset()

	s := newTestSession()
	s.Handle(Request{Type: Lookup})

	f := s.Tick(0)
	if f.Fault == "" {
		t.Fatal("expected a reported fault")
	}
	if len(f.Graph.Nodes) != 6 || !f.Empty() {
		t.Errorf("fault frame should hold only the static topology, got %d nodes / %d sprites",
			len(f.Graph.Nodes), len(f.Sprites))
	}

	observability.Reset()
	if f := s.Tick(time.Millisecond); f.Fault != "" {
		t.Errorf("session did not recover: %s", f.Fault)
	}
}

type countingHooks struct {
	observability.NoopSchedulerHooks
	requests, starts, retired int
}

func (h *countingHooks) OnRequest(string, int, int)              { h.requests++ }
func (h *countingHooks) OnLegStart(string, string, int, float64) { h.starts++ }
func (h *countingHooks) OnPacketRetired(string, string)          { h.retired++ }

func TestSchedulerHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetSchedulerHooks(hooks)
	defer observability.Reset()

	s := newTestSession()
	s.Handle(Request{Type: LocalConfig})
	for i := 0; i < 100; i++ {
		s.Tick(time.Duration(i*10) * time.Millisecond)
	}
	if hooks.requests != 1 || hooks.starts != 2 || hooks.retired != 2 {
		t.Errorf("hooks = %d requests, %d starts, %d retired; want 1, 2, 2",
			hooks.requests, hooks.starts, hooks.retired)
	}
}

func TestPlanHasNoSideEffects(t *testing.T) {
	surface := topology.NewSurface(800, 400, 1)
	sc, err := Plan(Request{Type: RouteTrace, Route: makeHops(10)}, *surface)
	if err != nil {
		t.Fatal(err)
	}
	if surface.Width() != 800 {
		t.Errorf("Plan grew the caller's surface to %v", surface.Width())
	}
	if sc.Graph.Width != topology.RequiredWidth(10) {
		t.Errorf("planned graph width = %v, want %v", sc.Graph.Width, topology.RequiredWidth(10))
	}
	if len(sc.Legs) != 20 {
		t.Errorf("len(Legs) = %d, want 20", len(sc.Legs))
	}

	if _, err := Plan(Request{Type: "bogus"}, *surface); err == nil {
		t.Error("Plan accepted an unknown command type")
	}
}

func TestParsePendingPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    PendingPolicy
		wantErr bool
	}{
		{"", KeepPending, false},
		{"keep", KeepPending, false},
		{"Cancel", CancelPending, false},
		{"drop", KeepPending, true},
	}
	for _, tt := range tests {
		got, err := ParsePendingPolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePendingPolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}
