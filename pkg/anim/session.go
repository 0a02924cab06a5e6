package anim

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	pferrors "github.com/matzehuels/packetflow/pkg/errors"
	"github.com/matzehuels/packetflow/pkg/observability"
	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// PendingPolicy decides what happens to deferred legs of earlier requests.
type PendingPolicy int

const (
	// KeepPending leaves earlier legs scheduled. Clearing packets or issuing
	// a new request does not stop packets that have yet to start.
	KeepPending PendingPolicy = iota

	// CancelPending cancels the legs of earlier requests whenever packets
	// are cleared or a new request is handled.
	CancelPending
)

func (p PendingPolicy) String() string {
	switch p {
	case KeepPending:
		return "keep"
	case CancelPending:
		return "cancel"
	}
	return fmt.Sprintf("PendingPolicy(%d)", int(p))
}

// ParsePendingPolicy parses "keep" or "cancel".
func ParsePendingPolicy(s string) (PendingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return KeepPending, nil
	case "cancel":
		return CancelPending, nil
	}
	return KeepPending, pferrors.New(pferrors.ErrCodeInvalidPolicy, "unknown pending policy %q (want keep or cancel)", s)
}

// Option configures a Session.
type Option func(*Session)

// WithPendingPolicy sets the policy for deferred legs of earlier requests.
func WithPendingPolicy(p PendingPolicy) Option {
	return func(s *Session) { s.policy = p }
}

// WithLogger sets the logger used for recovered tick faults and ignored
// requests.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session is the animation state of one viewer: the static topology on
// screen, the live packets, the deferred leg starts and the last request.
//
// A Session must only be used from one goroutine.
type Session struct {
	surface  *topology.Surface
	graph    topology.Graph
	route    []route.Hop // nil when the default topology is shown
	packets  []*Packet
	timeline timeline
	groups   []*Group
	now      time.Duration
	seq      uint64
	last     *Request
	policy   PendingPolicy
	logger   *log.Logger
}

// NewSession returns a session drawing on s, showing the default topology.
func NewSession(s *topology.Surface, opts ...Option) *Session {
	if s == nil {
		s = topology.NewSurface(800, 400, 1)
	}
	sess := &Session{
		surface: s,
		graph:   topology.Default(s),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(sess)
	}
	return sess
}

// Handle applies req: it records it for replay, replaces the static
// topology and schedules the request's legs relative to the current session
// time. Legs due immediately start on the next tick. An unknown command
// type is logged and ignored; it returns nil then, and for requests that
// schedule no legs.
func (s *Session) Handle(req Request) *Group {
	if err := req.Validate(); err != nil {
		s.logger.Warn("ignoring animation request", "err", err)
		return nil
	}

	r := req
	r.Route = slices.Clone(req.Route)
	s.last = &r

	sc := plan(r, s.surface)
	s.graph = sc.Graph
	if sc.Graph.Default {
		s.route = nil
	} else {
		s.route = r.Route
	}

	g := &Group{ID: uuid.New(), Request: r}
	if s.policy == CancelPending {
		s.cancelPending(g.ID)
	}
	for _, leg := range sc.Legs {
		t := s.timeline.schedule(s.now+leg.Offset, g.ID, r.Type, leg)
		g.Tasks = append(g.Tasks, TaskHandle{t})
	}
	observability.Scheduler().OnRequest(string(r.Type), len(r.Route), len(sc.Legs))

	if len(g.Tasks) == 0 {
		return nil
	}
	s.groups = append(s.groups, g)
	return g
}

// Replay clears the live packets and handles the last request again. It is
// a no-op before the first request.
func (s *Session) Replay() *Group {
	if s.last == nil {
		return nil
	}
	s.ClearPackets()
	return s.Handle(*s.last)
}

// HasReplay reports whether a request has been handled, so that Replay has
// something to re-issue.
func (s *Session) HasReplay() bool { return s.last != nil }

// LastRequest returns the request Replay would re-issue.
func (s *Session) LastRequest() (Request, bool) {
	if s.last == nil {
		return Request{}, false
	}
	return *s.last, true
}

// ClearPackets empties the live packet set. Under KeepPending, legs that
// have not started yet still fire later.
func (s *Session) ClearPackets() {
	s.packets = nil
	if s.policy == CancelPending {
		s.cancelPending(uuid.Nil)
	}
}

func (s *Session) cancelPending(keep uuid.UUID) {
	if n := s.timeline.cancelExcept(keep); n > 0 {
		s.logger.Debug("cancelled pending legs", "count", n)
	}
	s.groups = slices.DeleteFunc(s.groups, func(g *Group) bool {
		return g.ID != keep && g.Pending() == 0
	})
}

// Resize applies a new viewport size and re-lays out the static topology.
// Live packets keep the route snapshots they started with.
func (s *Session) Resize(width, height float64) {
	s.surface.Resize(width, height)
	s.graph = topology.Layout(s.route, s.surface)
}

// SetDPR updates the device pixel ratio reported in frames.
func (s *Session) SetDPR(dpr float64) { s.surface.SetDPR(dpr) }

// Tick advances the session to now and returns the frame to draw.
//
// It fires every leg due at or before now, drops packets retired on the
// previous tick, then draws and advances each live packet. A packet with no
// next node is retired instead of drawn. A time earlier than the previous
// tick is treated as the previous tick.
//
// Tick never panics. A fault is recovered, logged and reported in the
// returned frame, which then holds only the static topology.
func (s *Session) Tick(now time.Duration) (f Frame) {
	if now < s.now {
		now = s.now
	}
	s.now = now
	s.seq++

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered from tick fault", "panic", r, "now", now)
			observability.Scheduler().OnTickFault(r)
			f = s.staticFrame()
			f.Fault = fmt.Sprint(r)
		}
	}()

	hooks := observability.Scheduler()

	for _, t := range s.timeline.due(now) {
		nodes := t.leg.nodes(topology.Default(s.surface))
		s.packets = append(s.packets, newPacket(nodes, t.leg, t.cmd, t.group))
		hooks.OnLegStart(string(t.cmd), string(t.leg.Direction), len(nodes), t.leg.Speed)
	}
	s.pruneGroups()

	live := s.packets[:0]
	for _, p := range s.packets {
		if p.Active {
			live = append(live, p)
			continue
		}
		hooks.OnPacketRetired(string(p.Command), string(p.Direction))
	}
	clear(s.packets[len(live):])
	s.packets = live

	f = s.staticFrame()
	for _, p := range s.packets {
		x, y, ok := p.Position()
		if !ok {
			p.Active = false
			continue
		}
		f.Sprites = append(f.Sprites, Sprite{X: x, Y: y, Color: p.Color, Direction: p.Direction, Command: p.Command})
		p.advance()
	}
	return f
}

func (s *Session) staticFrame() Frame {
	return Frame{
		Seq:     s.seq,
		Now:     s.now,
		Graph:   s.graph,
		DPR:     s.surface.DPR(),
		Pending: s.timeline.len(),
		Replay:  s.HasReplay(),
	}
}

func (s *Session) pruneGroups() {
	s.groups = slices.DeleteFunc(s.groups, func(g *Group) bool { return g.Pending() == 0 })
}

// Now returns the session time of the last tick.
func (s *Session) Now() time.Duration { return s.now }

// Graph returns the static topology currently shown.
func (s *Session) Graph() topology.Graph { return s.graph }

// Surface returns the drawing surface.
func (s *Session) Surface() *topology.Surface { return s.surface }

// Policy returns the pending-leg policy.
func (s *Session) Policy() PendingPolicy { return s.policy }

// Packets returns copies of the packets in the live set, including those
// retired on the last tick and not yet dropped.
func (s *Session) Packets() []Packet {
	out := make([]Packet, len(s.packets))
	for i, p := range s.packets {
		out[i] = *p
	}
	return out
}

// Scheduled is a pending leg start.
type Scheduled struct {
	Due     time.Duration `json:"due"`
	Group   uuid.UUID     `json:"group"`
	Command CommandType   `json:"command"`
	Leg     Leg           `json:"leg"`
}

// Pending returns the leg starts still waiting on the timeline, in firing
// order.
func (s *Session) Pending() []Scheduled {
	tasks := s.timeline.pending()
	out := make([]Scheduled, len(tasks))
	for i, t := range tasks {
		out[i] = Scheduled{Due: t.due, Group: t.group, Command: t.cmd, Leg: t.leg}
	}
	return out
}

// Groups returns the requests that still have legs waiting to fire.
func (s *Session) Groups() []*Group { return slices.Clone(s.groups) }
