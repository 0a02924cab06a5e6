package anim

import (
	"slices"
	"time"

	"github.com/matzehuels/packetflow/pkg/topology"
)

// Packet colours.
const (
	ColorRequest  = "#ff6b6b"
	ColorResponse = "#68d391"
	ColorLookup   = "#9f7aea"
	ColorTrace    = "#ffd666"
	ColorConfig   = "#667eea"
)

// Direction tells request legs from response legs.
type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// Leg is one directional traversal scheduled by a request.
//
// Route legs carry the node snapshot of the graph laid out when the request
// was handled. Default-topology legs carry only node keys and are resolved
// against the default topology of the surface when they fire.
type Leg struct {
	Offset    time.Duration   `json:"offset"`
	Direction Direction       `json:"direction"`
	Color     string          `json:"color"`
	Speed     float64         `json:"speed"`
	Route     []topology.Node `json:"route,omitempty"`
	Keys      []string        `json:"keys,omitempty"`
}

// Schedule is the expansion of one request: the static topology it puts on
// screen and the legs it starts.
type Schedule struct {
	Request Request        `json:"request"`
	Graph   topology.Graph `json:"graph"`
	Legs    []Leg          `json:"legs"`
}

var (
	lookupPath      = []string{topology.KeyPC, topology.KeyRouter1, topology.KeyISP, topology.KeyDNS}
	reachPath       = []string{topology.KeyPC, topology.KeyRouter1, topology.KeyISP, topology.KeyRouter2, topology.KeyServer}
	localConfigPath = []string{topology.KeyPC, topology.KeyRouter1}
)

// Fixed delays.
const (
	lookupReplyDelay      = 1000 * time.Millisecond
	defaultPingReplyDelay = 1500 * time.Millisecond
	localConfigReplyDelay = 500 * time.Millisecond
	traceReplyDelay       = 250 * time.Millisecond
	longRouteHopDelay     = 300 * time.Millisecond
	shortRouteHopDelay    = 400 * time.Millisecond
)

// Packet speeds and the hop count above which a route counts as long.
const (
	longRouteHops     = 5
	longRouteSpeed    = 3.5
	shortRouteSpeed   = 2.5
	lookupSpeed       = 3.0
	localConfigSpeed  = 4.0
	defaultReachSpeed = 2.5
)

// traceBand selects per-hop delay and packet speed for a route-trace.
type traceBand struct {
	maxHops int
	delay   time.Duration
	speed   float64
}

var traceBands = []traceBand{
	{3, 1000 * time.Millisecond, 2},
	{5, 800 * time.Millisecond, 2.5},
}

var longTraceBand = traceBand{delay: 600 * time.Millisecond, speed: 3}

func bandFor(hops int) traceBand {
	for _, b := range traceBands {
		if hops <= b.maxHops {
			return b
		}
	}
	return longTraceBand
}

// ReachabilityTiming returns the reply delay and packet speed used when a
// reachability request follows a route of the given hop count.
func ReachabilityTiming(hops int) (time.Duration, float64) {
	if hops > longRouteHops {
		return time.Duration(hops) * longRouteHopDelay, longRouteSpeed
	}
	return time.Duration(hops) * shortRouteHopDelay, shortRouteSpeed
}

// TraceTiming returns the per-hop delay and packet speed of a route-trace
// over the given hop count.
func TraceTiming(hops int) (time.Duration, float64) {
	b := bandFor(hops)
	return b.delay, b.speed
}

// Plan expands req on a copy of s without touching s. It returns an error
// only for an unknown command type.
func Plan(req Request, s topology.Surface) (Schedule, error) {
	if err := req.Validate(); err != nil {
		return Schedule{}, err
	}
	return plan(req, &s), nil
}

// plan expands req, growing s when the route does not fit.
func plan(req Request, s *topology.Surface) Schedule {
	sc := Schedule{Request: req}

	switch req.Type {
	case Lookup:
		sc.Graph = topology.Default(s)
		sc.Legs = pair(lookupPath, 0, lookupReplyDelay, ColorLookup, lookupSpeed)

	case Reachability:
		if len(req.Route) == 0 {
			sc.Graph = topology.Default(s)
			sc.Legs = pair(reachPath, 0, defaultPingReplyDelay, ColorRequest, defaultReachSpeed)
			break
		}
		sc.Graph = topology.Layout(req.Route, s)
		delay, speed := ReachabilityTiming(sc.Graph.HopCount())
		sc.Legs = []Leg{
			{Offset: 0, Direction: Outbound, Color: ColorRequest, Speed: speed, Route: sc.Graph.All()},
			{Offset: delay, Direction: Inbound, Color: ColorResponse, Speed: speed, Route: topology.Reverse(sc.Graph.Nodes)},
		}

	case RouteTrace:
		if len(req.Route) == 0 {
			sc.Graph = topology.Default(s)
			break
		}
		sc.Graph = topology.Layout(req.Route, s)
		hops := sc.Graph.HopCount()
		delay, speed := TraceTiming(hops)
		sc.Legs = make([]Leg, 0, 2*hops)
		for i := range hops {
			start := time.Duration(i) * delay
			prefix := sc.Graph.Prefix(i)
			sc.Legs = append(sc.Legs,
				Leg{Offset: start, Direction: Outbound, Color: ColorTrace, Speed: speed, Route: prefix},
				Leg{Offset: start + traceReplyDelay, Direction: Inbound, Color: ColorResponse, Speed: speed, Route: topology.Reverse(prefix)},
			)
		}

	case LocalConfig:
		sc.Graph = topology.Default(s)
		sc.Legs = pair(localConfigPath, 0, localConfigReplyDelay, ColorConfig, localConfigSpeed)
	}
	return sc
}

// pair builds an outbound leg along keys and its reply along the reversed
// keys on the default topology.
func pair(keys []string, start, reply time.Duration, color string, speed float64) []Leg {
	back := make([]string, len(keys))
	for i, k := range keys {
		back[len(keys)-1-i] = k
	}
	return []Leg{
		{Offset: start, Direction: Outbound, Color: color, Speed: speed, Keys: slices.Clone(keys)},
		{Offset: start + reply, Direction: Inbound, Color: ColorResponse, Speed: speed, Keys: back},
	}
}

// nodes resolves the leg's route. Keyed legs look up the given default
// topology.
func (l Leg) nodes(def topology.Graph) []topology.Node {
	if l.Keys == nil {
		return l.Route
	}
	return def.Path(l.Keys...)
}
