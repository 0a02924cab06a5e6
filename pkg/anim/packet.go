package anim

import (
	"github.com/google/uuid"

	"github.com/matzehuels/packetflow/pkg/topology"
)

// BaseStep is the fraction of a segment a speed-1 packet covers per frame.
const BaseStep = 0.01

// Packet is a token travelling along a leg's route. Route is a snapshot and
// is never modified once the packet exists.
type Packet struct {
	Route     []topology.Node `json:"route"`
	Index     int             `json:"index"`
	Progress  float64         `json:"progress"`
	Color     string          `json:"color"`
	Speed     float64         `json:"speed"`
	Active    bool            `json:"active"`
	Direction Direction       `json:"direction"`
	Command   CommandType     `json:"command"`
	Group     uuid.UUID       `json:"group"`
}

func newPacket(route []topology.Node, leg Leg, cmd CommandType, group uuid.UUID) *Packet {
	return &Packet{
		Route:     route,
		Color:     leg.Color,
		Speed:     leg.Speed,
		Active:    true,
		Direction: leg.Direction,
		Command:   cmd,
		Group:     group,
	}
}

// Position returns the packet's interpolated position on its current
// segment. ok is false once no next node remains.
func (p *Packet) Position() (x, y float64, ok bool) {
	if p.Index < 0 || p.Index+1 >= len(p.Route) {
		return 0, 0, false
	}
	a, b := p.Route[p.Index], p.Route[p.Index+1]
	return a.X + (b.X-a.X)*p.Progress, a.Y + (b.Y-a.Y)*p.Progress, true
}

// advance moves the packet one frame forward.
func (p *Packet) advance() {
	p.Progress += BaseStep * p.Speed
	if p.Progress >= 1 {
		p.Progress = 0
		p.Index++
	}
}
