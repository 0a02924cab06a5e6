package anim

import (
	"time"

	"github.com/matzehuels/packetflow/pkg/topology"
)

// Sprite is one packet as drawn in a frame.
type Sprite struct {
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Color     string      `json:"color"`
	Direction Direction   `json:"direction"`
	Command   CommandType `json:"command"`
}

// Frame is the render command list for one tick: the static topology first,
// then the packet sprites in live-set order.
type Frame struct {
	Seq     uint64         `json:"seq"`
	Now     time.Duration  `json:"now"`
	Graph   topology.Graph `json:"graph"`
	Sprites []Sprite       `json:"sprites"`
	DPR     float64        `json:"dpr"`

	// Pending is the number of leg starts still waiting on the timeline.
	Pending int `json:"pending"`

	// Replay reports whether a replay control should be offered.
	Replay bool `json:"replay"`

	// Fault is set when the tick recovered from a panic and the frame holds
	// only the static topology.
	Fault string `json:"fault,omitempty"`
}

// Empty reports whether no packet is drawn.
func (f Frame) Empty() bool { return len(f.Sprites) == 0 }
