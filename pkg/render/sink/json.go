package sink

import (
	"encoding/json"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/topology"
)

type jsonOutput struct {
	Seq         uint64       `json:"seq"`
	ElapsedMS   int64        `json:"elapsed_ms"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	PixelWidth  int          `json:"pixel_width"`
	PixelHeight int          `json:"pixel_height"`
	DPR         float64      `json:"dpr"`
	Default     bool         `json:"default,omitempty"`
	Nodes       []jsonNode   `json:"nodes"`
	Edges       []jsonEdge   `json:"edges"`
	Packets     []jsonPacket `json:"packets"`
	Pending     int          `json:"pending"`
	Replay      bool         `json:"replay"`
	Fault       string       `json:"fault,omitempty"`
}

type jsonNode struct {
	Key       string  `json:"key"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Label     string  `json:"label"`
	FullLabel string  `json:"full_label,omitempty"`
	Detail    string  `json:"detail,omitempty"` // truncated full label as drawn
	Color     string  `json:"color"`
	Kind      string  `json:"kind"`
	Hop       int     `json:"hop"`
	IP        string  `json:"ip,omitempty"`
	TimeMS    float64 `json:"time_ms,omitempty"`
}

type jsonEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type jsonPacket struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
	Direction string  `json:"direction"`
	Command   string  `json:"command"`
}

// RenderJSON exports a frame as a pretty-printed JSON document for browser
// hosts that draw on their own canvas. Edges refer to node keys.
func RenderJSON(f anim.Frame) ([]byte, error) {
	return json.MarshalIndent(buildJSON(f), "", "  ")
}

// RenderGraphJSON exports a topology without packets.
func RenderGraphJSON(g topology.Graph, dpr float64) ([]byte, error) {
	return RenderJSON(anim.Frame{Graph: g, DPR: dpr})
}

func buildJSON(f anim.Frame) jsonOutput {
	g := f.Graph
	dpr := max(f.DPR, 1)
	out := jsonOutput{
		Seq:         f.Seq,
		ElapsedMS:   f.Now.Milliseconds(),
		Width:       g.Width,
		Height:      g.Height,
		PixelWidth:  int(g.Width*dpr + 0.5),
		PixelHeight: int(g.Height*dpr + 0.5),
		DPR:         dpr,
		Default:     g.Default,
		Nodes:       make([]jsonNode, 0, len(g.Nodes)),
		Edges:       make([]jsonEdge, 0, len(g.Edges)),
		Packets:     make([]jsonPacket, 0, len(f.Sprites)),
		Pending:     f.Pending,
		Replay:      f.Replay,
		Fault:       f.Fault,
	}

	for _, n := range g.Nodes {
		jn := jsonNode{
			Key: n.Key, X: n.X, Y: n.Y,
			Label: n.Label, FullLabel: n.FullLabel,
			Color: n.Color, Kind: string(n.Kind), Hop: n.HopNumber,
			IP: n.IP, TimeMS: n.Time,
		}
		if n.FullLabel != "" && n.FullLabel != n.Label {
			jn.Detail = topology.TruncateLabel(n.FullLabel)
		}
		out.Nodes = append(out.Nodes, jn)
	}
	for _, e := range g.Edges {
		if e.From < 0 || e.To < 0 || e.From >= len(g.Nodes) || e.To >= len(g.Nodes) {
			continue
		}
		out.Edges = append(out.Edges, jsonEdge{From: g.Nodes[e.From].Key, To: g.Nodes[e.To].Key})
	}
	for _, s := range f.Sprites {
		out.Packets = append(out.Packets, jsonPacket{
			X: s.X, Y: s.Y, Color: s.Color,
			Direction: string(s.Direction), Command: string(s.Command),
		})
	}
	return out
}
