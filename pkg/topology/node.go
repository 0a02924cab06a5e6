package topology

import (
	"fmt"
	"strings"

	"github.com/matzehuels/packetflow/pkg/route"
)

// Kind is the visual category of a node.
type Kind string

// Node kinds, in classification priority order after KindSelf.
const (
	KindSelf        Kind = "self"
	KindHome        Kind = "home"
	KindISP         Kind = "isp"
	KindExchange    Kind = "exchange"
	KindBackbone    Kind = "backbone"
	KindEdge        Kind = "edge"
	KindDestination Kind = "destination"
	KindRouter      Kind = "router"
	KindDNS         Kind = "dns"
	KindServer      Kind = "server"
)

// Node is a positioned vertex of a laid-out topology.
type Node struct {
	Key       string  `json:"key"` // stable identifier within its graph
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Label     string  `json:"label"`      // icon + short label
	FullLabel string  `json:"full_label"` // full host name
	Color     string  `json:"color"`
	Kind      Kind    `json:"kind"`
	HopNumber int     `json:"hop"`
	IP        string  `json:"ip,omitempty"`
	Time      float64 `json:"time,omitempty"`
}

// category describes how one kind of node is drawn.
type category struct {
	kind     Kind
	icon     string
	color    string
	short    string
	keywords []string
}

// categories are tested in order; the first match wins.
var categories = []category{
	{KindHome, "🏠", "#667eea", "Home", []string{"home-router", "my-router"}},
	{KindISP, "🌐", "#ed8936", "ISP", []string{"gateway", "isp"}},
	{KindExchange, "🌍", "#f56565", "IX", []string{"international", "ix"}},
	{KindBackbone, "⚡", "#9f7aea", "BB", []string{"backbone"}},
	{KindEdge, "☁️", "#4299e1", "CDN", []string{"edge", "cdn"}},
}

var (
	destinationCategory = category{kind: KindDestination, icon: "🎯", color: "#38b2ac", short: "Dest"}
	routerCategory      = category{kind: KindRouter, icon: "🔀", color: "#48bb78"}
)

// Classify returns the kind of a hop. Matching is case-sensitive substring
// containment. A hop that matches no keyword is a destination when last is
// true and a router otherwise.
func Classify(name string, last bool) Kind {
	return classify(name, last).kind
}

func classify(name string, last bool) category {
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(name, kw) {
				return c
			}
		}
	}
	if last {
		return destinationCategory
	}
	return routerCategory
}

// selfNode returns the local machine node at (x, y).
func selfNode(x, y float64) Node {
	return Node{
		Key:       "pc",
		X:         x,
		Y:         y,
		Label:     "🖥️ PC",
		FullLabel: "Your PC",
		Color:     "#667eea",
		Kind:      KindSelf,
		HopNumber: 0,
	}
}

// hopNode builds the node for hop number n (1-indexed) at (x, y).
func hopNode(h route.Hop, n int, last bool, x, y float64) Node {
	c := classify(h.Name, last)
	short := c.short
	if short == "" {
		short = fmt.Sprintf("#%d", n)
	}
	return Node{
		Key:       fmt.Sprintf("hop-%d", n),
		X:         x,
		Y:         y,
		Label:     c.icon + " " + short,
		FullLabel: h.Name,
		Color:     c.color,
		Kind:      c.kind,
		HopNumber: n,
		IP:        h.IP,
		Time:      h.Time,
	}
}

// maxDetailLength is the longest full label drawn without truncation.
const maxDetailLength = 18

// TruncateLabel shortens s for the detail line under a node label.
func TruncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxDetailLength {
		return s
	}
	return string(r[:maxDetailLength-3]) + "..."
}
