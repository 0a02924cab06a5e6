package topology_test

import (
	"fmt"

	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

func ExampleLayout() {
	hops := []route.Hop{
		{IP: "192.168.1.1", Name: "home-router.local", Time: 1.2},
		{IP: "203.0.113.1", Name: "gateway.isp-provider.net", Time: 8.4},
		{IP: "93.184.216.34", Name: "example.com", Time: 21.7},
	}

	s := topology.NewSurface(800, 400, 1)
	g := topology.Layout(hops, s)

	for _, n := range g.Nodes {
		fmt.Printf("%-6s %-11s (%.0f, %.0f)\n", n.Key, n.Kind, n.X, n.Y)
	}
	// Output:
	// pc     self        (50, 200)
	// hop-1  home        (170, 130)
	// hop-2  isp         (290, 270)
	// hop-3  destination (410, 130)
}

func ExampleClassify() {
	fmt.Println(topology.Classify("ix-dojima.jpnap.net", false))
	fmt.Println(topology.Classify("core-1.example.net", false))
	fmt.Println(topology.Classify("example.com", true))
	// Output:
	// exchange
	// router
	// destination
}
