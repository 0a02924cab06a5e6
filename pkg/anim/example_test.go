package anim_test

import (
	"fmt"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

func ExampleSession_Handle() {
	hops := []route.Hop{
		{IP: "192.168.1.1", Name: "home-router.local"},
		{IP: "93.184.216.34", Name: "example.com"},
	}

	s := anim.NewSession(topology.NewSurface(800, 400, 1))
	g := s.Handle(anim.Request{Type: anim.RouteTrace, Route: hops})

	for _, h := range g.Tasks {
		leg := h.Leg()
		fmt.Printf("%5v %-8s %d nodes at speed %v\n", leg.Offset, leg.Direction, len(leg.Route), leg.Speed)
	}
	// Output:
	//    0s outbound 2 nodes at speed 2
	// 250ms inbound  2 nodes at speed 2
	//    1s outbound 3 nodes at speed 2
	// 1.25s inbound  3 nodes at speed 2
}

func ExamplePlan() {
	sc, err := anim.Plan(anim.Request{Type: anim.Lookup}, *topology.NewSurface(800, 400, 1))
	if err != nil {
		panic(err)
	}
	for _, leg := range sc.Legs {
		fmt.Println(leg.Offset, leg.Direction, leg.Keys)
	}
	// Output:
	// 0s outbound [pc router1 isp dns]
	// 1s inbound [dns isp router1 pc]
}
