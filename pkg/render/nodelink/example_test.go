package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/packetflow/pkg/render/nodelink"
	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

func ExampleToDOT() {
	g := topology.Layout([]route.Hop{
		{IP: "203.0.113.1", Name: "gateway.isp-provider.net"},
		{IP: "93.184.216.34", Name: "example.com"},
	}, topology.NewSurface(800, 400, 1))

	dot := nodelink.ToDOT(g, nodelink.Options{})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, " -- ") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "pc" -- "hop-1";
	// "hop-1" -- "hop-2";
}
