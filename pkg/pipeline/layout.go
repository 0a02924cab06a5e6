package pipeline

import (
	"encoding/json"

	"github.com/matzehuels/packetflow/pkg/cache"
	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// Layout places hops on a fresh surface sized by opts. An empty route yields
// the default topology.
func Layout(hops []route.Hop, opts Options) topology.Graph {
	opts.SetLayoutDefaults()
	return topology.Layout(hops, opts.Surface())
}

// RouteHash returns the content hash of a hop list. The empty route has a
// fixed hash shared by every default-topology layout.
func RouteHash(hops []route.Hop) string {
	if len(hops) == 0 {
		return cache.Hash([]byte("default"))
	}
	data, _ := json.Marshal(hops)
	return cache.Hash(data)
}

// LayoutHash returns the content hash of a laid-out graph.
func LayoutHash(g topology.Graph) (string, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
