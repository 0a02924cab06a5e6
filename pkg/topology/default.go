package topology

// Keys of the default topology nodes.
const (
	KeyPC      = "pc"
	KeyRouter1 = "router1"
	KeyISP     = "isp"
	KeyRouter2 = "router2"
	KeyDNS     = "dns"
	KeyServer  = "server"
)

// defaultBranchOffset is the vertical offset of router2 and dns from centre.
const defaultBranchOffset = 60.0

// Default returns the fixed six-node topology used when no route is given:
// pc → router1 → isp, which forks to router2 → server and to dns.
// Only the vertical centre depends on the surface.
func Default(s *Surface) Graph {
	cy := s.Height() / 2
	nodes := []Node{
		{Key: KeyPC, X: 50, Y: cy, Label: "🖥️ Your PC", Color: "#667eea", Kind: KindSelf},
		{Key: KeyRouter1, X: 200, Y: cy, Label: "🔀 Router 1", Color: "#48bb78", Kind: KindRouter},
		{Key: KeyISP, X: 350, Y: cy, Label: "☁️ ISP", Color: "#ed8936", Kind: KindISP},
		{Key: KeyRouter2, X: 500, Y: cy - defaultBranchOffset, Label: "🔀 Router 2", Color: "#48bb78", Kind: KindRouter},
		{Key: KeyDNS, X: 500, Y: cy + defaultBranchOffset, Label: "🌐 DNS", Color: "#9f7aea", Kind: KindDNS},
		{Key: KeyServer, X: 650, Y: cy, Label: "🖥️ Server", Color: "#38b2ac", Kind: KindServer},
	}
	return Graph{
		Nodes: nodes,
		Edges: []Edge{
			{From: 0, To: 1}, // pc - router1
			{From: 1, To: 2}, // router1 - isp
			{From: 2, To: 3}, // isp - router2
			{From: 2, To: 4}, // isp - dns
			{From: 3, To: 5}, // router2 - server
		},
		Width:   s.Width(),
		Height:  s.Height(),
		Default: true,
	}
}
