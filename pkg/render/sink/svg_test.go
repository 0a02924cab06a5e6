package sink

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

func testFrame(t *testing.T, dpr float64) anim.Frame {
	t.Helper()
	s := anim.NewSession(topology.NewSurface(800, 400, dpr))
	s.Handle(anim.Request{Type: anim.Reachability, Route: []route.Hop{
		{IP: "192.168.1.1", Name: "home-router.local", Time: 1},
		{IP: "203.0.113.9", Name: "gateway.isp-provider.net", Time: 8},
		{IP: "93.184.216.34", Name: "example.com", Time: 20},
	}})
	return s.Tick(0)
}

func TestRenderSVGWellFormed(t *testing.T) {
	svg := RenderSVG(testFrame(t, 1), WithTitle("ping <example.com>"))

	dec := xml.NewDecoder(strings.NewReader(string(svg)))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("invalid XML: %v", err)
		}
	}
	if !strings.Contains(string(svg), "ping &lt;example.com&gt;") {
		t.Error("title not escaped")
	}
}

func TestRenderSVGDevicePixels(t *testing.T) {
	svg := string(RenderSVG(testFrame(t, 2)))
	if !strings.Contains(svg, `viewBox="0 0 800.0 400.0" width="1600" height="800"`) {
		t.Errorf("unexpected svg header: %s", strings.SplitN(svg, "\n", 2)[0])
	}
}

func TestRenderSVGContent(t *testing.T) {
	svg := string(RenderSVG(testFrame(t, 1)))

	tests := []struct {
		name  string
		want  string
		count int
	}{
		{"edges", `class="edge"`, 3},
		{"nodes", `<g class="node`, 4},
		{"packet", `class="packet outbound"`, 1},
		{"glow", `fill="url(#glow-ff6b6b)"`, 1},
		{"gradient", `<radialGradient id="glow-ff6b6b">`, 1},
		{"truncated detail", "gateway.isp-pro...", 1},
	}
	for _, tt := range tests {
		if got := strings.Count(svg, tt.want); got != tt.count {
			t.Errorf("%s: found %d of %q, want %d", tt.name, got, tt.want, tt.count)
		}
	}
}

func TestRenderSVGLabelPlacement(t *testing.T) {
	above := topology.Node{X: 100, Y: 130}
	below := topology.Node{X: 100, Y: 270}
	if got := labelY(above, 200); got != 102 {
		t.Errorf("label above = %v, want 102", got)
	}
	if got := labelY(below, 200); got != 308 {
		t.Errorf("label below = %v, want 308", got)
	}
}

func TestRenderSVGOptions(t *testing.T) {
	f := testFrame(t, 1)

	svg := string(RenderSVG(f, WithoutPackets(), WithoutDetail(), WithBackground("#f7fafc")))
	if strings.Contains(svg, "packet") || strings.Contains(svg, "radialGradient") {
		t.Error("WithoutPackets still drew packets")
	}
	if strings.Contains(svg, "example.com") {
		t.Error("WithoutDetail still drew host names")
	}
	if !strings.Contains(svg, `fill="#f7fafc"`) {
		t.Error("background missing")
	}
}

func TestRenderGraphSVGDefaultTopology(t *testing.T) {
	g := topology.Default(topology.NewSurface(800, 400, 1))
	svg := string(RenderGraphSVG(g, 1))
	if got := strings.Count(svg, `class="edge"`); got != 5 {
		t.Errorf("default topology edges = %d, want 5", got)
	}
	if strings.Contains(svg, "<defs>") {
		t.Error("graph without packets should not emit gradients")
	}
}
