package sink

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// Terminal glyphs.
const (
	edgeGlyph   = '·'
	nodeGlyph   = '●'
	packetGlyph = '◆'
)

// TerminalOption configures terminal rendering.
type TerminalOption func(*terminalRenderer)

type terminalRenderer struct {
	cols, rows int
	legend     bool
	color      bool
}

// WithGrid sets the raster size in character cells.
func WithGrid(cols, rows int) TerminalOption {
	return func(r *terminalRenderer) {
		if cols > 1 && rows > 1 {
			r.cols, r.rows = cols, rows
		}
	}
}

// WithLegend appends one line per node with its label and host name.
func WithLegend() TerminalOption { return func(r *terminalRenderer) { r.legend = true } }

// WithoutColor renders plain runes.
func WithoutColor() TerminalOption { return func(r *terminalRenderer) { r.color = false } }

type cell struct {
	r     rune
	color string
}

// RenderTerminal rasterises a frame into a character grid. Edges are drawn
// first, then nodes, then packets, so later layers cover earlier ones.
func RenderTerminal(f anim.Frame, opts ...TerminalOption) string {
	r := terminalRenderer{cols: 80, rows: 20, color: true}
	for _, opt := range opts {
		opt(&r)
	}

	g := f.Graph
	grid := make([][]cell, r.rows)
	for i := range grid {
		grid[i] = make([]cell, r.cols)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' '}
		}
	}

	project := func(x, y float64) (int, int) {
		if g.Width <= 0 || g.Height <= 0 {
			return 0, 0
		}
		c := int(math.Round(x / g.Width * float64(r.cols-1)))
		l := int(math.Round(y / g.Height * float64(r.rows-1)))
		return min(max(c, 0), r.cols-1), min(max(l, 0), r.rows-1)
	}
	plot := func(x, y float64, ch rune, color string) {
		c, l := project(x, y)
		grid[l][c] = cell{r: ch, color: color}
	}

	for _, e := range g.Edges {
		if e.From < 0 || e.To < 0 || e.From >= len(g.Nodes) || e.To >= len(g.Nodes) {
			continue
		}
		a, b := g.Nodes[e.From], g.Nodes[e.To]
		c0, l0 := project(a.X, a.Y)
		c1, l1 := project(b.X, b.Y)
		steps := max(abs(c1-c0), abs(l1-l0), 1)
		for i := 0; i <= steps; i++ {
			t := float64(i) / float64(steps)
			plot(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t, edgeGlyph, edgeColor)
		}
	}
	for _, n := range g.Nodes {
		plot(n.X, n.Y, nodeGlyph, n.Color)
	}
	for _, s := range f.Sprites {
		plot(s.X, s.Y, packetGlyph, s.Color)
	}

	var sb strings.Builder
	for i, line := range grid {
		for _, c := range line {
			sb.WriteString(r.paint(string(c.r), c.color))
		}
		if i < len(grid)-1 {
			sb.WriteByte('\n')
		}
	}

	if r.legend {
		for _, n := range g.Nodes {
			sb.WriteByte('\n')
			sb.WriteString(r.paint(string(nodeGlyph), n.Color))
			sb.WriteString(" " + legendLine(n))
		}
	}
	return sb.String()
}

func (r terminalRenderer) paint(s, color string) string {
	if !r.color || color == "" {
		return s
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(s)
}

func legendLine(n topology.Node) string {
	line := n.Label
	if n.FullLabel != "" && n.FullLabel != n.Label {
		line += "  " + n.FullLabel
	}
	if n.IP != "" {
		line += fmt.Sprintf("  (%s, %.1f ms)", n.IP, n.Time)
	}
	return line
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
