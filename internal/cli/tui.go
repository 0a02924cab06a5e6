package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/render/sink"
	"github.com/matzehuels/packetflow/pkg/route"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	minGridCols = 20
	minGridRows = 8
	chromeRows  = 6
)

// playerKeys defines the player's keyboard shortcuts.
type playerKeys struct {
	Lookup      key.Binding
	Ping        key.Binding
	Trace       key.Binding
	LocalConfig key.Binding
	Replay      key.Binding
	Clear       key.Binding
	Next        key.Binding
	Prev        key.Binding
	Legend      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func (k playerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Lookup, k.Ping, k.Trace, k.LocalConfig, k.Replay, k.Clear, k.Next, k.Help, k.Quit}
}

func (k playerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Lookup, k.Ping, k.Trace, k.LocalConfig},
		{k.Replay, k.Clear, k.Legend},
		{k.Next, k.Prev, k.Help, k.Quit},
	}
}

func newPlayerKeys() playerKeys {
	return playerKeys{
		Lookup:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lookup")),
		Ping:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "ping")),
		Trace:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "traceroute")),
		LocalConfig: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "ipconfig")),
		Replay:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "replay"), key.WithDisabled()),
		Clear:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Next:        key.NewBinding(key.WithKeys("tab", "down", "j"), key.WithHelp("tab", "destination")),
		Prev:        key.NewBinding(key.WithKeys("shift+tab", "up", "k"), key.WithHelp("shift+tab", "previous")),
		Legend:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "legend")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// resolveFunc looks up the route to a destination.
type resolveFunc func(ctx context.Context, dest string) ([]route.Hop, error)

// =============================================================================
// PlayerModel - Interactive packet animation
// =============================================================================

// tickMsg asks the model to advance the session by one frame.
type tickMsg time.Time

// routeMsg delivers a resolved route for a pending command.
type routeMsg struct {
	command anim.CommandType
	dest    string
	hops    []route.Hop
	err     error
}

// PlayerModel is the bubbletea model for the interactive player. It owns the
// session and is the only goroutine that touches it.
type PlayerModel struct {
	Session      *anim.Session
	Destinations []string
	Cursor       int

	ctx     context.Context
	resolve resolveFunc
	fps     int
	start   time.Time
	clock   func() time.Time

	keys playerKeys
	help help.Model

	frame  anim.Frame
	cols   int
	rows   int
	legend bool
	status string
	err    error

	// initial is issued by Init, for `play <command> [dest]`.
	initial *anim.CommandType
}

// NewPlayerModel creates a player over s. Destinations are cycled with tab;
// resolve is called off the update loop for commands that follow a route.
func NewPlayerModel(ctx context.Context, s *anim.Session, destinations []string, resolve resolveFunc, fps int) PlayerModel {
	if fps <= 0 {
		fps = anim.DefaultFPS
	}
	return PlayerModel{
		Session:      s,
		Destinations: destinations,
		ctx:          ctx,
		resolve:      resolve,
		fps:          fps,
		keys:         newPlayerKeys(),
		help:         help.New(),
		clock:        time.Now,
		start:        time.Now(),
		cols:         80,
		rows:         20,
	}
}

// Destination returns the selected destination, or "" when none is known.
func (m PlayerModel) Destination() string {
	if len(m.Destinations) == 0 {
		return ""
	}
	return m.Destinations[m.Cursor%len(m.Destinations)]
}

// withInitial schedules a command to be issued when the program starts.
func (m PlayerModel) withInitial(ct anim.CommandType) PlayerModel {
	m.initial = &ct
	return m
}

func (m PlayerModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m PlayerModel) Init() tea.Cmd {
	if m.initial != nil {
		return tea.Batch(m.tick(), m.issueCmd(*m.initial))
	}
	return m.tick()
}

func (m PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		m.frame = m.Session.Tick(m.clock().Sub(m.start))
		if m.frame.Fault != "" {
			m.status = "recovered from fault: " + m.frame.Fault
		}
		return m, m.tick()
	case routeMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.handle(anim.Request{Type: msg.command, Route: msg.hops}, msg.dest)
	case tea.WindowSizeMsg:
		m.cols = max(msg.Width, minGridCols)
		m.help.Width = msg.Width
		m.rows = max(msg.Height-chromeRows, minGridRows)
	}
	return m, nil
}

func (m PlayerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.keys.Replay.SetEnabled(m.Session.HasReplay())

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Lookup):
		return m, m.issueCmd(anim.Lookup)
	case key.Matches(msg, m.keys.Ping):
		return m, m.issueCmd(anim.Reachability)
	case key.Matches(msg, m.keys.Trace):
		return m, m.issueCmd(anim.RouteTrace)
	case key.Matches(msg, m.keys.LocalConfig):
		return m, m.issueCmd(anim.LocalConfig)
	case key.Matches(msg, m.keys.Replay):
		if g := m.Session.Replay(); g != nil {
			m.status = fmt.Sprintf("replayed %s", g.Request.Type)
		}
	case key.Matches(msg, m.keys.Clear):
		m.Session.ClearPackets()
		m.status = "cleared"
	case key.Matches(msg, m.keys.Legend):
		m.legend = !m.legend
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Next):
		if len(m.Destinations) > 0 {
			m.Cursor = (m.Cursor + 1) % len(m.Destinations)
		}
	case key.Matches(msg, m.keys.Prev):
		if len(m.Destinations) > 0 {
			m.Cursor = (m.Cursor - 1 + len(m.Destinations)) % len(m.Destinations)
		}
	}
	return m, nil
}

// issueCmd returns a command that produces a routeMsg. Commands that follow a
// route resolve the selected destination first; the others go straight to the
// session on the next update.
func (m PlayerModel) issueCmd(ct anim.CommandType) tea.Cmd {
	dest := m.Destination()
	if !ct.UsesRoute() || dest == "" || m.resolve == nil {
		return func() tea.Msg { return routeMsg{command: ct} }
	}
	ctx, resolve := m.ctx, m.resolve
	return func() tea.Msg {
		hops, err := resolve(ctx, dest)
		return routeMsg{command: ct, dest: dest, hops: hops, err: err}
	}
}

func (m *PlayerModel) handle(req anim.Request, dest string) {
	g := m.Session.Handle(req)
	if g == nil {
		return
	}
	m.status = fmt.Sprintf("%s %s: %d legs", req.Type, destinationLabel(dest), len(g.Tasks))
}

func (m PlayerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("packetflow"))
	b.WriteString("  ")
	b.WriteString(m.destinationLine())
	b.WriteString("\n\n")

	opts := []sink.TerminalOption{sink.WithGrid(m.cols, m.rows)}
	if m.legend {
		opts = append(opts, sink.WithLegend())
	}
	b.WriteString(sink.RenderTerminal(m.frame, opts...))
	b.WriteString("\n\n")

	b.WriteString(m.helpLine())
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error())
	case m.status != "":
		b.WriteString(styleIconInfo.Render(iconInfo) + " " + m.status)
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d packets, %d pending, %s]",
		len(m.frame.Sprites), m.frame.Pending, m.frame.Now.Round(time.Millisecond))))

	return b.String()
}

func (m PlayerModel) destinationLine() string {
	if len(m.Destinations) == 0 {
		return listDimStyle.Render("default topology")
	}
	return listSelectedStyle.Render(m.Destination()) +
		listDimStyle.Render(fmt.Sprintf(" [%d/%d]", m.Cursor+1, len(m.Destinations)))
}

// helpLine lists the key bindings. Replay is offered only once a request has
// been made.
func (m PlayerModel) helpLine() string {
	keys := m.keys
	keys.Replay.SetEnabled(m.Session.HasReplay())
	return m.help.View(keys)
}
