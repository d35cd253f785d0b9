package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fireworks/internal/fireworks"
	"github.com/san-kum/fireworks/internal/metrics"
)

const (
	defaultWidth    = 48
	defaultHeight   = 22
	defaultFPS      = 30
	historyCapacity = 600
)

type TickMsg time.Time

// Options tunes the live view. The zero value is usable.
type Options struct {
	Title   string
	Width   int // canvas width in cells
	Height  int // canvas height in cells
	FPS     int
	Endless bool // keep stepping past Params.Steps
	Heatmap bool // show the density panel on start
	Theme   string
}

// Model steps a simulation on every tick and draws the particle cloud, the
// density map and a few running metrics.
type Model struct {
	params  fireworks.Params
	opts    Options
	sim     *fireworks.Simulation
	energy  *metrics.KineticEnergy
	hits    *metrics.Collisions
	canvas  *Canvas
	frame   fireworks.Frame
	stepped bool

	energyHistory []float64
	inBoxHistory  []float64

	running  bool
	showHeat bool
	showHelp bool
}

// NewModel builds the simulation for p and wraps it in a live view.
func NewModel(p fireworks.Params, opts Options) (Model, error) {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if opts.FPS <= 0 {
		opts.FPS = defaultFPS
	}
	if opts.Title == "" {
		opts.Title = "fireworks"
	}

	if opts.Theme != "" {
		SetTheme(opts.Theme)
	}

	m := Model{
		params:   p,
		opts:     opts,
		canvas:   NewCanvas(opts.Width, opts.Height),
		running:  true,
		showHeat: opts.Heatmap,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			// Params were validated when the model was built.
			_ = m.reset()
		case "t":
			SetTheme(NextTheme(CurrentTheme.Name).Name)
		case "h":
			m.showHeat = !m.showHeat
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.Done() {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// Done reports whether the run has used up its steps. An endless view is
// never done.
func (m Model) Done() bool {
	return !m.opts.Endless && m.sim.StepCount() >= m.params.Steps
}

func (m Model) Running() bool { return m.running }

func (m Model) StepCount() int { return m.sim.StepCount() }

// Density returns the accumulated map of the current run.
func (m Model) Density() fireworks.DensitySnapshot { return m.sim.Density() }

func (m *Model) step() {
	m.frame = m.sim.Step()
	m.stepped = true

	m.energyHistory = appendCapped(m.energyHistory, m.energy.Value())
	m.inBoxHistory = appendCapped(m.inBoxHistory, float64(m.frame.InBox))
}

// reset starts a fresh simulation with the same parameters, so the same
// seed replays the same run.
func (m *Model) reset() error {
	sim, err := fireworks.New(m.params)
	if err != nil {
		return err
	}
	m.energy = metrics.NewKineticEnergy()
	m.hits = metrics.NewCollisions()
	sim.AddMetric(m.energy)
	sim.AddMetric(m.hits)

	m.sim = sim
	m.frame = fireworks.Frame{}
	m.stepped = false
	m.energyHistory = make([]float64, 0, historyCapacity)
	m.inBoxHistory = make([]float64, 0, historyCapacity)
	return nil
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.canvas.Frame()
	xs, ys := m.sim.Positions()
	m.canvas.Plot(m.params.Box(), xs, ys)
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	theme := CurrentTheme

	canvasView := panelStyle.BorderForeground(theme.Muted).Render(
		lipgloss.NewStyle().Foreground(theme.Primary).Render(m.canvas.String()))

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.opts.Title), theme.Primary, theme.Secondary) + "\n\n")

	var status string
	switch {
	case m.Done():
		status = statusDone.Render("DONE")
	case m.running:
		status = statusRunning.Render("RUNNING")
	default:
		status = statusPaused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	steps := m.sim.StepCount()
	if !m.opts.Endless {
		s.WriteString(ProgressBar(float64(steps)/float64(m.params.Steps), 24) + "\n")
	}
	s.WriteString(row("Step", fmt.Sprintf("%d", steps)))
	s.WriteString(row("Time", fmt.Sprintf("%.2f", float64(steps)*m.params.Dt)))
	s.WriteString(row("Particles", fmt.Sprintf("%d", m.params.Particles)))
	if m.stepped {
		s.WriteString(row("In box", fmt.Sprintf("%d", m.frame.InBox)))
	}
	s.WriteString(row("Collisions", fmt.Sprintf("%.0f", m.hits.Value())))
	s.WriteString(row("Energy", fmt.Sprintf("%.3f", m.energy.Value())))
	s.WriteString(row("Retained", fmt.Sprintf("%.1f%%", 100*m.energy.Retained())))
	s.WriteString(row("Theme", theme.Name))

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(28), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.inBoxHistory) > 0 {
		s.WriteString(labelStyle.Render("In box") + SparklineChart(m.inBoxHistory, 24) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Restart H:Heatmap\nT:Theme  ?:Help      Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHeat {
		heat := panelStyle.BorderForeground(theme.Muted).Render(
			Heatmap(m.sim.Density(), m.opts.Width, m.opts.Height/2))
		mainView = lipgloss.JoinVertical(lipgloss.Left, mainView, heat)
	}
	if m.showHelp {
		return helpOverlay + "\n  Themes: " + strings.Join(ThemeNames(), ", ") + "\n\n" + mainView
	}
	return mainView
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

const helpOverlay = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Restart the run          ║
║  H        - Toggle density heatmap   ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run opens the live view full screen and blocks until the user quits.
func Run(p fireworks.Params, opts Options) error {
	m, err := NewModel(p, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
