package game

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fireworks/internal/fireworks"
	"github.com/san-kum/fireworks/internal/viz"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff")).MarginBottom(1)
	gridStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(0, 1)
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00")).MarginTop(1)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

var keyDirections = map[string]Direction{
	"up": Up, "k": Up, "w": Up,
	"down": Down, "j": Down, "s": Down,
	"left": Left, "h": Left, "a": Left,
	"right": Right, "l": Right, "d": Right,
}

// Model plays the game in the terminal and hands over to a fireworks live
// view once the door is blown.
type Model struct {
	game    *Game
	show    fireworks.Params
	message string
	live    *viz.Model
}

// NewModel wraps g. show is the simulation that plays on detonation.
func NewModel(g *Game, show fireworks.Params) Model {
	return Model{game: g, show: show}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.live != nil {
		next, cmd := m.live.Update(msg)
		live := next.(viz.Model)
		m.live = &live
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}
	dir, ok := keyDirections[key.String()]
	if !ok {
		return m, nil
	}

	outcome, err := m.game.Move(dir)
	if err != nil {
		m.message = err.Error()
		return m, nil
	}
	m.message = m.describe(outcome)
	if outcome != Detonated {
		return m, nil
	}

	live, err := viz.NewModel(m.show, viz.Options{Title: "take cover!"})
	if err != nil {
		m.message = err.Error()
		return m, nil
	}
	m.live = &live
	return m, live.Init()
}

func (m Model) describe(o Outcome) string {
	switch o {
	case Blocked:
		return "You can't go that way."
	case Collected:
		return fmt.Sprintf("Item collected: %s", m.game.LastCollected())
	case Locked:
		return "The door is locked. You need a key... or something more definitive."
	case Detonated:
		return "Take cover!"
	}
	return ""
}

// Detonated reports whether the game has handed over to the fireworks.
func (m Model) Detonated() bool { return m.live != nil }

func (m Model) Message() string { return m.message }

func (m Model) View() string {
	if m.live != nil {
		return m.live.View()
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("FIND THE EXIT") + "\n")
	s.WriteString(gridStyle.Render(strings.TrimRight(m.game.Render(), "\n")) + "\n")

	inv := m.game.Inventory()
	var held []string
	for _, it := range items {
		if n := inv[it]; n > 0 {
			held = append(held, fmt.Sprintf("%s x%d", it, n))
		}
	}
	if len(held) == 0 {
		held = append(held, "empty")
	}
	s.WriteString("Inventory: " + strings.Join(held, ", ") + "\n")
	if m.message != "" {
		s.WriteString(messageStyle.Render(m.message) + "\n")
	}
	s.WriteString(hintStyle.Render("arrows/hjkl/wasd: move  q: quit"))
	return s.String()
}

// Play runs the game full screen until the player quits.
func Play(g *Game, show fireworks.Params) error {
	_, err := tea.NewProgram(NewModel(g, show), tea.WithAltScreen()).Run()
	return err
}
