package game

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/fireworks/internal/fireworks"
)

func newGame(t *testing.T, layout Layout) *Game {
	t.Helper()
	g, err := New(DefaultSize, layout)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g
}

func TestMove(t *testing.T) {
	g := newGame(t, Layout{Bomb: Pos{4, 4}, Map: Pos{4, 3}, Exit: Pos{3, 4}})

	out, err := g.Move(Down)
	if err != nil || out != Moved {
		t.Fatalf("expected moved, got %v %v", out, err)
	}
	if g.Player() != (Pos{1, 0}) {
		t.Errorf("expected player at {1 0}, got %v", g.Player())
	}

	g.Move(Up)
	out, _ = g.Move(Up)
	if out != Blocked || g.Player() != (Pos{0, 0}) {
		t.Errorf("expected blocked at the edge, got %v at %v", out, g.Player())
	}
	out, _ = g.Move(Left)
	if out != Blocked {
		t.Errorf("expected blocked, got %v", out)
	}

	if _, err := g.Move("sideways"); !errors.Is(err, ErrUnknownDirection) {
		t.Errorf("expected ErrUnknownDirection, got %v", err)
	}
}

func TestCollectAndExit(t *testing.T) {
	g := newGame(t, Layout{Bomb: Pos{0, 2}, Map: Pos{0, 1}, Exit: Pos{1, 2}})

	out, _ := g.Move(Right)
	if out != Collected || g.LastCollected() != ItemMap {
		t.Fatalf("expected map pickup, got %v %q", out, g.LastCollected())
	}
	if !strings.Contains(g.Render(), "E") {
		t.Error("expected exit to show once the map is held")
	}

	g.Move(Down)
	if out, _ := g.Move(Right); out != Locked {
		t.Errorf("expected locked door without the bomb, got %v", out)
	}

	g.Move(Up)
	if !g.Has(ItemBomb) {
		t.Fatal("expected bomb pickup")
	}
	out, _ = g.Move(Down)
	if out != Detonated || !g.Over() {
		t.Errorf("expected detonation, got %v", out)
	}
	if _, err := g.Move(Left); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
}

func TestRenderHidesExit(t *testing.T) {
	g := newGame(t, Layout{Bomb: Pos{4, 4}, Map: Pos{4, 3}, Exit: Pos{2, 2}})
	want := "P . . . .\n. . . . .\n. . . . .\n. . . . .\n. . . . .\n"
	if got := g.Render(); got != want {
		t.Errorf("unexpected render:\n%s", got)
	}
}

func TestRepeatPickup(t *testing.T) {
	g := newGame(t, Layout{Bomb: Pos{0, 1}, Map: Pos{0, 1}, Exit: Pos{4, 4}})
	g.Move(Right)
	g.Move(Left)
	g.Move(Right)
	inv := g.Inventory()
	if inv[ItemBomb] != 2 || inv[ItemMap] != 0 {
		t.Errorf("expected bomb picked up twice from a shared cell, got %v", inv)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(0, Layout{}); err == nil {
		t.Error("expected error for empty grid")
	}
	if _, err := New(3, Layout{Exit: Pos{3, 0}}); err == nil {
		t.Error("expected error for exit outside the grid")
	}
}

func TestNewRandomIsSeeded(t *testing.T) {
	a, _ := NewRandom(DefaultSize, 9)
	b, _ := NewRandom(DefaultSize, 9)
	if a.exit != b.exit || a.items[ItemBomb] != b.items[ItemBomb] || a.items[ItemMap] != b.items[ItemMap] {
		t.Error("expected identical layouts for the same seed")
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelDetonates(t *testing.T) {
	g := newGame(t, Layout{Bomb: Pos{0, 1}, Map: Pos{4, 4}, Exit: Pos{1, 1}})
	show := fireworks.DefaultParams()
	show.Particles = 10
	show.Steps = 3

	var m tea.Model = NewModel(g, show)
	m, _ = m.Update(key("l"))
	if msg := m.(Model).Message(); msg != "Item collected: bomb" {
		t.Errorf("unexpected message %q", msg)
	}
	m, cmd := m.Update(key("j"))
	if !m.(Model).Detonated() {
		t.Fatal("expected hand-over to the fireworks view")
	}
	if cmd == nil {
		t.Error("expected the live view to start ticking")
	}
}
