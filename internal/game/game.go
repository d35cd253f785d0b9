// Package game is a small grid game: find the bomb, find the exit, and the
// door goes up in fireworks.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

const DefaultSize = 5

var (
	ErrGameOver         = errors.New("game: game is over")
	ErrUnknownDirection = errors.New("game: unknown direction")
)

type Pos struct {
	Row, Col int
}

type Item string

const (
	ItemBomb Item = "bomb"
	ItemMap  Item = "map"
)

// items fixes the order in which a shared cell is searched.
var items = []Item{ItemBomb, ItemMap}

type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

var moves = map[Direction]Pos{
	Up:    {-1, 0},
	Down:  {1, 0},
	Left:  {0, -1},
	Right: {0, 1},
}

// Outcome is what a single move led to.
type Outcome int

const (
	Moved Outcome = iota
	Blocked
	Collected
	Locked
	Detonated
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Blocked:
		return "blocked"
	case Collected:
		return "collected"
	case Locked:
		return "locked"
	case Detonated:
		return "detonated"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Layout places the items and the exit.
type Layout struct {
	Bomb, Map, Exit Pos
}

// RandomLayout draws every position uniformly. Positions may coincide.
func RandomLayout(size int, rng *rand.Rand) Layout {
	pick := func() Pos { return Pos{rng.Intn(size), rng.Intn(size)} }
	return Layout{Bomb: pick(), Map: pick(), Exit: pick()}
}

type Game struct {
	size      int
	player    Pos
	items     map[Item]Pos
	exit      Pos
	inventory map[Item]int
	collected Item
	over      bool
}

// New starts a game on a size x size grid with the player in the top-left
// corner.
func New(size int, layout Layout) (*Game, error) {
	if size <= 0 {
		return nil, fmt.Errorf("game: size must be positive, got %d", size)
	}
	for _, p := range []Pos{layout.Bomb, layout.Map, layout.Exit} {
		if !inside(p, size) {
			return nil, fmt.Errorf("game: position %v outside %dx%d grid", p, size, size)
		}
	}
	return &Game{
		size:      size,
		items:     map[Item]Pos{ItemBomb: layout.Bomb, ItemMap: layout.Map},
		exit:      layout.Exit,
		inventory: make(map[Item]int),
	}, nil
}

// NewRandom starts a game with a layout drawn from seed.
func NewRandom(size int, seed int64) (*Game, error) {
	if size <= 0 {
		return nil, fmt.Errorf("game: size must be positive, got %d", size)
	}
	return New(size, RandomLayout(size, rand.New(rand.NewSource(seed))))
}

func inside(p Pos, size int) bool {
	return p.Row >= 0 && p.Row < size && p.Col >= 0 && p.Col < size
}

// Move steps the player one cell. Moves off the grid leave the player in
// place. Whatever cell the player ends on is searched for an item and
// checked against the exit; standing on an item picks it up again.
func (g *Game) Move(dir Direction) (Outcome, error) {
	if g.over {
		return 0, ErrGameOver
	}
	d, ok := moves[dir]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}

	outcome := Moved
	next := Pos{g.player.Row + d.Row, g.player.Col + d.Col}
	if inside(next, g.size) {
		g.player = next
	} else {
		outcome = Blocked
	}

	g.collected = ""
	for _, it := range items {
		if g.items[it] == g.player {
			g.inventory[it]++
			g.collected = it
			outcome = Collected
			break
		}
	}

	if g.player == g.exit {
		if g.Has(ItemBomb) {
			g.over = true
			return Detonated, nil
		}
		return Locked, nil
	}
	return outcome, nil
}

// Has reports whether the player carries at least one of it.
func (g *Game) Has(it Item) bool { return g.inventory[it] > 0 }

// LastCollected is the item picked up by the latest move, if any.
func (g *Game) LastCollected() Item { return g.collected }

func (g *Game) Inventory() map[Item]int {
	inv := make(map[Item]int, len(g.inventory))
	for k, v := range g.inventory {
		inv[k] = v
	}
	return inv
}

func (g *Game) Player() Pos { return g.player }

func (g *Game) Size() int { return g.size }

func (g *Game) Over() bool { return g.over }

// Render draws the grid: P for the player, E for the exit once the map has
// been found, and . elsewhere.
func (g *Game) Render() string {
	var b strings.Builder
	for r := 0; r < g.size; r++ {
		cells := make([]string, g.size)
		for c := 0; c < g.size; c++ {
			p := Pos{r, c}
			switch {
			case p == g.player:
				cells[c] = "P"
			case p == g.exit && g.Has(ItemMap):
				cells[c] = "E"
			default:
				cells[c] = "."
			}
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteByte('\n')
	}
	return b.String()
}
