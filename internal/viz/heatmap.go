package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fireworks/internal/fireworks"
)

// ramp shades a cell from empty to the busiest cell on the map.
var ramp = []rune(" .:-=+*#%@")

// HeatmapRows reduces a density snapshot to at most w x h characters and
// shades each one by its share of the busiest cell. Row 0 is the top of the
// box. Several bins fold into one character when the map is larger than
// the requested size; the size is capped at the number of bins.
func HeatmapRows(s fireworks.DensitySnapshot, w, h int) []string {
	cells := reduce(s, w, h)
	if len(cells) == 0 {
		return nil
	}
	var peak uint64
	for _, col := range cells {
		for _, c := range col {
			if c > peak {
				peak = c
			}
		}
	}

	cw, ch := len(cells), len(cells[0])
	rows := make([]string, ch)
	for r := 0; r < ch; r++ {
		cy := ch - 1 - r
		line := make([]rune, cw)
		for cx := 0; cx < cw; cx++ {
			line[cx] = ramp[shade(cells[cx][cy], peak)]
		}
		rows[r] = string(line)
	}
	return rows
}

// Heatmap renders HeatmapRows in the current theme's heat colours.
func Heatmap(s fireworks.DensitySnapshot, w, h int) string {
	rows := HeatmapRows(s, w, h)
	heat := CurrentTheme.Heat
	styles := make([]lipgloss.Style, len(heat))
	for i, c := range heat {
		styles[i] = lipgloss.NewStyle().Foreground(c)
	}

	var b strings.Builder
	for _, row := range rows {
		for _, r := range row {
			level := strings.IndexRune(string(ramp), r)
			if level <= 0 || len(styles) == 0 {
				b.WriteRune(r)
				continue
			}
			i := (level - 1) * len(styles) / (len(ramp) - 1)
			b.WriteString(styles[i].Render(string(r)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func shade(c, peak uint64) int {
	if c == 0 || peak == 0 {
		return 0
	}
	i := 1 + int(float64(c)/float64(peak)*float64(len(ramp)-2))
	if i >= len(ramp) {
		i = len(ramp) - 1
	}
	return i
}

// reduce sums bins into a cw x ch grid indexed [cx][cy].
func reduce(s fireworks.DensitySnapshot, w, h int) [][]uint64 {
	bx, by := s.Bins()
	if bx == 0 || by == 0 || w <= 0 || h <= 0 {
		return nil
	}
	if w > bx {
		w = bx
	}
	if h > by {
		h = by
	}
	cells := make([][]uint64, w)
	for cx := range cells {
		cells[cx] = make([]uint64, h)
	}
	for ix, col := range s.Counts {
		cx := ix * w / bx
		for iy, c := range col {
			cells[cx][iy*h/by] += c
		}
	}
	return cells
}
