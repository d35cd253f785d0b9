// Package export writes simulation output as standalone SVG images.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/fireworks/internal/fireworks"
)

const background = "#0a0a0a"

// heat runs from cold to hot; cells are shaded by their share of the
// busiest bin.
var heat = [][3]int{
	{0x1a, 0x00, 0x33},
	{0x5c, 0x00, 0xa3},
	{0xc0, 0x00, 0xc0},
	{0xff, 0x40, 0x80},
	{0xff, 0xff, 0x00},
}

// DensitySVG draws one square of size cell per non-empty bin. The top row
// of the image is the top of the box.
func DensitySVG(s fireworks.DensitySnapshot, cell float64) string {
	bx, by := s.Bins()
	if bx == 0 || by == 0 || cell <= 0 {
		return ""
	}
	width := float64(bx) * cell
	height := float64(by) * cell
	peak := s.Max()

	var sb strings.Builder
	header(&sb, width, height)
	sb.WriteString(`<g stroke="none">` + "\n")
	for ix, col := range s.Counts {
		for iy, c := range col {
			if c == 0 {
				continue
			}
			x := float64(ix) * cell
			y := float64(by-1-iy) * cell
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
				x, y, cell, cell, heatColor(float64(c)/float64(peak))))
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// ScatterSVG draws the in-box particles as dots on a size x size image.
func ScatterSVG(xs, ys []float64, box fireworks.Box, size int, color string) string {
	if size <= 0 {
		return ""
	}
	if color == "" {
		color = "#ffcc00"
	}
	w := float64(size)
	rangeX := box.XMax - box.XMin
	rangeY := box.YMax - box.YMin
	if rangeX <= 0 || rangeY <= 0 {
		return ""
	}

	var sb strings.Builder
	header(&sb, w, w)
	sb.WriteString(fmt.Sprintf(`<rect x="0.5" y="0.5" width="%.1f" height="%.1f" fill="none" stroke="#444466"/>`+"\n", w-1, w-1))
	sb.WriteString(fmt.Sprintf(`<g fill="%s">`+"\n", color))
	for i := range xs {
		if i >= len(ys) || !box.Contains(xs[i], ys[i]) {
			continue
		}
		x := (xs[i] - box.XMin) / rangeX * w
		y := w - (ys[i]-box.YMin)/rangeY*w
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="1.5"/>`+"\n", x, y))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func header(sb *strings.Builder, width, height float64) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

// heatColor interpolates the heat ramp at t in [0, 1].
func heatColor(t float64) string {
	if t <= 0 {
		return hex(heat[0])
	}
	if t >= 1 {
		return hex(heat[len(heat)-1])
	}
	pos := t * float64(len(heat)-1)
	i := int(pos)
	f := pos - float64(i)
	a, b := heat[i], heat[i+1]
	var c [3]int
	for k := range c {
		c[k] = a[k] + int(f*float64(b[k]-a[k]))
	}
	return hex(c)
}

func hex(c [3]int) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
