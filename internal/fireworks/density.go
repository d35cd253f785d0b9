package fireworks

import (
	"fmt"
	"math"
)

// Box is an axis-aligned rectangle.
type Box struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Contains reports whether (x, y) lies in the closed box.
func (b Box) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// valid requires finite bounds and finite extents, so bin widths never
// overflow.
func (b Box) valid() bool {
	return finite(b.XMin) && finite(b.XMax) && finite(b.YMin) && finite(b.YMax) &&
		b.XMax > b.XMin && b.YMax > b.YMin &&
		finite(b.XMax-b.XMin) && finite(b.YMax-b.YMin)
}

// DensityMap is a cumulative 2-D histogram over a fixed box. Every bin is
// half-open [lo, hi) except the last bin along each axis, which is closed.
type DensityMap struct {
	box    Box
	binsX  int
	binsY  int
	edgesX []float64
	edgesY []float64
	counts []uint64 // counts[ix*binsY+iy]
	total  uint64
}

// NewDensityMap creates an all-zero map. The bin edges are fixed here and
// never recomputed.
func NewDensityMap(box Box, binsX, binsY int) (*DensityMap, error) {
	if !box.valid() {
		return nil, configErr("box", box, "must be finite with max > min")
	}
	if binsX <= 0 || binsY <= 0 {
		return nil, configErr("bins", [2]int{binsX, binsY}, "must be positive")
	}
	return &DensityMap{
		box:    box,
		binsX:  binsX,
		binsY:  binsY,
		edgesX: binEdges(box.XMin, box.XMax, binsX),
		edgesY: binEdges(box.YMin, box.YMax, binsY),
		counts: make([]uint64, binsX*binsY),
	}, nil
}

func binEdges(lo, hi float64, bins int) []float64 {
	edges := make([]float64, bins+1)
	w := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*w
	}
	edges[bins] = hi
	return edges
}

// bin returns the bin index of v, or -1 if v is outside [edges[0], edges[n]].
func bin(edges []float64, v float64) int {
	n := len(edges) - 1
	lo, hi := edges[0], edges[n]
	if math.IsNaN(v) || v < lo || v > hi {
		return -1
	}
	if v == hi {
		return n - 1
	}
	i := int((v - lo) / (hi - lo) * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	// The estimate can be off by one near an edge; settle it against the
	// stored edges so the rule matches them exactly.
	for i > 0 && v < edges[i] {
		i--
	}
	for i < n-1 && v >= edges[i+1] {
		i++
	}
	return i
}

// Accumulate adds one count per in-box position and returns how many
// positions were binned. Positions outside the box are skipped.
func (d *DensityMap) Accumulate(xs, ys []float64) int {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	binned := 0
	for i := 0; i < n; i++ {
		ix := bin(d.edgesX, xs[i])
		if ix < 0 {
			continue
		}
		iy := bin(d.edgesY, ys[i])
		if iy < 0 {
			continue
		}
		d.counts[ix*d.binsY+iy]++
		binned++
	}
	d.total += uint64(binned)
	return binned
}

// Merge adds a snapshot's counts into d. The snapshot must cover the same
// box with the same number of bins.
func (d *DensityMap) Merge(s DensitySnapshot) error {
	bx, by := s.Bins()
	if s.Box != d.box || bx != d.binsX || by != d.binsY {
		return fmt.Errorf("fireworks: cannot merge %dx%d map into %dx%d map over a different box",
			bx, by, d.binsX, d.binsY)
	}
	for ix, col := range s.Counts {
		for iy, c := range col {
			d.counts[ix*d.binsY+iy] += c
			d.total += c
		}
	}
	return nil
}

func (d *DensityMap) At(ix, iy int) uint64 { return d.counts[ix*d.binsY+iy] }

func (d *DensityMap) Total() uint64 { return d.total }

func (d *DensityMap) Bins() (int, int) { return d.binsX, d.binsY }

func (d *DensityMap) Box() Box { return d.box }

// Max returns the largest single-bin count.
func (d *DensityMap) Max() uint64 {
	var m uint64
	for _, c := range d.counts {
		if c > m {
			m = c
		}
	}
	return m
}

// Snapshot returns a deep copy safe to hand to a display.
func (d *DensityMap) Snapshot() DensitySnapshot {
	counts := make([][]uint64, d.binsX)
	for ix := range counts {
		counts[ix] = make([]uint64, d.binsY)
		copy(counts[ix], d.counts[ix*d.binsY:(ix+1)*d.binsY])
	}
	return DensitySnapshot{Box: d.box, Counts: counts, Total: d.total}
}

// DensitySnapshot is a read-only copy of a DensityMap. Counts is indexed
// [ix][iy] with ix along x and iy along y.
type DensitySnapshot struct {
	Box    Box
	Counts [][]uint64
	Total  uint64
}

func (s DensitySnapshot) Bins() (int, int) {
	if len(s.Counts) == 0 {
		return 0, 0
	}
	return len(s.Counts), len(s.Counts[0])
}

func (s DensitySnapshot) Max() uint64 {
	var m uint64
	for _, col := range s.Counts {
		for _, c := range col {
			if c > m {
				m = c
			}
		}
	}
	return m
}
