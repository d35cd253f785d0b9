// Package optim sweeps simulation parameters over a grid and ranks the
// runs by a metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/fireworks/internal/fireworks"
	"github.com/san-kum/fireworks/internal/metrics"
)

// Goal says which way a metric should move.
type Goal int

const (
	Minimize Goal = iota
	Maximize
)

// Point is one evaluated grid cell.
type Point struct {
	Params map[string]float64
	Value  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameter names for %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if err := SetParam(&fireworks.Params{}, name, 0); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs one simulation per grid cell, starting from base, and returns
// every point sorted best first. Cells with invalid parameters are skipped;
// cancellation stops the search and returns what was evaluated so far.
func (g *GridSearch) Search(ctx context.Context, base fireworks.Params, metricName string, goal Goal) ([]Point, error) {
	points := make([]Point, 0)
	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, &points)

	sort.SliceStable(points, func(i, j int) bool {
		if goal == Maximize {
			return points[i].Value > points[j].Value
		}
		return points[i].Value < points[j].Value
	})
	return points, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base fireworks.Params,
	metricName string,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		p := base
		for name, v := range current {
			// Names were checked in NewGridSearch.
			_ = SetParam(&p, name, v)
		}

		val, err := evaluate(ctx, p, metricName)
		if err != nil {
			if errors.Is(err, fireworks.ErrInvalidConfig) {
				return nil
			}
			return err
		}
		*points = append(*points, Point{Params: current, Value: val})
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, points); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(ctx context.Context, p fireworks.Params, metricName string) (float64, error) {
	sim, err := fireworks.New(p)
	if err != nil {
		return 0, err
	}
	for _, m := range metrics.Default() {
		sim.AddMetric(m)
	}
	result, err := sim.Run(ctx)
	if err != nil {
		return 0, err
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("optim: unknown metric %q", metricName)
	}
	return val, nil
}

// SetParam sets a numeric parameter by its config name.
func SetParam(p *fireworks.Params, name string, v float64) error {
	switch name {
	case "particles":
		p.Particles = int(v)
	case "steps":
		p.Steps = int(v)
	case "box_size":
		p.BoxSize = v
	case "slowdown":
		p.Slowdown = v
	case "dt":
		p.Dt = v
	case "gravity":
		p.Gravity = v
	case "bins":
		p.BinsX, p.BinsY = int(v), int(v)
	case "speed_min":
		p.SpeedMin = v
	case "speed_max":
		p.SpeedMax = v
	case "seed":
		p.Seed = int64(v)
	default:
		return fmt.Errorf("optim: unknown parameter %q", name)
	}
	return nil
}

// ParseRange reads "lo:hi:n" as n evenly spaced values from lo to hi, or a
// comma-separated list of values.
func ParseRange(s string) ([]float64, error) {
	if parts := strings.Split(s, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n <= 0 {
			return nil, fmt.Errorf("optim: bad range %q, want lo:hi:n", s)
		}
		if n == 1 {
			return []float64{lo}, nil
		}
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		vals[n-1] = hi
		return vals, nil
	}

	var vals []float64
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil || math.IsNaN(v) {
			return nil, fmt.Errorf("optim: bad value %q in %q", f, s)
		}
		vals = append(vals, v)
	}
	return vals, nil
}
