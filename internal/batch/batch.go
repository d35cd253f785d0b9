// Package batch runs many independent simulations and aggregates them.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fireworks/internal/fireworks"
	"github.com/san-kum/fireworks/internal/metrics"
)

// RunSummary is the outcome of one seeded run.
type RunSummary struct {
	Seed    int64
	Metrics map[string]float64
	InBox   uint64
}

// Summary aggregates a batch. Density is the sum of every run's map.
type Summary struct {
	Runs    []RunSummary
	Density fireworks.DensitySnapshot
}

// Mean returns the average of a metric across runs.
func (s *Summary) Mean(name string) float64 {
	if len(s.Runs) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range s.Runs {
		sum += r.Metrics[name]
	}
	return sum / float64(len(s.Runs))
}

// Run executes runs simulations with seeds base.Seed, base.Seed+1, ... on
// at most workers goroutines. Each goroutine owns its simulation; density
// maps are merged in seed order once every run has finished.
func Run(ctx context.Context, base fireworks.Params, runs, workers int, logger *log.Logger) (*Summary, error) {
	if runs <= 0 {
		return nil, fmt.Errorf("batch: runs must be positive, got %d", runs)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = log.Default()
	}

	summaries := make([]RunSummary, runs)
	snaps := make([]fireworks.DensitySnapshot, runs)
	var done int
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < runs; i++ {
		i := i
		g.Go(func() error {
			p := base
			p.Seed = base.Seed + int64(i)

			sim, err := fireworks.New(p)
			if err != nil {
				return err
			}
			for _, m := range metrics.Default() {
				sim.AddMetric(m)
			}
			result, err := sim.Run(ctx)
			if err != nil {
				return fmt.Errorf("batch: seed %d: %w", p.Seed, err)
			}

			snaps[i] = result.Density
			summaries[i] = RunSummary{Seed: p.Seed, Metrics: result.Metrics, InBox: result.Density.Total}

			mu.Lock()
			done++
			logger.Debug("run finished", "seed", p.Seed, "done", done, "of", runs)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged, err := fireworks.NewDensityMap(base.Box(), base.BinsX, base.BinsY)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if err := merged.Merge(snap); err != nil {
			return nil, err
		}
	}

	logger.Info("batch complete", "runs", runs, "workers", workers, "hits", merged.Total())
	return &Summary{Runs: summaries, Density: merged.Snapshot()}, nil
}
