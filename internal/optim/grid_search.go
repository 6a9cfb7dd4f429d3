// Package optim sweeps simulation parameters over a grid, running a
// headless flight per combination and keeping the best score.
package optim

import (
	"context"
	"math"

	"github.com/san-kum/kitesim/internal/sim"
)

// BuildRunner constructs a runner for one parameter combination. An
// error skips the combination rather than aborting the sweep.
type BuildRunner func(params map[string]float64) (*sim.Runner, sim.RunConfig, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search evaluates every grid point and returns the parameters that
// minimize metricName, along with its value. Returns ctx.Err when
// canceled mid-sweep.
func (g *GridSearch) Search(ctx context.Context, build BuildRunner, metricName string) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build BuildRunner,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		runner, runCfg, err := build(current)
		if err != nil {
			return nil
		}

		result, err := runner.Run(ctx, runCfg)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		val := result.Metrics[metricName]
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val

		if err := g.searchRecursive(ctx, depth+1, next, build, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
