package identify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

var ErrNoCandidate = errors.New("identify: no parameter combination could be evaluated")

// Objective scores one parameter combination; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	limit      int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// WithLimit bounds the number of objective evaluations in flight.
func (g *GridSearch) WithLimit(n int) *GridSearch {
	g.limit = n
	return g
}

// Linspace is a convenience for building ranges.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Size is the number of combinations the search evaluates.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

type SearchResult struct {
	Params    map[string]float64
	Cost      float64
	Evaluated int
	Failed    int
}

// Search evaluates every combination and keeps the lowest cost. Combinations
// whose evaluation fails are skipped and counted.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (*SearchResult, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("identify: %d parameters for %d ranges", len(g.paramNames), len(g.ranges))
	}

	var combos []map[string]float64
	g.searchRecursive(0, make(map[string]float64), &combos)

	res := &SearchResult{Cost: math.Inf(1)}
	best := -1
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	if g.limit > 0 {
		eg.SetLimit(g.limit)
	}
	for i, params := range combos {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := objective(ctx, params)

			mu.Lock()
			defer mu.Unlock()
			res.Evaluated++
			if err != nil || math.IsNaN(val) {
				res.Failed++
				return nil
			}
			// ties go to the earliest combination so results do not depend on scheduling
			if val < res.Cost || (val == res.Cost && i < best) {
				res.Cost = val
				res.Params = params
				best = i
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if res.Params == nil {
		return res, ErrNoCandidate
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(depth+1, newParams, out)
	}
}
