// Package calibration tunes and evaluates expected-points parameters against
// observed scores.
package calibration

import (
	"github.com/gojankovic/fpl-insights/internal/forecast"
)

// Dimension is one named axis of the search grid
type Dimension struct {
	Name   string
	Values []float64
	Apply  func(p *forecast.Parameters, v float64)
}

// Grid is the Cartesian product of its dimensions
type Grid struct {
	Dimensions []Dimension
}

// Cell is one point of the grid applied to a base parameter set
type Cell struct {
	Index  int
	Values map[string]float64
	Params *forecast.Parameters
}

// DefaultWAnchor is held fixed while w_recent varies; w_season takes the rest
const DefaultWAnchor = 0.15

// DefaultGrid returns the 2^5 grid over decay, recent weight, shrinkage,
// fixture sensitivity and double-fixture minutes
func DefaultGrid() Grid {
	return Grid{Dimensions: []Dimension{
		{
			Name:   "recent_decay",
			Values: []float64{0.80, 0.86},
			Apply:  func(p *forecast.Parameters, v float64) { p.RecentDecay = v },
		},
		{
			Name:   "w_recent",
			Values: []float64{0.22, 0.30},
			Apply: func(p *forecast.Parameters, v float64) {
				p.WRecent = v
				p.WAnchor = DefaultWAnchor
				p.WSeason = 1.0 - v - DefaultWAnchor
			},
		},
		{
			Name:   "shrink_k",
			Values: []float64{8, 12},
			Apply:  func(p *forecast.Parameters, v float64) { p.ShrinkK = v },
		},
		{
			Name:   "fixture_scale",
			Values: []float64{0.90, 1.10},
			Apply:  func(p *forecast.Parameters, v float64) { p.ScaleFixtureWeights(v) },
		},
		{
			Name:   "dgw_minutes_factor",
			Values: []float64{0.78, 0.84},
			Apply:  func(p *forecast.Parameters, v float64) { p.DGWMinutesFactor = v },
		},
	}}
}

// Size returns the number of cells
func (g Grid) Size() int {
	if len(g.Dimensions) == 0 {
		return 0
	}
	n := 1
	for _, d := range g.Dimensions {
		n *= len(d.Values)
	}
	return n
}

// Cells enumerates the grid over base with the first dimension varying
// slowest. base is never modified.
func (g Grid) Cells(base *forecast.Parameters) []Cell {
	size := g.Size()
	cells := make([]Cell, 0, size)
	if size == 0 {
		return cells
	}

	idx := make([]int, len(g.Dimensions))
	for i := 0; i < size; i++ {
		params := base.Clone()
		values := make(map[string]float64, len(g.Dimensions))
		for d, dim := range g.Dimensions {
			v := dim.Values[idx[d]]
			values[dim.Name] = v
			dim.Apply(params, v)
		}
		cells = append(cells, Cell{Index: i, Values: values, Params: params})

		// odometer increment, last dimension fastest
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < len(g.Dimensions[d].Values) {
				break
			}
			idx[d] = 0
		}
	}
	return cells
}
