package bvh

import "fmt"

// Params configures the SAH builder.
type Params struct {
	// TreeType is the branching factor: 2, 4 or 8. Values outside that set
	// snap up to the nearest allowed value.
	TreeType int

	// CostSamples is the number of candidate split positions evaluated per
	// node. Values > 1 activate sampled SAH; otherwise the builder falls
	// back to splitting at the centroid-bounds midpoint.
	CostSamples int

	IsectCost     float64
	TraversalCost float64
	EmptyBonus    float64
}

// DefaultParams returns the builder defaults used when a caller does not
// override them.
func DefaultParams() Params {
	return Params{
		TreeType:      4,
		CostSamples:   0,
		IsectCost:     80,
		TraversalCost: 1,
		EmptyBonus:    0.5,
	}
}

// Normalize snaps TreeType up to the nearest of {2,4,8}.
func (p Params) Normalize() Params {
	switch {
	case p.TreeType <= 2:
		p.TreeType = 2
	case p.TreeType <= 4:
		p.TreeType = 4
	default:
		p.TreeType = 8
	}
	return p
}

// maxRecursionDepth is the fatal recursion-depth ceiling; exceeding it aborts
// the build with an error rather than recursing further.
const maxRecursionDepth = 64

// ErrTooDeep is returned when the builder recurses past maxRecursionDepth.
var ErrTooDeep = fmt.Errorf("bvh: recursion exceeded %d levels", maxRecursionDepth)
