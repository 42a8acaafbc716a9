package qbvh

import "fmt"

// Params configures the binned-SAH builder.
type Params struct {
	// NumBins is the number of centroid bins evaluated per axis (NB_BINS).
	NumBins int

	// SkipFactor/FullSweepThreshold trade SAH accuracy for build time on
	// large ranges: ranges at or below FullSweepThreshold scan every
	// primitive; larger ranges scan every SkipFactor-th one.
	SkipFactor         int
	FullSweepThreshold int

	IsectCost     float64
	TraversalCost float64
	EmptyBonus    float64
}

// DefaultParams returns the builder defaults.
func DefaultParams() Params {
	return Params{
		NumBins:            12,
		SkipFactor:         4,
		FullSweepThreshold: 256,
		IsectCost:          80,
		TraversalCost:      1,
		EmptyBonus:         0.5,
	}
}

const maxRecursionDepth = 64

// ErrTooDeep is returned when the builder recurses past maxRecursionDepth.
var ErrTooDeep = fmt.Errorf("qbvh: recursion exceeded %d levels", maxRecursionDepth)

// ErrDegenerateCentroids is returned when a range's centroids collapse
// along every axis and the range is too large to pack into a single leaf,
// making the bin-width factor k1 = NumBins / (centroidMax - centroidMin)
// non-finite.
var ErrDegenerateCentroids = fmt.Errorf("qbvh: too many identical centroids")
