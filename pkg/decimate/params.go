// Package decimate simplifies a half-edge surface by collapsing short
// edges, gated by normal deviation, triangle shape and boundary turning.
package decimate

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-tiler/pkg/weld"
)

// Params bounds the distortion a decimation run may introduce.
type Params struct {
	MaxNormalAngleDeg   float64 // largest allowed face normal rotation
	BoundaryMaxAngleDeg float64 // largest allowed change of a border direction
	MinEdgeLength       float64 // only edges shorter than this collapse
	MaxAspectRatio      float64 // longest side over height, per resulting face
	MaxCollapses        int     // total collapse budget for one call
	Iterations          int     // passes per call
	SmallEdgeThreshold  float64 // edges below this get a relaxed normal check

	Reweld bool   // weld after every pass
	Seed   uint64 // visiting order seed

	// Weld selects the duplicates a reweld merges. Its Epsilon is also the
	// position tolerance of the duplicate groups that collapses keep
	// consistent.
	Weld weld.Options
}

// DefaultParams returns the stock decimation settings.
func DefaultParams() Params {
	return Params{
		MaxNormalAngleDeg:   15,
		BoundaryMaxAngleDeg: 4,
		MinEdgeLength:       0.5,
		MaxAspectRatio:      6,
		MaxCollapses:        1_000_000,
		Iterations:          1,
		SmallEdgeThreshold:  1,
		Seed:                1,
		Weld:                weld.DefaultOptions(),
	}
}

// Validate reports every out-of-range parameter.
func (p Params) Validate() error {
	var err error
	if p.MaxNormalAngleDeg < 0 || p.MaxNormalAngleDeg > 180 {
		err = multierr.Append(err, fmt.Errorf("max normal angle %g out of [0, 180]", p.MaxNormalAngleDeg))
	}
	if p.BoundaryMaxAngleDeg < 0 || p.BoundaryMaxAngleDeg > 180 {
		err = multierr.Append(err, fmt.Errorf("boundary max angle %g out of [0, 180]", p.BoundaryMaxAngleDeg))
	}
	if p.MinEdgeLength < 0 {
		err = multierr.Append(err, fmt.Errorf("min edge length %g is negative", p.MinEdgeLength))
	}
	if p.MaxAspectRatio <= 0 {
		err = multierr.Append(err, fmt.Errorf("max aspect ratio %g must be positive", p.MaxAspectRatio))
	}
	if p.MaxCollapses < 0 {
		err = multierr.Append(err, fmt.Errorf("max collapses %d is negative", p.MaxCollapses))
	}
	if p.Iterations < 0 {
		err = multierr.Append(err, fmt.Errorf("iterations %d is negative", p.Iterations))
	}
	if p.Weld.Epsilon < 0 {
		err = multierr.Append(err, fmt.Errorf("weld epsilon %g is negative", p.Weld.Epsilon))
	}
	if p.SmallEdgeThreshold < 0 {
		err = multierr.Append(err, fmt.Errorf("small edge threshold %g is negative", p.SmallEdgeThreshold))
	}
	return err
}

// Stats summarises a decimation call.
type Stats struct {
	Iterations     int
	Collapses      int
	Rejected       int // candidates refused by a quality gate
	VerticesBefore int
	VerticesAfter  int
	FacesBefore    int
	FacesAfter     int
}
