package cut

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
	"github.com/Faultbox/midgard-tiler/pkg/math"
)

// Side labels written by Classify.
const (
	Below = 1 // barycenter under the plane
	Above = 2 // barycenter over the plane
)

// Policy decides the side of a face whose barycenter lies exactly on a
// plane.
type Policy uint8

const (
	TieBelow Policy = iota // on-plane faces go with the lower side
	TieAbove
)

// String returns the policy name.
func (p Policy) String() string {
	if p == TieAbove {
		return "above"
	}
	return "below"
}

// above reports whether a signed distance counts as the upper side.
func (p Policy) above(d float64) bool {
	if p == TieAbove {
		return d >= 0
	}
	return d > 0
}

// Classify labels every active face Below or Above depending on where its
// barycenter lies relative to plane. Deleted faces get -1.
func Classify(s *halfedge.Surface, plane math.Plane) halfedge.Labels {
	return TieBelow.Classify(s, plane)
}

// Classify is the package level Classify with the tie-break of p.
func (p Policy) Classify(s *halfedge.Surface, plane math.Plane) halfedge.Labels {
	labels := halfedge.NewLabels(len(s.Faces), -1)
	for i := range s.Faces {
		if s.Faces[i].Status != halfedge.Active {
			continue
		}
		if p.above(plane.Distance(s.FaceBarycenter(halfedge.FaceID(i)))) {
			labels[i] = Above
		} else {
			labels[i] = Below
		}
	}
	return labels
}

// CellLabels gives every active face the id of the grid cell holding its
// barycenter. The planes of each axis split it into slabs numbered from
// zero upward; the cell id combines the three slab numbers with X varying
// fastest. Deleted faces get -1.
func (p Policy) CellLabels(s *halfedge.Surface, planes []math.Plane) halfedge.Labels {
	var offsets [3][]float64
	for _, pl := range planes {
		offsets[pl.Axis] = append(offsets[pl.Axis], pl.Offset)
	}
	for i := range offsets {
		sort.Float64s(offsets[i])
	}
	nx, ny := len(offsets[math.AxisX])+1, len(offsets[math.AxisY])+1

	labels := halfedge.NewLabels(len(s.Faces), -1)
	for i := range s.Faces {
		if s.Faces[i].Status != halfedge.Active {
			continue
		}
		c := s.FaceBarycenter(halfedge.FaceID(i))
		ix := p.slab(offsets[math.AxisX], c, math.AxisX)
		iy := p.slab(offsets[math.AxisY], c, math.AxisY)
		iz := p.slab(offsets[math.AxisZ], c, math.AxisZ)
		labels[i] = ix + nx*(iy+ny*iz)
	}
	return labels
}

// CellLabels is Policy.CellLabels with the default tie-break.
func CellLabels(s *halfedge.Surface, planes []math.Plane) halfedge.Labels {
	return TieBelow.CellLabels(s, planes)
}

// slab counts the sorted offsets that c lies above.
func (p Policy) slab(offsets []float64, c r3.Vec, axis math.Axis) int {
	x := axis.Component(c)
	n := 0
	for _, o := range offsets {
		if !p.above(x - o) {
			break
		}
		n++
	}
	return n
}

// Partition builds one surface per label. Twins are re-derived inside
// each part only, so the cuts between parts become open seams.
func Partition(s *halfedge.Surface, labels halfedge.Labels) map[int]*halfedge.Surface {
	return s.SplitByLabels(labels)
}

// PlaneSource supplies the cutting planes for a bounding box.
type PlaneSource interface {
	Planes(bounds r3.Box) []math.Plane
}

// GroupSink receives the per-cell surfaces of a split.
type GroupSink interface {
	Accept(cell int, s *halfedge.Surface)
}

// Split cuts s along every plane src gives for its bounds, labels the faces
// by grid cell and hands one surface per occupied cell to sink, in
// ascending cell order. s itself is left cut but whole.
func Split(s *halfedge.Surface, src PlaneSource, sink GroupSink, opts Options) Stats {
	planes := src.Planes(s.Bounds())
	st := CutGrid(s, planes, opts)
	labels := opts.Policy.CellLabels(s, planes)
	parts := Partition(s, labels)
	for _, cell := range halfedge.SortedLabels(labels) {
		sink.Accept(cell, parts[cell])
	}
	return st
}
