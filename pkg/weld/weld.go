// Package weld merges vertices that share a position, and optionally their
// other attributes, within an epsilon.
package weld

import (
	gomath "math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
	"github.com/Faultbox/midgard-tiler/pkg/math"
	"github.com/Faultbox/midgard-tiler/pkg/octree"
)

// DefaultEpsilon is the position tolerance used when Options.Epsilon is 0.
const DefaultEpsilon = 1e-6

// Options selects which vertices count as duplicates. Position always has
// to match within Epsilon; the Match flags add attribute checks.
type Options struct {
	Epsilon     float64
	MatchUV     bool
	MatchNormal bool
	MatchColor  bool
	MatchBatch  bool
	LeafSize    int // octree leaf capacity, octree.DefaultLeafSize if 0
}

// DefaultOptions returns position-only welding.
func DefaultOptions() Options {
	return Options{Epsilon: DefaultEpsilon, LeafSize: octree.DefaultLeafSize}
}

// Stats describes a weld.
type Stats struct {
	VerticesBefore int
	VerticesAfter  int
	Merged         int // duplicates folded into a master
	FacesRemoved   int // faces that collapsed onto a repeated vertex
	Paired         int // twin pairs bound across the new shared edges
	Remap          halfedge.Remap
}

// Masters returns, for every vertex, the vertex it is a duplicate of. A
// vertex that duplicates nothing maps to itself and deleted vertices map
// to NoVertex. The lowest index of each group is its master.
func Masters(s *halfedge.Surface, opts Options) []halfedge.VertexID {
	opts = withDefaults(opts)
	master := make([]halfedge.VertexID, len(s.Vertices))
	for i := range master {
		master[i] = halfedge.NoVertex
	}

	bounds := s.Bounds()
	if math.BoxIsEmpty(bounds) {
		return master
	}
	tree := octree.New(bounds, opts.LeafSize, octree.DefaultMaxDepth)
	for i := range s.Vertices {
		if s.Vertices[i].Status == halfedge.Active {
			tree.Insert(i, s.Vertices[i].Position)
		}
	}

	for i := range s.Vertices {
		if s.Vertices[i].Status != halfedge.Active || master[i] != halfedge.NoVertex {
			continue
		}
		master[i] = halfedge.VertexID(i)
		a := &s.Vertices[i]
		tree.Query(math.BoxAround(a.Position, opts.Epsilon), func(p octree.Point) bool {
			if p.ID > i && master[p.ID] == halfedge.NoVertex && same(a, &s.Vertices[p.ID], opts) {
				master[p.ID] = halfedge.VertexID(i)
			}
			return true
		})
	}
	return master
}

// Groups labels every active vertex with the index of the first vertex at
// the same position (within eps). Vertices sharing a label are positional
// duplicates. Deleted vertices get -1. The surface is not modified.
func Groups(s *halfedge.Surface, eps float64) halfedge.Labels {
	master := Masters(s, Options{Epsilon: eps})
	labels := make(halfedge.Labels, len(master))
	for i, m := range master {
		labels[i] = int(m)
	}
	return labels
}

// Weld merges duplicate vertices. Every half-edge is re-pointed at its
// start's master, faces left with a repeated vertex are removed, twins are
// bound across the edges that became shared, unreferenced vertices are
// dropped and the surface is compacted.
func Weld(s *halfedge.Surface, opts Options) Stats {
	st := Stats{VerticesBefore: s.ActiveVertexCount()}
	master := Masters(s, opts)

	for i := range s.Vertices {
		if m := master[i]; m != halfedge.NoVertex && int(m) != i {
			s.Vertices[i].Status = halfedge.Deleted
			s.Vertices[i].Edge = halfedge.NoEdge
			st.Merged++
		}
	}
	if st.Merged == 0 {
		st.VerticesAfter = st.VerticesBefore
		return st
	}

	for i := range s.Edges {
		he := &s.Edges[i]
		if he.Status == halfedge.Active {
			he.Start = master[he.Start]
		}
	}

	for i := range s.Faces {
		f := halfedge.FaceID(i)
		if s.Faces[i].Status == halfedge.Active && repeatsVertex(s, f) {
			s.DeleteFace(f)
			st.FacesRemoved++
		}
	}

	var open []halfedge.EdgeID
	for i := range s.Edges {
		if s.Edges[i].Status == halfedge.Active && s.Twin(halfedge.EdgeID(i)) == halfedge.NoEdge {
			open = append(open, halfedge.EdgeID(i))
		}
	}
	st.Paired = s.PairTwins(open)

	s.DeleteUnreferencedVertices()
	s.RebuildOutgoing()
	st.Remap = s.Compact()
	st.VerticesAfter = s.ActiveVertexCount()
	return st
}

func repeatsVertex(s *halfedge.Surface, f halfedge.FaceID) bool {
	verts := s.FaceVertices(f)
	for i, v := range verts {
		for _, w := range verts[:i] {
			if v == w {
				return true
			}
		}
	}
	return false
}

func same(a, b *halfedge.Vertex, opts Options) bool {
	if r3.Norm(r3.Sub(a.Position, b.Position)) > opts.Epsilon {
		return false
	}
	if opts.MatchUV {
		if a.Attrs.Has(halfedge.AttrUV) != b.Attrs.Has(halfedge.AttrUV) ||
			r2.Norm(r2.Sub(a.UV, b.UV)) > opts.Epsilon {
			return false
		}
	}
	if opts.MatchNormal {
		if a.Attrs.Has(halfedge.AttrNormal) != b.Attrs.Has(halfedge.AttrNormal) ||
			r3.Norm(r3.Sub(a.Normal, b.Normal)) > opts.Epsilon {
			return false
		}
	}
	if opts.MatchColor {
		if a.Attrs.Has(halfedge.AttrColor) != b.Attrs.Has(halfedge.AttrColor) || a.Color != b.Color {
			return false
		}
	}
	if opts.MatchBatch {
		if a.Attrs.Has(halfedge.AttrBatch) != b.Attrs.Has(halfedge.AttrBatch) ||
			gomath.Abs(float64(a.Batch-b.Batch)) > opts.Epsilon {
			return false
		}
	}
	return true
}

func withDefaults(opts Options) Options {
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	if opts.LeafSize <= 0 {
		opts.LeafSize = octree.DefaultLeafSize
	}
	return opts
}
