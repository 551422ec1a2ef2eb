// Package cut splits half-edge surfaces along axis-aligned planes and
// partitions them into per-cell surfaces.
package cut

import (
	gomath "math"

	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
	"github.com/Faultbox/midgard-tiler/pkg/math"
)

// DefaultTolerance is the distance under which a vertex counts as lying on
// the cutting plane.
const DefaultTolerance = 1e-8

// Options configures cutting and classification.
type Options struct {
	Tolerance float64
	Policy    Policy
}

// DefaultOptions returns the stock cut settings.
func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance, Policy: TieBelow}
}

// Stats counts the entities a cut created.
type Stats struct {
	EdgesSplit      int
	FacesCreated    int
	VerticesCreated int
	Skipped         int // crossing edges that could not be split
}

// Add accumulates o into st.
func (st *Stats) Add(o Stats) {
	st.EdgesSplit += o.EdgesSplit
	st.FacesCreated += o.FacesCreated
	st.VerticesCreated += o.VerticesCreated
	st.Skipped += o.Skipped
}

// Cut splits every edge of s that crosses plane and re-triangulates the
// faces on both sides of it, then compacts s. The surface keeps its shape;
// afterwards no face straddles the plane.
func Cut(s *halfedge.Surface, plane math.Plane, opts Options) Stats {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	c := &cutter{s: s, plane: plane, tol: tol}

	// Splitting appends edges that may cross as well, so the bound is
	// re-read every step.
	for i := 0; i < len(s.Edges); i++ {
		h := halfedge.EdgeID(i)
		if s.Edges[h].Status != halfedge.Active || !c.crosses(h) {
			continue
		}
		c.split(h)
	}
	if c.stats.EdgesSplit > 0 {
		s.Compact()
	}
	return c.stats
}

// CutGrid applies Cut for every plane in order.
func CutGrid(s *halfedge.Surface, planes []math.Plane, opts Options) Stats {
	var st Stats
	for _, p := range planes {
		st.Add(Cut(s, p, opts))
	}
	return st
}

type cutter struct {
	s     *halfedge.Surface
	plane math.Plane
	tol   float64
	stats Stats
}

// crosses reports whether h runs from one side of the plane to the other
// with neither endpoint on it.
func (c *cutter) crosses(h halfedge.EdgeID) bool {
	s := c.s
	da := c.plane.Distance(s.Pos(s.Edges[h].Start))
	db := c.plane.Distance(s.Pos(s.End(h)))
	if gomath.Abs(da) <= c.tol || gomath.Abs(db) <= c.tol {
		return false
	}
	return (da < 0) != (db < 0)
}

// split inserts a vertex m where h = a->b meets the plane. The face of h,
// with apex c, becomes (a, m, c) and (m, b, c); when h has a twin, its
// face with apex d becomes (b, m, d) and (m, a, d).
func (c *cutter) split(h halfedge.EdgeID) {
	s := c.s
	f := s.Edges[h].Face
	t := s.Twin(h)
	if s.Sides(f) != 3 || (t != halfedge.NoEdge && s.Sides(s.Edges[t].Face) != 3) {
		c.stats.Skipped++
		return
	}

	a, b := s.Edges[h].Start, s.End(h)
	h1 := s.Edges[h].Next
	h2 := s.Edges[h1].Next
	apexC := s.Edges[h2].Start
	o1, o2 := s.Twin(h1), s.Twin(h2)
	s.FaceNormal(f)

	var (
		g      = halfedge.NoFace
		apexD  = halfedge.NoVertex
		p1, p2 = halfedge.NoEdge, halfedge.NoEdge
	)
	if t != halfedge.NoEdge {
		g = s.Edges[t].Face
		t1 := s.Edges[t].Next
		t2 := s.Edges[t1].Next
		apexD = s.Edges[t2].Start
		if apexD == apexC {
			c.stats.Skipped++
			return
		}
		p1, p2 = s.Twin(t1), s.Twin(t2)
		s.FaceNormal(g)
	}

	m := c.intersect(a, b)

	s.DeleteFace(f)
	// a->m, m->c, c->a
	fa1 := c.triangle(f, a, m, apexC)
	// m->b, b->c, c->m
	fa2 := c.triangle(f, m, b, apexC)
	s.SetTwin(fa1+1, fa2+2)
	reattach(s, fa1+2, o2)
	reattach(s, fa2+1, o1)

	if g != halfedge.NoFace {
		s.DeleteFace(g)
		// b->m, m->d, d->b
		fb1 := c.triangle(g, b, m, apexD)
		// m->a, a->d, d->m
		fb2 := c.triangle(g, m, a, apexD)
		s.SetTwin(fb1+1, fb2+2)
		reattach(s, fb1+2, p2)
		reattach(s, fb2+1, p1)

		s.SetTwin(fa1, fb2)
		s.SetTwin(fa2, fb1)
	}
	c.stats.EdgesSplit++
}

// triangle adds the face (v0, v1, v2) with the plane normal of src and
// returns its first half-edge, v0->v1. The next two are v1->v2 and v2->v0.
func (c *cutter) triangle(src halfedge.FaceID, v0, v1, v2 halfedge.VertexID) halfedge.EdgeID {
	s := c.s
	first := halfedge.EdgeID(len(s.Edges))
	f, err := s.AddFace(v0, v1, v2)
	if err != nil {
		// the vertices come from a live triangle plus a fresh vertex
		panic("cut: " + err.Error())
	}
	s.Faces[f].Normal = s.Faces[src].Normal
	s.Faces[f].HasNormal = s.Faces[src].HasNormal
	c.stats.FacesCreated++
	return first
}

// reattach twins a new exterior edge with the neighbour the replaced edge
// was twinned with. A missing neighbour leaves e on the boundary.
func reattach(s *halfedge.Surface, e, neighbor halfedge.EdgeID) {
	if neighbor != halfedge.NoEdge {
		s.SetTwin(e, neighbor)
	}
}

// intersect creates the vertex where a->b meets the plane. Position,
// normal, texture coordinate and color are interpolated when both ends
// carry them; the batch id is copied from a.
func (c *cutter) intersect(a, b halfedge.VertexID) halfedge.VertexID {
	s := c.s
	va, vb := s.Vertices[a], s.Vertices[b]
	da := c.plane.Distance(va.Position)
	db := c.plane.Distance(vb.Position)
	t := da / (da - db)

	v := halfedge.Vertex{Position: math.Lerp(va.Position, vb.Position, t)}
	// snap onto the plane to keep later cuts from seeing it as crossing
	v.Position = c.plane.Axis.With(v.Position, c.plane.Offset)

	both := va.Attrs & vb.Attrs
	if both.Has(halfedge.AttrNormal) {
		v.Normal = math.Unit(math.Lerp(va.Normal, vb.Normal, t))
		v.Attrs |= halfedge.AttrNormal
	}
	if both.Has(halfedge.AttrUV) {
		v.UV = math.LerpUV(va.UV, vb.UV, t)
		v.Attrs |= halfedge.AttrUV
	}
	if both.Has(halfedge.AttrColor) {
		v.Color = math.LerpColor(va.Color, vb.Color, t)
		v.Attrs |= halfedge.AttrColor
	}
	if va.Attrs.Has(halfedge.AttrBatch) {
		v.Batch = va.Batch
		v.Attrs |= halfedge.AttrBatch
	}
	c.stats.VerticesCreated++
	return s.AddVertex(v)
}
