package decimate

import (
	"math/rand/v2"

	"github.com/golang/geo/s1"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
	"github.com/Faultbox/midgard-tiler/pkg/math"
	"github.com/Faultbox/midgard-tiler/pkg/weld"
)

// Option configures a Decimate call.
type Option func(*engine)

// WithLogger sets the logger used for per-pass reports.
func WithLogger(l *zap.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.log = l
		}
	}
}

type engine struct {
	s   *halfedge.Surface
	p   Params
	log *zap.Logger
	rng *rand.Rand

	normalBudget   s1.Angle
	boundaryBudget s1.Angle

	// groups maps every vertex to its positional duplicate group; members
	// lists the vertices of each group that has more than one.
	groups  halfedge.Labels
	members map[int][]halfedge.VertexID

	stats Stats
}

// Decimate collapses edges of s until a pass collapses nothing, the pass
// count reaches p.Iterations or the collapse budget is spent. A collapse
// that fails a gate is skipped; there is no error path. The surface is
// compacted after every pass.
func Decimate(s *halfedge.Surface, p Params, opts ...Option) Stats {
	e := &engine{
		s:              s,
		p:              p,
		log:            zap.NewNop(),
		rng:            rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)),
		normalBudget:   math.Degrees(p.MaxNormalAngleDeg),
		boundaryBudget: math.Degrees(p.BoundaryMaxAngleDeg),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stats.VerticesBefore = s.ActiveVertexCount()
	e.stats.FacesBefore = s.ActiveFaceCount()

	for e.stats.Iterations < p.Iterations && e.stats.Collapses < p.MaxCollapses {
		e.stats.Iterations++
		n := e.pass()
		e.log.Debug("decimation pass",
			zap.Int("pass", e.stats.Iterations),
			zap.Int("collapses", n),
			zap.Int("faces", s.ActiveFaceCount()),
		)
		if n == 0 {
			break
		}
	}

	e.stats.VerticesAfter = s.ActiveVertexCount()
	e.stats.FacesAfter = s.ActiveFaceCount()
	return e.stats
}

// pass visits every active half-edge once in random order and returns the
// number of collapses performed.
func (e *engine) pass() int {
	s := e.s
	e.buildGroups()

	order := make([]halfedge.EdgeID, 0, len(s.Edges))
	for i := range s.Edges {
		if s.Edges[i].Status == halfedge.Active {
			order = append(order, halfedge.EdgeID(i))
		}
	}
	e.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	collapsed := 0
	for _, h := range order {
		if e.stats.Collapses >= e.p.MaxCollapses {
			break
		}
		if s.Edges[h].Status != halfedge.Active {
			continue
		}
		if e.tryCollapse(h) {
			collapsed++
			e.stats.Collapses++
		}
	}

	if collapsed > 0 {
		s.DeleteDegenerateFaces(math.Epsilon)
		s.DeleteUnreferencedVertices()
		s.RebuildOutgoing()
		s.Compact()
		if e.p.Reweld {
			weld.Weld(s, e.p.Weld)
		}
	}
	return collapsed
}

// buildGroups refreshes the positional duplicate groups.
func (e *engine) buildGroups() {
	e.groups = weld.Groups(e.s, e.p.Weld.Epsilon)
	e.members = make(map[int][]halfedge.VertexID)
	count := make(map[int]int)
	for _, g := range e.groups {
		if g >= 0 {
			count[g]++
		}
	}
	for v, g := range e.groups {
		if g >= 0 && count[g] > 1 {
			e.members[g] = append(e.members[g], halfedge.VertexID(v))
		}
	}
}

// candidate describes the neighbourhood of a half-edge h = a->b. f is the
// face of h with loop h, h1 = b->c, h2 = c->a. For an interior edge g is
// the face of t = b->a with loop t, t1 = a->d, t2 = d->b.
type candidate struct {
	h, h1, h2 halfedge.EdgeID
	t, t1, t2 halfedge.EdgeID
	a, b      halfedge.VertexID
	c, d      halfedge.VertexID
	f, g      halfedge.FaceID
	length    float64
}

func (e *engine) describe(h halfedge.EdgeID) (candidate, bool) {
	s := e.s
	c := candidate{h: h, t: halfedge.NoEdge, t1: halfedge.NoEdge, t2: halfedge.NoEdge,
		d: halfedge.NoVertex, g: halfedge.NoFace}
	c.a, c.b = s.Edges[h].Start, s.End(h)
	if c.a == c.b {
		return c, false
	}
	c.f = s.Edges[h].Face
	if s.Sides(c.f) != 3 {
		return c, false
	}
	c.h1 = s.Edges[h].Next
	c.h2 = s.Edges[c.h1].Next
	c.c = s.Edges[c.h2].Start

	if t := s.Twin(h); t != halfedge.NoEdge {
		c.g = s.Edges[t].Face
		if s.Sides(c.g) != 3 {
			return c, false
		}
		c.t = t
		c.t1 = s.Edges[t].Next
		c.t2 = s.Edges[c.t1].Next
		c.d = s.Edges[c.t2].Start
		if c.d == c.c {
			return c, false
		}
	}
	c.length = s.EdgeLength(h)
	return c, true
}

// tryCollapse collapses h when it is a candidate and every gate passes.
func (e *engine) tryCollapse(h halfedge.EdgeID) bool {
	s := e.s
	c, ok := e.describe(h)
	if !ok || c.length >= e.p.MinEdgeLength {
		return false
	}

	interior := s.Classify(c.a) == halfedge.Interior
	switch {
	case interior && c.t == halfedge.NoEdge:
		return false
	case !interior && c.t != halfedge.NoEdge:
		// moving a border vertex inward would eat into the silhouette
		return false
	}

	if !e.linkCondition(c) || !e.shapeGate(c) {
		e.stats.Rejected++
		return false
	}
	if !interior && !e.boundaryGate(c) {
		e.stats.Rejected++
		return false
	}

	e.collapse(c)
	return true
}

// linkCondition rejects collapses that would pinch the surface: a and b
// may only share the apexes of the faces on either side of the edge, and
// an interior apex has to keep at least three edges.
func (e *engine) linkCondition(c candidate) bool {
	s := e.s
	nb := s.Neighbors(c.b)
	for _, v := range s.Neighbors(c.a) {
		if v == c.b || v == c.c || v == c.d {
			continue
		}
		for _, w := range nb {
			if w == v {
				return false
			}
		}
	}
	for _, apex := range []halfedge.VertexID{c.c, c.d} {
		if apex != halfedge.NoVertex && s.Classify(apex) == halfedge.Interior && s.Valence(apex) <= 3 {
			return false
		}
	}
	return true
}

// shapeGate checks every face around a, except the ones that vanish, as
// it would look with a moved onto b.
func (e *engine) shapeGate(c candidate) bool {
	s := e.s
	target := s.Pos(c.b)
	scale := 1.0
	if c.length < e.p.SmallEdgeThreshold {
		r := c.length / e.p.SmallEdgeThreshold
		scale = r * r
	}

	for _, out := range s.Star(c.a) {
		f := s.Edges[out].Face
		if f == c.f || f == c.g {
			continue
		}
		verts := s.FaceVertices(f)
		if len(verts) != 3 {
			return false
		}
		var p [3]r3.Vec
		for i, v := range verts {
			if v == c.a {
				p[i] = target
			} else {
				p[i] = s.Pos(v)
			}
		}
		if math.AspectRatio(p[0], p[1], p[2]) > e.p.MaxAspectRatio {
			return false
		}
		before := s.FaceNormal(f)
		after := math.TriangleNormal(p[0], p[1], p[2])
		if after == (r3.Vec{}) || r3.Dot(before, after) <= 0 {
			return false
		}
		if s1.Angle(float64(math.Angle(before, after))*scale) > e.normalBudget {
			return false
		}
	}
	return true
}

// boundaryGate checks a border collapse. z is the vertex before a along the
// border; the border direction out of z must not turn by more than the
// budget when a is replaced by b.
func (e *engine) boundaryGate(c candidate) bool {
	s := e.s
	if s.Valence(c.b) <= 1 {
		return false
	}
	if s.IsBoundaryEdge(c.h1) && s.IsBoundaryEdge(c.h2) {
		// isolated triangle
		return false
	}
	z := e.borderPredecessor(c.a)
	if z == halfedge.NoVertex || z == c.b {
		return false
	}
	pz := s.Pos(z)
	turn := math.Angle(r3.Sub(s.Pos(c.a), pz), r3.Sub(s.Pos(c.b), pz))
	return turn <= e.boundaryBudget
}

// borderPredecessor returns the start of the border edge arriving at v.
func (e *engine) borderPredecessor(v halfedge.VertexID) halfedge.VertexID {
	s := e.s
	for _, out := range s.Star(v) {
		p := s.Prev(out)
		if p != halfedge.NoEdge && s.IsBoundaryEdge(p) {
			return s.Edges[p].Start
		}
	}
	return halfedge.NoVertex
}

// collapse merges a into b. The faces on either side of the edge are
// deleted, the outer twins of each deleted face are joined, and every
// edge leaving a now leaves b.
func (e *engine) collapse(c candidate) {
	s := e.s
	star := s.Star(c.a)

	o1, o2 := s.Twin(c.h1), s.Twin(c.h2)
	p1, p2 := halfedge.NoEdge, halfedge.NoEdge
	if c.t != halfedge.NoEdge {
		p1, p2 = s.Twin(c.t1), s.Twin(c.t2)
	}

	s.DeleteFace(c.f)
	if c.g != halfedge.NoFace {
		s.DeleteFace(c.g)
	}

	for _, out := range star {
		if s.Edges[out].Status != halfedge.Active {
			continue
		}
		s.Edges[out].Start = c.b
		s.InvalidateNormal(s.Edges[out].Face)
	}
	if o1 != halfedge.NoEdge && o2 != halfedge.NoEdge {
		s.SetTwin(o1, o2)
	}
	if p1 != halfedge.NoEdge && p2 != halfedge.NoEdge {
		s.SetTwin(p1, p2)
	}

	s.DeleteVertex(c.a)
	s.Vertices[c.a].Edge = halfedge.NoEdge
	e.retargetDuplicates(c.a, c.b)

	e.repair(c.b, append([]halfedge.EdgeID{o2, p2, next(s, o1), next(s, p1)}, star...)...)
	e.repair(c.c, o1, next(s, o2))
	if c.d != halfedge.NoVertex {
		e.repair(c.d, p1, next(s, p2))
	}
}

// retargetDuplicates moves the positional duplicates of a onto b so that
// seams split by attributes follow the collapse. Faces squeezed to nothing
// by the move are removed at the end of the pass.
func (e *engine) retargetDuplicates(a, b halfedge.VertexID) {
	s := e.s
	g := e.groups[a]
	if g < 0 {
		return
	}
	target := s.Pos(b)
	for _, v := range e.members[g] {
		if v == a || v == b || s.Vertices[v].Status != halfedge.Active {
			continue
		}
		s.Vertices[v].Position = target
		for _, out := range s.Star(v) {
			s.InvalidateNormal(s.Edges[out].Face)
			if p := s.Prev(out); p != halfedge.NoEdge {
				s.InvalidateNormal(s.Edges[p].Face)
			}
		}
	}
}

// repair restores v's outgoing reference, falling back to a full scan when
// none of the candidates qualifies.
func (e *engine) repair(v halfedge.VertexID, candidates ...halfedge.EdgeID) {
	s := e.s
	if s.RepairOutgoing(v, candidates...) {
		return
	}
	for i := range s.Edges {
		if s.Edges[i].Status == halfedge.Active && s.Edges[i].Start == v {
			s.Vertices[v].Edge = halfedge.EdgeID(i)
			return
		}
	}
}

func next(s *halfedge.Surface, e halfedge.EdgeID) halfedge.EdgeID {
	if e == halfedge.NoEdge {
		return halfedge.NoEdge
	}
	return s.Edges[e].Next
}
