package halfedge

// VertexClass tells whether a vertex lies inside the mesh or on its border.
type VertexClass uint8

const (
	Interior VertexClass = iota // every star edge has a twin
	Boundary                    // at least one star edge lacks a twin
)

// String returns the class name.
func (c VertexClass) String() string {
	if c == Interior {
		return "Interior"
	}
	return "Boundary"
}

// End returns the vertex e points to.
func (s *Surface) End(e EdgeID) VertexID {
	return s.Edges[s.Edges[e].Next].Start
}

// Prev returns the half-edge whose Next is e.
func (s *Surface) Prev(e EdgeID) EdgeID {
	p := e
	for range len(s.Edges) {
		n := s.Edges[p].Next
		if n == e {
			return p
		}
		p = n
	}
	return NoEdge
}

// Twin returns the live twin of e, or NoEdge on a boundary.
func (s *Surface) Twin(e EdgeID) EdgeID {
	t := s.Edges[e].Twin
	if t == NoEdge || s.Edges[t].Status != Active {
		return NoEdge
	}
	return t
}

// IsBoundaryEdge reports whether e has no live twin.
func (s *Surface) IsBoundaryEdge(e EdgeID) bool {
	return s.Twin(e) == NoEdge
}

// Loop returns the half-edges of f in traversal order.
func (s *Surface) Loop(f FaceID) []EdgeID {
	start := s.Faces[f].Edge
	if start == NoEdge {
		return nil
	}
	loop := make([]EdgeID, 0, 3)
	e := start
	for range len(s.Edges) {
		loop = append(loop, e)
		e = s.Edges[e].Next
		if e == start {
			break
		}
	}
	return loop
}

// Sides returns the number of half-edges in the loop of f.
func (s *Surface) Sides(f FaceID) int {
	return len(s.Loop(f))
}

// FaceVertices returns the vertices of f in loop order.
func (s *Surface) FaceVertices(f FaceID) []VertexID {
	loop := s.Loop(f)
	verts := make([]VertexID, len(loop))
	for i, e := range loop {
		verts[i] = s.Edges[e].Start
	}
	return verts
}

// Star returns the live half-edges leaving v. Both rotation directions are
// walked so that a fan broken by a boundary is still collected in full.
func (s *Surface) Star(v VertexID) []EdgeID {
	if !s.liveOutgoing(v) {
		return nil
	}
	h0 := s.Vertices[v].Edge
	star := []EdgeID{h0}

	// Clockwise: the next outgoing edge is Next(Twin(h)).
	h := h0
	for range len(s.Edges) {
		t := s.Twin(h)
		if t == NoEdge {
			break
		}
		h = s.Edges[t].Next
		if h == h0 {
			return star
		}
		if s.Edges[h].Start != v || contains(star, h) {
			return star
		}
		star = append(star, h)
	}

	// Counter-clockwise from h0: Twin(Prev(h)).
	h = h0
	for range len(s.Edges) {
		p := s.Prev(h)
		if p == NoEdge {
			break
		}
		t := s.Twin(p)
		if t == NoEdge || s.Edges[t].Start != v || contains(star, t) {
			break
		}
		star = append(star, t)
		h = t
	}
	return star
}

// Valence returns the number of half-edges leaving v.
func (s *Surface) Valence(v VertexID) int {
	return len(s.Star(v))
}

// Classify returns whether v is an interior or a boundary vertex. An
// isolated vertex counts as boundary.
func (s *Surface) Classify(v VertexID) VertexClass {
	star := s.Star(v)
	if len(star) == 0 {
		return Boundary
	}
	for _, h := range star {
		if s.IsBoundaryEdge(h) {
			return Boundary
		}
		if p := s.Prev(h); p == NoEdge || s.IsBoundaryEdge(p) {
			return Boundary
		}
	}
	return Interior
}

// IsBoundaryVertex reports whether v lies on the mesh border.
func (s *Surface) IsBoundaryVertex(v VertexID) bool {
	return s.Classify(v) == Boundary
}

// Neighbors returns the distinct vertices sharing an edge with v.
func (s *Surface) Neighbors(v VertexID) []VertexID {
	star := s.Star(v)
	ring := make([]VertexID, 0, len(star)+1)
	add := func(w VertexID) {
		if w == v {
			return
		}
		for _, x := range ring {
			if x == w {
				return
			}
		}
		ring = append(ring, w)
	}
	for _, h := range star {
		add(s.End(h))
		if p := s.Prev(h); p != NoEdge {
			add(s.Edges[p].Start)
		}
	}
	return ring
}

// Components labels every active face with the id of its connected
// component (faces joined through twins) and returns the component count.
// Deleted faces get -1. The flood fill uses an explicit worklist.
func (s *Surface) Components() (Labels, int) {
	labels := NewLabels(len(s.Faces), -1)
	count := 0
	var queue []FaceID
	for i := range s.Faces {
		if s.Faces[i].Status != Active || labels[i] >= 0 {
			continue
		}
		labels[i] = count
		queue = append(queue[:0], FaceID(i))
		for len(queue) > 0 {
			f := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			for _, e := range s.Loop(f) {
				t := s.Twin(e)
				if t == NoEdge {
					continue
				}
				g := s.Edges[t].Face
				if g == NoFace || s.Faces[g].Status != Active || labels[g] >= 0 {
					continue
				}
				labels[g] = count
				queue = append(queue, g)
			}
		}
		count++
	}
	return labels, count
}

func contains(list []EdgeID, e EdgeID) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}
