package halfedge

// Remap holds old->new index tables produced by Compact. A removed entity
// maps to -1. Nil tables mean the identity mapping.
type Remap struct {
	Vertices []VertexID
	Edges    []EdgeID
	Faces    []FaceID
}

// Vertex maps an old vertex index.
func (r Remap) Vertex(v VertexID) VertexID {
	if r.Vertices == nil || v == NoVertex {
		return v
	}
	return r.Vertices[v]
}

// Edge maps an old half-edge index.
func (r Remap) Edge(e EdgeID) EdgeID {
	if r.Edges == nil || e == NoEdge {
		return e
	}
	return r.Edges[e]
}

// Face maps an old face index.
func (r Remap) Face(f FaceID) FaceID {
	if r.Faces == nil || f == NoFace {
		return f
	}
	return r.Faces[f]
}

// Identity reports whether the remap changes nothing.
func (r Remap) Identity() bool {
	return r.Vertices == nil && r.Edges == nil && r.Faces == nil
}

// HasDeleted reports whether any entity is tombstoned.
func (s *Surface) HasDeleted() bool {
	for i := range s.Vertices {
		if s.Vertices[i].Status != Active {
			return true
		}
	}
	for i := range s.Edges {
		if s.Edges[i].Status != Active {
			return true
		}
	}
	for i := range s.Faces {
		if s.Faces[i].Status != Active {
			return true
		}
	}
	return false
}

// Compact physically removes tombstoned entities, keeping the relative
// order of the survivors, and renumbers them densely from zero. References
// from kept entities to removed ones are cleared first. Compacting a
// surface without tombstones is a no-op returning the identity Remap.
func (s *Surface) Compact() Remap {
	if !s.HasDeleted() {
		return Remap{}
	}

	for i := range s.Edges {
		if s.Edges[i].Status != Active {
			s.breakEdgeRelations(EdgeID(i))
		}
	}

	r := Remap{
		Vertices: make([]VertexID, len(s.Vertices)),
		Edges:    make([]EdgeID, len(s.Edges)),
		Faces:    make([]FaceID, len(s.Faces)),
	}

	vertices := make([]Vertex, 0, len(s.Vertices))
	for i := range s.Vertices {
		if s.Vertices[i].Status != Active {
			r.Vertices[i] = NoVertex
			continue
		}
		r.Vertices[i] = VertexID(len(vertices))
		vertices = append(vertices, s.Vertices[i])
	}
	edges := make([]HalfEdge, 0, len(s.Edges))
	for i := range s.Edges {
		if s.Edges[i].Status != Active {
			r.Edges[i] = NoEdge
			continue
		}
		r.Edges[i] = EdgeID(len(edges))
		edges = append(edges, s.Edges[i])
	}
	faces := make([]Face, 0, len(s.Faces))
	for i := range s.Faces {
		if s.Faces[i].Status != Active {
			r.Faces[i] = NoFace
			continue
		}
		r.Faces[i] = FaceID(len(faces))
		faces = append(faces, s.Faces[i])
	}

	for i := range vertices {
		vertices[i].Edge = r.Edge(vertices[i].Edge)
	}
	for i := range edges {
		he := &edges[i]
		he.Twin = r.Edge(he.Twin)
		he.Next = r.Edge(he.Next)
		he.Face = r.Face(he.Face)
		he.Start = r.Vertex(he.Start)
	}
	for i := range faces {
		faces[i].Edge = r.Edge(faces[i].Edge)
	}

	s.Vertices, s.Edges, s.Faces = vertices, edges, faces

	// A vertex or face whose reference pointed at a removed edge picks up
	// any surviving edge instead.
	for i := range s.Edges {
		he := s.Edges[i]
		if he.Start != NoVertex && s.Vertices[he.Start].Edge == NoEdge {
			s.Vertices[he.Start].Edge = EdgeID(i)
		}
		if he.Face != NoFace && s.Faces[he.Face].Edge == NoEdge {
			s.Faces[he.Face].Edge = EdgeID(i)
		}
	}
	return r
}

// breakEdgeRelations clears references between a discarded half-edge and
// the live entities around it.
func (s *Surface) breakEdgeRelations(e EdgeID) {
	he := &s.Edges[e]
	if t := he.Twin; t != NoEdge && s.Edges[t].Twin == e {
		s.Edges[t].Twin = NoEdge
	}
	if v := he.Start; v != NoVertex && s.Vertices[v].Edge == e {
		s.Vertices[v].Edge = NoEdge
	}
	if f := he.Face; f != NoFace && s.Faces[f].Edge == e {
		s.Faces[f].Edge = NoEdge
	}
	he.Twin = NoEdge
}
