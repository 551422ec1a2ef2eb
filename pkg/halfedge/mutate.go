package halfedge

// DeleteFace tombstones f and its loop. Twins of the loop edges are
// severed so the neighbours become boundary edges; those neighbour edges
// are returned so the caller can re-pair them.
func (s *Surface) DeleteFace(f FaceID) []EdgeID {
	if s.Faces[f].Status != Active {
		return nil
	}
	loop := s.Loop(f)
	neighbors := make([]EdgeID, 0, len(loop))
	for _, e := range loop {
		if t := s.Twin(e); t != NoEdge {
			s.Edges[t].Twin = NoEdge
			neighbors = append(neighbors, t)
		}
		s.Edges[e].Twin = NoEdge
		s.Edges[e].Status = Deleted
	}
	s.Faces[f].Status = Deleted
	return neighbors
}

// DeleteVertex tombstones v. Edges still starting at v are left alone.
func (s *Surface) DeleteVertex(v VertexID) {
	s.Vertices[v].Status = Deleted
}

// RepairOutgoing makes sure v's outgoing reference is live, trying the
// candidates in order. It reports whether v ends up with a live edge.
func (s *Surface) RepairOutgoing(v VertexID, candidates ...EdgeID) bool {
	if s.liveOutgoing(v) {
		return true
	}
	for _, e := range candidates {
		if e != NoEdge && s.Edges[e].Status == Active && s.Edges[e].Start == v {
			s.Vertices[v].Edge = e
			return true
		}
	}
	return false
}

// RebuildOutgoing re-points the outgoing reference of every active vertex
// whose edge is dead or no longer starts at it. Boundary outgoing edges are
// preferred so that star walks begin at the border. Returns the vertices
// left without any outgoing edge.
func (s *Surface) RebuildOutgoing() []VertexID {
	fix := make(map[VertexID]bool)
	for i := range s.Vertices {
		if s.Vertices[i].Status == Active && !s.liveOutgoing(VertexID(i)) {
			s.Vertices[i].Edge = NoEdge
			fix[VertexID(i)] = true
		}
	}
	if len(fix) == 0 {
		return nil
	}
	for i := range s.Edges {
		he := s.Edges[i]
		if he.Status != Active || !fix[he.Start] {
			continue
		}
		cur := s.Vertices[he.Start].Edge
		if cur == NoEdge || (!s.IsBoundaryEdge(cur) && s.IsBoundaryEdge(EdgeID(i))) {
			s.Vertices[he.Start].Edge = EdgeID(i)
		}
	}
	var orphans []VertexID
	for v := range fix {
		if s.Vertices[v].Edge == NoEdge {
			orphans = append(orphans, v)
		}
	}
	return orphans
}

// DeleteUnreferencedVertices tombstones active vertices that no active
// half-edge starts at, and returns how many were deleted.
func (s *Surface) DeleteUnreferencedVertices() int {
	used := make([]bool, len(s.Vertices))
	for i := range s.Edges {
		if s.Edges[i].Status == Active {
			used[s.Edges[i].Start] = true
		}
	}
	n := 0
	for i := range s.Vertices {
		if s.Vertices[i].Status == Active && !used[i] {
			s.Vertices[i].Status = Deleted
			s.Vertices[i].Edge = NoEdge
			n++
		}
	}
	return n
}

// DeleteDegenerateFaces removes every active face that IsDegenerate with
// the given tolerance. The surviving neighbours of each removed face are
// re-paired by identity, which stitches the two sides of a face collapsed
// to a sliver back together, and vertices left without faces are deleted.
// Returns the number of faces removed.
func (s *Surface) DeleteDegenerateFaces(eps float64) int {
	var touched []EdgeID
	n := 0
	for i := range s.Faces {
		f := FaceID(i)
		if s.Faces[i].Status != Active || !s.IsDegenerate(f, eps) {
			continue
		}
		touched = append(touched, s.DeleteFace(f)...)
		n++
	}
	if n > 0 {
		s.PairTwins(touched)
		s.DeleteUnreferencedVertices()
		s.RebuildOutgoing()
	}
	return n
}
