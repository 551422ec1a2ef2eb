package halfedge

// PairTwins binds twins among the given half-edges. Two half-edges are
// candidates when each one ends where the other starts; matching is by
// vertex identity, never by position. Every edge still lacking a twin
// takes the first unbound candidate, and the binding is mutual. Edges left
// unbound are boundary edges. Returns the number of pairs bound.
//
// The candidate set is exactly edges, so after local surgery only the
// affected half-edges need to be passed.
func (s *Surface) PairTwins(edges []EdgeID) int {
	// outgoing[v] lists candidate half-edges leaving v.
	outgoing := make(map[VertexID][]EdgeID, len(edges))
	for _, e := range edges {
		he := &s.Edges[e]
		if he.Status != Active {
			continue
		}
		if he.Twin != NoEdge && s.Edges[he.Twin].Status != Active {
			he.Twin = NoEdge
		}
		outgoing[he.Start] = append(outgoing[he.Start], e)
	}

	paired := 0
	for _, e := range edges {
		he := s.Edges[e]
		if he.Status != Active || he.Twin != NoEdge {
			continue
		}
		start, end := he.Start, s.End(e)
		for _, c := range outgoing[end] {
			if c == e || s.Edges[c].Twin != NoEdge || s.End(c) != start {
				continue
			}
			s.Edges[e].Twin = c
			s.Edges[c].Twin = e
			paired++
			break
		}
	}
	return paired
}

// PairAll runs PairTwins over every active half-edge.
func (s *Surface) PairAll() int {
	edges := make([]EdgeID, 0, len(s.Edges))
	for i := range s.Edges {
		if s.Edges[i].Status == Active {
			edges = append(edges, EdgeID(i))
		}
	}
	return s.PairTwins(edges)
}

// SetTwin makes a and b mutual twins, first severing whatever each of
// them was twinned with. Passing NoEdge for b turns a into a boundary edge.
func (s *Surface) SetTwin(a, b EdgeID) {
	s.unlinkTwin(a)
	if b == NoEdge {
		return
	}
	s.unlinkTwin(b)
	s.Edges[a].Twin = b
	s.Edges[b].Twin = a
}

func (s *Surface) unlinkTwin(e EdgeID) {
	t := s.Edges[e].Twin
	if t != NoEdge && s.Edges[t].Twin == e {
		s.Edges[t].Twin = NoEdge
	}
	s.Edges[e].Twin = NoEdge
}

// BoundaryVertices returns the active vertices on the mesh border.
func (s *Surface) BoundaryVertices() []VertexID {
	var out []VertexID
	for i := range s.Vertices {
		if s.Vertices[i].Status == Active && s.IsBoundaryVertex(VertexID(i)) {
			out = append(out, VertexID(i))
		}
	}
	return out
}

// BoundaryEdges returns the active half-edges without a twin.
func (s *Surface) BoundaryEdges() []EdgeID {
	var out []EdgeID
	for i := range s.Edges {
		if s.Edges[i].Status == Active && s.IsBoundaryEdge(EdgeID(i)) {
			out = append(out, EdgeID(i))
		}
	}
	return out
}
