package halfedge

import "sort"

// Extract copies the given faces, and only the vertices they reference,
// into a new surface. Twins are re-derived inside the copy, so adjacency
// to faces that were not extracted is dropped and shows up as a seam.
func (s *Surface) Extract(faces []FaceID) *Surface {
	out := &Surface{Material: s.Material, Accessor: s.Accessor}
	vmap := make(map[VertexID]VertexID)
	ids := make([]VertexID, 0, 4)

	for _, f := range faces {
		if s.Faces[f].Status != Active {
			continue
		}
		ids = ids[:0]
		for _, v := range s.FaceVertices(f) {
			nv, ok := vmap[v]
			if !ok {
				nv = out.AddVertex(s.Vertices[v])
				vmap[v] = nv
			}
			ids = append(ids, nv)
		}
		nf := out.addFace(ids)
		out.Faces[nf].Normal = s.Faces[f].Normal
		out.Faces[nf].HasNormal = s.Faces[f].HasNormal
	}
	out.PairAll()
	return out
}

// SplitByLabels groups the active faces by their label and extracts one
// surface per label. Faces labelled below zero are skipped.
func (s *Surface) SplitByLabels(labels Labels) map[int]*Surface {
	groups := make(map[int][]FaceID)
	for i := range s.Faces {
		if s.Faces[i].Status != Active || i >= len(labels) || labels[i] < 0 {
			continue
		}
		groups[labels[i]] = append(groups[labels[i]], FaceID(i))
	}
	out := make(map[int]*Surface, len(groups))
	for id, faces := range groups {
		out[id] = s.Extract(faces)
	}
	return out
}

// SortedLabels returns the distinct non-negative labels in ascending order.
func SortedLabels(labels Labels) []int {
	seen := make(map[int]bool)
	var out []int
	for _, l := range labels {
		if l >= 0 && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}
