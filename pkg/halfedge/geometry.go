package halfedge

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/math"
)

// Pos returns the position of v.
func (s *Surface) Pos(v VertexID) r3.Vec {
	return s.Vertices[v].Position
}

// EdgeLength returns the length of e.
func (s *Surface) EdgeLength(e EdgeID) float64 {
	return r3.Norm(r3.Sub(s.Pos(s.End(e)), s.Pos(s.Edges[e].Start)))
}

// FaceNormal returns the unit plane normal of f, computing and caching it
// on first use. Degenerate faces have a zero normal.
func (s *Surface) FaceNormal(f FaceID) r3.Vec {
	face := &s.Faces[f]
	if face.HasNormal {
		return face.Normal
	}
	n := s.computeNormal(f)
	face.Normal = n
	face.HasNormal = true
	return n
}

// InvalidateNormal drops the cached normal of f.
func (s *Surface) InvalidateNormal(f FaceID) {
	s.Faces[f].HasNormal = false
}

func (s *Surface) computeNormal(f FaceID) r3.Vec {
	verts := s.FaceVertices(f)
	pts := make([]r3.Vec, len(verts))
	for i, v := range verts {
		pts[i] = s.Pos(v)
	}
	return math.PolygonNormal(pts)
}

// FaceArea returns the area of f, fan-triangulated from its first vertex.
func (s *Surface) FaceArea(f FaceID) float64 {
	verts := s.FaceVertices(f)
	area := 0.0
	for i := 1; i+1 < len(verts); i++ {
		area += math.TriangleArea(s.Pos(verts[0]), s.Pos(verts[i]), s.Pos(verts[i+1]))
	}
	return area
}

// FaceBarycenter returns the average position of the vertices of f.
func (s *Surface) FaceBarycenter(f FaceID) r3.Vec {
	verts := s.FaceVertices(f)
	pts := make([]r3.Vec, len(verts))
	for i, v := range verts {
		pts[i] = s.Pos(v)
	}
	return math.Barycenter(pts...)
}

// IsDegenerate reports whether two vertices of f coincide, either by
// identity or because an edge is no longer than eps.
func (s *Surface) IsDegenerate(f FaceID, eps float64) bool {
	loop := s.Loop(f)
	if len(loop) < 3 {
		return true
	}
	for i, e := range loop {
		a := s.Edges[e].Start
		for _, g := range loop[:i] {
			if s.Edges[g].Start == a {
				return true
			}
		}
		if s.EdgeLength(e) <= eps {
			return true
		}
	}
	return false
}

// Bounds returns the bounding box of the active vertices.
func (s *Surface) Bounds() r3.Box {
	b := math.EmptyBox()
	for i := range s.Vertices {
		if s.Vertices[i].Status == Active {
			b = math.ExtendBox(b, s.Vertices[i].Position)
		}
	}
	return b
}

// Area returns the total area of the active faces.
func (s *Surface) Area() float64 {
	area := 0.0
	for i := range s.Faces {
		if s.Faces[i].Status == Active {
			area += s.FaceArea(FaceID(i))
		}
	}
	return area
}
