// Package meshtest builds small reference surfaces for tests.
package meshtest

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
)

// GridID returns the vertex index of grid corner (i, j) in a grid with n
// cells per side.
func GridID(n, i, j int) int {
	return j*(n+1) + i
}

// Grid returns an n x n grid of cells of the given spacing on the XY plane,
// two counter-clockwise triangles per cell split along the (i,j)-(i+1,j+1)
// diagonal.
func Grid(n int, spacing float64) *halfedge.Surface {
	verts := make([]halfedge.Vertex, 0, (n+1)*(n+1))
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			verts = append(verts, halfedge.Vertex{
				Position: r3.Vec{X: float64(i) * spacing, Y: float64(j) * spacing},
			})
		}
	}
	var tris [][3]int
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := GridID(n, i, j)
			b := GridID(n, i+1, j)
			c := GridID(n, i+1, j+1)
			d := GridID(n, i, j+1)
			tris = append(tris, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return Must(halfedge.FromTriangles(verts, tris))
}

// BoxTriangles lists the 12 outward-facing triangles of a box over the
// corner order used by Box.
var BoxTriangles = [][3]int{
	{0, 3, 2}, {0, 2, 1}, // z min
	{4, 5, 6}, {4, 6, 7}, // z max
	{0, 1, 5}, {0, 5, 4}, // y min
	{3, 7, 6}, {3, 6, 2}, // y max
	{0, 4, 7}, {0, 7, 3}, // x min
	{1, 2, 6}, {1, 6, 5}, // x max
}

// Box returns a closed, consistently oriented triangulated box.
func Box(lo, hi r3.Vec) *halfedge.Surface {
	corners := []r3.Vec{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
	}
	verts := make([]halfedge.Vertex, len(corners))
	for i, c := range corners {
		verts[i] = halfedge.Vertex{Position: c}
	}
	return Must(halfedge.FromTriangles(verts, BoxTriangles))
}

// Triangle returns a single-face surface.
func Triangle(a, b, c r3.Vec) *halfedge.Surface {
	verts := []halfedge.Vertex{{Position: a}, {Position: b}, {Position: c}}
	return Must(halfedge.FromTriangles(verts, [][3]int{{0, 1, 2}}))
}

// Must panics on a build error; fixtures are static.
func Must(s *halfedge.Surface, err error) *halfedge.Surface {
	if err != nil {
		panic(fmt.Sprintf("meshtest: %v", err))
	}
	return s
}

// CheckTwins returns a description of the first twin-symmetry violation,
// or "" if every active twin satisfies e.twin.twin == e and the endpoint
// relations.
func CheckTwins(s *halfedge.Surface) string {
	for i := range s.Edges {
		e := halfedge.EdgeID(i)
		he := s.Edges[i]
		if he.Status != halfedge.Active || he.Twin == halfedge.NoEdge {
			continue
		}
		t := s.Edges[he.Twin]
		if t.Twin != e {
			return fmt.Sprintf("edge %d: twin.twin = %d", e, t.Twin)
		}
		if t.Start != s.Edges[he.Next].Start {
			return fmt.Sprintf("edge %d: twin.start != next.start", e)
		}
		if he.Start != s.Edges[t.Next].Start {
			return fmt.Sprintf("edge %d: start != twin.next.start", e)
		}
	}
	return ""
}

// CheckLoops returns a description of the first face whose loop does not
// close after exactly its side count, or "".
func CheckLoops(s *halfedge.Surface) string {
	for i := range s.Faces {
		if s.Faces[i].Status != halfedge.Active {
			continue
		}
		f := halfedge.FaceID(i)
		sides := s.Sides(f)
		e := s.Faces[i].Edge
		for range sides {
			e = s.Edges[e].Next
		}
		if e != s.Faces[i].Edge {
			return fmt.Sprintf("face %d: loop does not close after %d steps", f, sides)
		}
	}
	return ""
}
