package halfedge_test

import (
	"errors"
	gomath "math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/internal/meshtest"
	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
)

func TestFromTriangles_Grid(t *testing.T) {
	s := meshtest.Grid(2, 1)

	if got := s.ActiveVertexCount(); got != 9 {
		t.Errorf("expected 9 vertices, got %d", got)
	}
	if got := s.ActiveFaceCount(); got != 8 {
		t.Errorf("expected 8 faces, got %d", got)
	}
	if got := s.ActiveEdgeCount(); got != 24 {
		t.Errorf("expected 24 half-edges, got %d", got)
	}
	// 16 interior half-edges (8 pairs), 8 on the border
	if got := len(s.BoundaryEdges()); got != 8 {
		t.Errorf("expected 8 boundary half-edges, got %d", got)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if msg := meshtest.CheckTwins(s); msg != "" {
		t.Error(msg)
	}
	if msg := meshtest.CheckLoops(s); msg != "" {
		t.Error(msg)
	}
}

func TestFromTriangles_ClosedBox(t *testing.T) {
	s := meshtest.Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})

	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := len(s.BoundaryEdges()); got != 0 {
		t.Errorf("closed box should have no boundary edges, got %d", got)
	}
	if got := len(s.BoundaryVertices()); got != 0 {
		t.Errorf("closed box should have no boundary vertices, got %d", got)
	}
	if msg := meshtest.CheckTwins(s); msg != "" {
		t.Error(msg)
	}
	if area := s.Area(); gomath.Abs(area-6) > 1e-9 {
		t.Errorf("expected area 6, got %v", area)
	}
}

func TestFromTriangles_Errors(t *testing.T) {
	verts := make([]halfedge.Vertex, 4)

	tests := []struct {
		name    string
		faces   [][]int
		wantErr error
	}{
		{"too few vertices", [][]int{{0, 1}}, halfedge.ErrTooFewVertices},
		{"index out of range", [][]int{{0, 1, 9}}, halfedge.ErrVertexOutOfRange},
		{"negative index", [][]int{{0, -1, 2}}, halfedge.ErrVertexOutOfRange},
		{"repeated vertex", [][]int{{0, 1, 1}}, halfedge.ErrRepeatedVertex},
		{"second face bad", [][]int{{0, 1, 2}, {2, 3}}, halfedge.ErrTooFewVertices},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := halfedge.FromPolygons(verts, tt.faces)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if s != nil {
				t.Error("expected no surface on error")
			}
		})
	}
}

func TestFromPolygons_DropsUnreferencedVertices(t *testing.T) {
	verts := []halfedge.Vertex{
		{Position: r3.Vec{}},
		{Position: r3.Vec{X: 5}}, // unused
		{Position: r3.Vec{X: 1}},
		{Position: r3.Vec{Y: 1}},
	}
	s, err := halfedge.FromPolygons(verts, [][]int{{0, 2, 3}})
	if err != nil {
		t.Fatalf("FromPolygons() = %v", err)
	}
	if len(s.Vertices) != 3 {
		t.Errorf("expected 3 vertices, got %d", len(s.Vertices))
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestAddFace_Errors(t *testing.T) {
	s := halfedge.NewSurface()
	a := s.NewVertex(r3.Vec{})
	b := s.NewVertex(r3.Vec{X: 1})

	if _, err := s.AddFace(a, b); !errors.Is(err, halfedge.ErrTooFewVertices) {
		t.Errorf("expected ErrTooFewVertices, got %v", err)
	}
	if _, err := s.AddFace(a, b, 7); !errors.Is(err, halfedge.ErrVertexOutOfRange) {
		t.Errorf("expected ErrVertexOutOfRange, got %v", err)
	}
	c := s.NewVertex(r3.Vec{Y: 1})
	s.DeleteVertex(c)
	if _, err := s.AddFace(a, b, c); !errors.Is(err, halfedge.ErrDeadReference) {
		t.Errorf("expected ErrDeadReference, got %v", err)
	}
}

func TestStarAndClassify(t *testing.T) {
	s := meshtest.Grid(2, 1)
	center := halfedge.VertexID(meshtest.GridID(2, 1, 1))
	corner := halfedge.VertexID(meshtest.GridID(2, 0, 0))
	edgeMid := halfedge.VertexID(meshtest.GridID(2, 1, 0))

	if got := s.Valence(center); got != 6 {
		t.Errorf("center valence = %d, want 6", got)
	}
	if got := s.Classify(center); got != halfedge.Interior {
		t.Errorf("center class = %v, want Interior", got)
	}
	if got := s.Classify(corner); got != halfedge.Boundary {
		t.Errorf("corner class = %v, want Boundary", got)
	}
	if got := s.Classify(edgeMid); got != halfedge.Boundary {
		t.Errorf("edge-mid class = %v, want Boundary", got)
	}

	for _, h := range s.Star(center) {
		if s.Edges[h].Start != center {
			t.Errorf("star edge %d does not start at center", h)
		}
	}

	// (1,0) connects to (0,0), (2,0), (1,1) and (2,1).
	if got := len(s.Neighbors(edgeMid)); got != 4 {
		t.Errorf("edge-mid neighbours = %d, want 4", got)
	}
	// the fan of (1,0) is open on both sides, so both rotations are needed
	if got := s.Valence(edgeMid); got != 3 {
		t.Errorf("edge-mid valence = %d, want 3", got)
	}
}

func TestComponents(t *testing.T) {
	verts := []halfedge.Vertex{
		{Position: r3.Vec{}}, {Position: r3.Vec{X: 1}}, {Position: r3.Vec{Y: 1}},
		{Position: r3.Vec{X: 5}}, {Position: r3.Vec{X: 6}}, {Position: r3.Vec{X: 5, Y: 1}},
	}
	s, err := halfedge.FromTriangles(verts, [][3]int{{0, 1, 2}, {3, 4, 5}})
	if err != nil {
		t.Fatal(err)
	}
	labels, n := s.Components()
	if n != 2 {
		t.Fatalf("expected 2 components, got %d", n)
	}
	if labels[0] == labels[1] {
		t.Error("disjoint faces should be in different components")
	}

	grid := meshtest.Grid(3, 1)
	if _, n := grid.Components(); n != 1 {
		t.Errorf("grid should be one component, got %d", n)
	}
}

func TestFaceGeometry(t *testing.T) {
	s := meshtest.Triangle(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 2})

	if n := s.FaceNormal(0); n != (r3.Vec{Z: 1}) {
		t.Errorf("FaceNormal() = %v", n)
	}
	if !s.Faces[0].HasNormal {
		t.Error("normal should be cached")
	}
	s.InvalidateNormal(0)
	if s.Faces[0].HasNormal {
		t.Error("normal should be invalidated")
	}
	if a := s.FaceArea(0); gomath.Abs(a-2) > 1e-12 {
		t.Errorf("FaceArea() = %v, want 2", a)
	}
	c := s.FaceBarycenter(0)
	if gomath.Abs(c.X-2.0/3) > 1e-12 || gomath.Abs(c.Y-2.0/3) > 1e-12 {
		t.Errorf("FaceBarycenter() = %v", c)
	}
	b := s.Bounds()
	if b.Min != (r3.Vec{}) || b.Max != (r3.Vec{X: 2, Y: 2}) {
		t.Errorf("Bounds() = %v", b)
	}
	if s.IsDegenerate(0, 1e-9) {
		t.Error("triangle should not be degenerate")
	}
	if !s.IsDegenerate(0, 2.5) {
		t.Error("triangle should be degenerate with a tolerance above its shortest edge")
	}
}

func TestClone(t *testing.T) {
	s := meshtest.Grid(1, 1)
	c := s.Clone()
	c.DeleteFace(0)
	if s.Faces[0].Status != halfedge.Active {
		t.Error("clone mutation leaked into original")
	}
}
