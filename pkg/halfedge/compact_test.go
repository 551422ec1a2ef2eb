package halfedge_test

import (
	"errors"
	"testing"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/internal/meshtest"
	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
)

func TestCompact_NoOp(t *testing.T) {
	s := meshtest.Grid(2, 1)
	before := s.Clone()

	r := s.Compact()
	if !r.Identity() {
		t.Error("expected identity remap on a surface without tombstones")
	}
	if len(s.Vertices) != len(before.Vertices) || len(s.Edges) != len(before.Edges) || len(s.Faces) != len(before.Faces) {
		t.Fatal("entity counts changed")
	}
	for i := range s.Edges {
		if s.Edges[i] != before.Edges[i] {
			t.Fatalf("edge %d changed: %+v -> %+v", i, before.Edges[i], s.Edges[i])
		}
	}
}

func TestCompact_RemovesTombstones(t *testing.T) {
	s := meshtest.Grid(2, 1)
	neighbors := s.DeleteFace(0)
	if len(neighbors) != 2 {
		t.Fatalf("corner face should have 2 twinned neighbours, got %d", len(neighbors))
	}
	s.DeleteUnreferencedVertices()

	r := s.Compact()
	if r.Identity() {
		t.Fatal("expected a non-identity remap")
	}
	if r.Face(0) != halfedge.NoFace {
		t.Errorf("deleted face mapped to %d", r.Face(0))
	}
	if r.Face(1) != 0 {
		t.Errorf("face 1 should become 0, got %d", r.Face(1))
	}
	if len(s.Faces) != 7 || len(s.Edges) != 21 {
		t.Errorf("expected 7 faces and 21 edges, got %d and %d", len(s.Faces), len(s.Edges))
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if msg := meshtest.CheckTwins(s); msg != "" {
		t.Error(msg)
	}
	if s.HasDeleted() {
		t.Error("tombstones remain after Compact")
	}

	// Compacting again changes nothing.
	snapshot := s.Clone()
	if r2 := s.Compact(); !r2.Identity() {
		t.Error("second Compact should be the identity")
	}
	if len(snapshot.Edges) != len(s.Edges) {
		t.Error("second Compact changed edge count")
	}
}

func TestPairTwins_Local(t *testing.T) {
	s := halfedge.NewSurface()
	a := s.NewVertex(r3.Vec{})
	b := s.NewVertex(r3.Vec{X: 1})
	c := s.NewVertex(r3.Vec{Y: 1})
	d := s.NewVertex(r3.Vec{X: 1, Y: 1})
	f1, _ := s.AddFace(a, b, c)
	f2, _ := s.AddFace(b, d, c)

	if got := s.PairAll(); got != 1 {
		t.Fatalf("expected 1 pair, got %d", got)
	}
	// pairing is one-shot: running again binds nothing new
	if got := s.PairAll(); got != 0 {
		t.Errorf("expected 0 new pairs, got %d", got)
	}

	var shared halfedge.EdgeID = halfedge.NoEdge
	for _, e := range s.Loop(f1) {
		if s.Edges[e].Twin != halfedge.NoEdge {
			shared = e
		}
	}
	if shared == halfedge.NoEdge {
		t.Fatal("no twinned edge on first face")
	}
	if s.Edges[s.Edges[shared].Twin].Face != f2 {
		t.Error("twin should belong to the second face")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestPairTwins_IdentityOnly(t *testing.T) {
	// Same positions, different vertex identities: no twins.
	verts := []halfedge.Vertex{
		{Position: r3.Vec{}}, {Position: r3.Vec{X: 1}}, {Position: r3.Vec{Y: 1}},
		{Position: r3.Vec{X: 1}}, {Position: r3.Vec{X: 1, Y: 1}}, {Position: r3.Vec{Y: 1}},
	}
	s, err := halfedge.FromTriangles(verts, [][3]int{{0, 1, 2}, {3, 4, 5}})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(s.BoundaryEdges()); got != 6 {
		t.Errorf("expected 6 boundary edges, got %d", got)
	}
}

func TestDeleteDegenerateFaces(t *testing.T) {
	s := meshtest.Grid(2, 1)
	// Pull (1,1) onto (2,2): the face (1,1),(2,1),(2,2) keeps distinct
	// vertex identities but one edge becomes zero length.
	center := halfedge.VertexID(meshtest.GridID(2, 1, 1))
	s.Vertices[center].Position = s.Vertices[meshtest.GridID(2, 2, 2)].Position

	removed := s.DeleteDegenerateFaces(1e-9)
	if removed != 2 {
		t.Fatalf("expected 2 degenerate faces, got %d", removed)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSetTwin(t *testing.T) {
	s := meshtest.Grid(1, 1)
	var interior halfedge.EdgeID = halfedge.NoEdge
	for i := range s.Edges {
		if s.Edges[i].Twin != halfedge.NoEdge {
			interior = halfedge.EdgeID(i)
			break
		}
	}
	twin := s.Edges[interior].Twin
	s.SetTwin(interior, halfedge.NoEdge)
	if s.Edges[twin].Twin != halfedge.NoEdge {
		t.Error("SetTwin(e, NoEdge) should sever the old twin")
	}
	s.SetTwin(interior, twin)
	if s.Edges[twin].Twin != interior || s.Edges[interior].Twin != twin {
		t.Error("SetTwin should bind both directions")
	}
}

func TestValidate_DetectsViolations(t *testing.T) {
	s := meshtest.Grid(1, 1)
	var e halfedge.EdgeID
	for i := range s.Edges {
		if s.Edges[i].Twin != halfedge.NoEdge {
			e = halfedge.EdgeID(i)
			break
		}
	}
	// break twin symmetry on one side
	s.Edges[s.Edges[e].Twin].Twin = halfedge.NoEdge
	// leave a vertex pointing at a dead edge
	s.Edges[s.Vertices[0].Edge].Status = halfedge.Deleted

	err := s.Validate()
	if err == nil {
		t.Fatal("expected violations")
	}
	if !errors.Is(err, halfedge.ErrTwinMismatch) {
		t.Errorf("expected ErrTwinMismatch in %v", err)
	}
	if !errors.Is(err, halfedge.ErrDanglingOutgoing) {
		t.Errorf("expected ErrDanglingOutgoing in %v", err)
	}
	if len(multierr.Errors(err)) < 2 {
		t.Errorf("expected several violations, got %d", len(multierr.Errors(err)))
	}
}

func TestValidate_TwinCheckedPastBadReferences(t *testing.T) {
	s := meshtest.Grid(1, 1)
	// edges 2 and 3 form the diagonal of the cell
	if s.Edges[2].Twin != 3 {
		t.Fatalf("fixture changed: edge 2 twin = %d", s.Edges[2].Twin)
	}
	s.Edges[2].Face = 99
	s.Edges[3].Twin = halfedge.NoEdge

	err := s.Validate()
	if !errors.Is(err, halfedge.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange in %v", err)
	}
	if !errors.Is(err, halfedge.ErrTwinMismatch) {
		t.Errorf("expected ErrTwinMismatch in %v", err)
	}
}

func TestExtract(t *testing.T) {
	s := meshtest.Grid(2, 1)
	labels := make(halfedge.Labels, len(s.Faces))
	for i := range s.Faces {
		if s.FaceBarycenter(halfedge.FaceID(i)).X > 1 {
			labels[i] = 1
		}
	}

	parts := s.SplitByLabels(labels)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	total := 0
	for id, p := range parts {
		if err := p.Validate(); err != nil {
			t.Errorf("part %d: Validate() = %v", id, err)
		}
		if p.ActiveFaceCount() != 4 {
			t.Errorf("part %d: expected 4 faces, got %d", id, p.ActiveFaceCount())
		}
		if p.ActiveVertexCount() != 6 {
			t.Errorf("part %d: expected 6 vertices, got %d", id, p.ActiveVertexCount())
		}
		total += p.ActiveFaceCount()
	}
	if total != s.ActiveFaceCount() {
		t.Errorf("parts hold %d faces, source %d", total, s.ActiveFaceCount())
	}

	if got := halfedge.SortedLabels(halfedge.Labels{3, -1, 1, 3, 0}); len(got) != 3 || got[0] != 0 || got[2] != 3 {
		t.Errorf("SortedLabels() = %v", got)
	}
}
