// Package halfedge implements an index-based half-edge mesh.
//
// A Surface owns three flat arenas (vertices, half-edges and faces). All
// relations are indices into those arenas, with -1 meaning "absent".
// Entities are never freed during surgery: they are tombstoned with the
// Deleted status and stay addressable until Compact renumbers the arenas.
package halfedge

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// VertexID indexes Surface.Vertices.
type VertexID int32

// EdgeID indexes Surface.Edges.
type EdgeID int32

// FaceID indexes Surface.Faces.
type FaceID int32

// Absent references.
const (
	NoVertex VertexID = -1
	NoEdge   EdgeID   = -1
	NoFace   FaceID   = -1
)

// Status is the lifecycle state of an entity.
type Status uint8

const (
	Active  Status = 0
	Deleted Status = 1
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case Active:
		return "Active"
	case Deleted:
		return "Deleted"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// AttrFlags records which optional vertex attributes are present.
type AttrFlags uint8

const (
	AttrNormal AttrFlags = 1 << iota
	AttrUV
	AttrColor
	AttrBatch
)

// Has reports whether all bits of a are set.
func (f AttrFlags) Has(a AttrFlags) bool {
	return f&a == a
}

// Vertex is a mesh vertex with optional attributes.
type Vertex struct {
	Position r3.Vec
	Normal   r3.Vec   // valid if Attrs has AttrNormal
	UV       r2.Vec   // valid if Attrs has AttrUV
	Color    [4]uint8 // valid if Attrs has AttrColor
	Batch    float32  // valid if Attrs has AttrBatch
	Attrs    AttrFlags

	Edge   EdgeID // any outgoing half-edge
	Status Status
}

// HalfEdge is the directed edge Start -> Edges[Next].Start on face Face.
type HalfEdge struct {
	Twin   EdgeID // opposite half-edge, NoEdge on a boundary
	Next   EdgeID
	Face   FaceID
	Start  VertexID
	Status Status
}

// Face is a polygon bounded by the loop of half-edges reachable from Edge.
type Face struct {
	Edge      EdgeID
	Normal    r3.Vec // cached plane normal, valid if HasNormal
	HasNormal bool
	Status    Status
}

// Surface owns every vertex, half-edge and face of one piece of geometry.
type Surface struct {
	Vertices []Vertex
	Edges    []HalfEdge
	Faces    []Face

	Material int // material index carried through from ingestion
	Accessor int // accessor index carried through from ingestion
}

// Labels is a caller-owned side table mapping a VertexID or FaceID to an
// integer classification id.
type Labels []int

// NewLabels returns a table of n entries set to fill.
func NewLabels(n int, fill int) Labels {
	l := make(Labels, n)
	if fill != 0 {
		for i := range l {
			l[i] = fill
		}
	}
	return l
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

// AddVertex appends v as a new active vertex without an outgoing edge.
func (s *Surface) AddVertex(v Vertex) VertexID {
	v.Edge = NoEdge
	v.Status = Active
	s.Vertices = append(s.Vertices, v)
	return VertexID(len(s.Vertices) - 1)
}

// NewVertex appends a vertex at position p.
func (s *Surface) NewVertex(p r3.Vec) VertexID {
	return s.AddVertex(Vertex{Position: p})
}

// AddFace creates a face and its loop of half-edges over the given
// vertices, in order. Twins are not assigned; see PairTwins.
func (s *Surface) AddFace(verts ...VertexID) (FaceID, error) {
	if len(verts) < 3 {
		return NoFace, fmt.Errorf("%w: got %d", ErrTooFewVertices, len(verts))
	}
	for i, v := range verts {
		if v < 0 || int(v) >= len(s.Vertices) {
			return NoFace, fmt.Errorf("%w: vertex %d", ErrVertexOutOfRange, v)
		}
		if s.Vertices[v].Status != Active {
			return NoFace, fmt.Errorf("%w: vertex %d", ErrDeadReference, v)
		}
		for _, w := range verts[:i] {
			if w == v {
				return NoFace, fmt.Errorf("%w: vertex %d", ErrRepeatedVertex, v)
			}
		}
	}
	return s.addFace(verts), nil
}

// addFace is AddFace without validation.
func (s *Surface) addFace(verts []VertexID) FaceID {
	f := FaceID(len(s.Faces))
	first := EdgeID(len(s.Edges))
	n := EdgeID(len(verts))
	for i, v := range verts {
		e := first + EdgeID(i)
		s.Edges = append(s.Edges, HalfEdge{
			Twin:  NoEdge,
			Next:  first + (EdgeID(i)+1)%n,
			Face:  f,
			Start: v,
		})
		if !s.liveOutgoing(v) {
			s.Vertices[v].Edge = e
		}
	}
	s.Faces = append(s.Faces, Face{Edge: first})
	return f
}

// liveOutgoing reports whether v's outgoing reference is valid.
func (s *Surface) liveOutgoing(v VertexID) bool {
	e := s.Vertices[v].Edge
	return e != NoEdge && int(e) < len(s.Edges) &&
		s.Edges[e].Status == Active && s.Edges[e].Start == v
}

// ActiveVertexCount returns the number of vertices not marked Deleted.
func (s *Surface) ActiveVertexCount() int {
	n := 0
	for i := range s.Vertices {
		if s.Vertices[i].Status == Active {
			n++
		}
	}
	return n
}

// ActiveEdgeCount returns the number of half-edges not marked Deleted.
func (s *Surface) ActiveEdgeCount() int {
	n := 0
	for i := range s.Edges {
		if s.Edges[i].Status == Active {
			n++
		}
	}
	return n
}

// ActiveFaceCount returns the number of faces not marked Deleted.
func (s *Surface) ActiveFaceCount() int {
	n := 0
	for i := range s.Faces {
		if s.Faces[i].Status == Active {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of s.
func (s *Surface) Clone() *Surface {
	c := &Surface{
		Vertices: make([]Vertex, len(s.Vertices)),
		Edges:    make([]HalfEdge, len(s.Edges)),
		Faces:    make([]Face, len(s.Faces)),
		Material: s.Material,
		Accessor: s.Accessor,
	}
	copy(c.Vertices, s.Vertices)
	copy(c.Edges, s.Edges)
	copy(c.Faces, s.Faces)
	return c
}

// FromTriangles builds a twinned surface from a triangle soup. The input
// is fully validated before anything is built.
func FromTriangles(verts []Vertex, tris [][3]int) (*Surface, error) {
	polys := make([][]int, len(tris))
	for i := range tris {
		polys[i] = tris[i][:]
	}
	return FromPolygons(verts, polys)
}

// FromPolygons builds a twinned surface from polygons given as vertex
// index lists. Vertices referenced by no face are dropped, so the indices
// of the remaining vertices may shift.
func FromPolygons(verts []Vertex, faces [][]int) (*Surface, error) {
	for i, f := range faces {
		if len(f) < 3 {
			return nil, fmt.Errorf("face %d: %w: got %d", i, ErrTooFewVertices, len(f))
		}
		for j, idx := range f {
			if idx < 0 || idx >= len(verts) {
				return nil, fmt.Errorf("face %d: %w: index %d", i, ErrVertexOutOfRange, idx)
			}
			for _, prev := range f[:j] {
				if prev == idx {
					return nil, fmt.Errorf("face %d: %w: index %d", i, ErrRepeatedVertex, idx)
				}
			}
		}
	}

	s := &Surface{
		Vertices: make([]Vertex, 0, len(verts)),
		Edges:    make([]HalfEdge, 0, 3*len(faces)),
		Faces:    make([]Face, 0, len(faces)),
	}
	for _, v := range verts {
		s.AddVertex(v)
	}
	ids := make([]VertexID, 0, 4)
	for _, f := range faces {
		ids = ids[:0]
		for _, idx := range f {
			ids = append(ids, VertexID(idx))
		}
		s.addFace(ids)
	}
	s.PairAll()
	if s.DeleteUnreferencedVertices() > 0 {
		s.Compact()
	}
	return s, nil
}
