// Package scene holds the face-indexed vertex soup that meshes enter and
// leave the engine as, and the node tree that groups them.
package scene

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
	"github.com/Faultbox/midgard-tiler/pkg/math"
)

// Ingestion errors.
var (
	ErrMalformedFace      = errors.New("face has fewer than 3 vertices")
	ErrMalformedIndex     = errors.New("vertex index out of range")
	ErrMalformedAttribute = errors.New("attribute array length mismatch")
	ErrNoPositions        = errors.New("primitive has no positions")
)

// Primitive is one drawable piece: parallel per-vertex attribute arrays
// and polygons as lists of indices into them. Optional arrays are either
// empty or as long as Positions.
type Primitive struct {
	Positions []r3.Vec
	Normals   []r3.Vec
	UVs       []r2.Vec
	Colors    [][4]uint8
	Batches   []float32
	Faces     [][]int

	Material int
	Accessor int
}

// Mesh is a named list of primitives.
type Mesh struct {
	Name       string
	Primitives []*Primitive
}

// Node is a scene tree node.
type Node struct {
	Name     string
	Meshes   []*Mesh
	Children []*Node
}

// Scene is a tree of nodes.
type Scene struct {
	Root *Node
}

// Walk calls fn for every primitive in depth-first order, parents first.
// Returning an error stops the walk and returns that error.
func (sc *Scene) Walk(fn func(n *Node, m *Mesh, p *Primitive) error) error {
	if sc == nil || sc.Root == nil {
		return nil
	}
	stack := []*Node{sc.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, m := range n.Meshes {
			for _, p := range m.Primitives {
				if err := fn(n, m, p); err != nil {
					return err
				}
			}
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return nil
}

// Validate checks attribute lengths and face indices.
func (p *Primitive) Validate() error {
	n := len(p.Positions)
	if n == 0 && len(p.Faces) > 0 {
		return ErrNoPositions
	}
	check := func(name string, l int) error {
		if l != 0 && l != n {
			return fmt.Errorf("%w: %s has %d entries, positions %d", ErrMalformedAttribute, name, l, n)
		}
		return nil
	}
	if err := check("normals", len(p.Normals)); err != nil {
		return err
	}
	if err := check("uvs", len(p.UVs)); err != nil {
		return err
	}
	if err := check("colors", len(p.Colors)); err != nil {
		return err
	}
	if err := check("batches", len(p.Batches)); err != nil {
		return err
	}
	for i, f := range p.Faces {
		if len(f) < 3 {
			return fmt.Errorf("face %d: %w: got %d", i, ErrMalformedFace, len(f))
		}
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("face %d: %w: %d", i, ErrMalformedIndex, idx)
			}
		}
	}
	return nil
}

// TriangleCount returns the number of triangles the faces fan into.
func (p *Primitive) TriangleCount() int {
	n := 0
	for _, f := range p.Faces {
		if len(f) >= 3 {
			n += len(f) - 2
		}
	}
	return n
}

// ToSurface validates p and builds a twinned surface from it. Polygons
// are fan-triangulated from their first vertex and every triangle keeps
// the normal of the polygon it came from. Nothing is built on error.
func ToSurface(p *Primitive) (*halfedge.Surface, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	verts := make([]halfedge.Vertex, len(p.Positions))
	for i, pos := range p.Positions {
		v := halfedge.Vertex{Position: pos}
		if len(p.Normals) > 0 {
			v.Normal = p.Normals[i]
			v.Attrs |= halfedge.AttrNormal
		}
		if len(p.UVs) > 0 {
			v.UV = p.UVs[i]
			v.Attrs |= halfedge.AttrUV
		}
		if len(p.Colors) > 0 {
			v.Color = p.Colors[i]
			v.Attrs |= halfedge.AttrColor
		}
		if len(p.Batches) > 0 {
			v.Batch = p.Batches[i]
			v.Attrs |= halfedge.AttrBatch
		}
		verts[i] = v
	}

	tris := make([][3]int, 0, p.TriangleCount())
	normals := make([]r3.Vec, 0, cap(tris))
	var pts []r3.Vec
	for _, f := range p.Faces {
		pts = pts[:0]
		for _, idx := range f {
			pts = append(pts, p.Positions[idx])
		}
		n := math.PolygonNormal(pts)
		for i := 1; i+1 < len(f); i++ {
			tris = append(tris, [3]int{f[0], f[i], f[i+1]})
			normals = append(normals, n)
		}
	}

	s, err := halfedge.FromTriangles(verts, tris)
	if err != nil {
		return nil, err
	}
	// FromTriangles keeps face order.
	for i := range s.Faces {
		if normals[i] != (r3.Vec{}) {
			s.Faces[i].Normal = normals[i]
			s.Faces[i].HasNormal = true
		}
	}
	s.Material = p.Material
	s.Accessor = p.Accessor
	return s, nil
}

// FromSurface turns the active part of s back into a primitive. An
// optional attribute array is emitted when every vertex carries it.
func FromSurface(s *halfedge.Surface) *Primitive {
	index := make([]int, len(s.Vertices))
	p := &Primitive{Material: s.Material, Accessor: s.Accessor}

	all := halfedge.AttrNormal | halfedge.AttrUV | halfedge.AttrColor | halfedge.AttrBatch
	for i := range s.Vertices {
		v := &s.Vertices[i]
		if v.Status != halfedge.Active {
			index[i] = -1
			continue
		}
		index[i] = len(p.Positions)
		p.Positions = append(p.Positions, v.Position)
		all &= v.Attrs
	}

	for i := range s.Vertices {
		v := &s.Vertices[i]
		if v.Status != halfedge.Active {
			continue
		}
		if all.Has(halfedge.AttrNormal) {
			p.Normals = append(p.Normals, v.Normal)
		}
		if all.Has(halfedge.AttrUV) {
			p.UVs = append(p.UVs, v.UV)
		}
		if all.Has(halfedge.AttrColor) {
			p.Colors = append(p.Colors, v.Color)
		}
		if all.Has(halfedge.AttrBatch) {
			p.Batches = append(p.Batches, v.Batch)
		}
	}

	for i := range s.Faces {
		if s.Faces[i].Status != halfedge.Active {
			continue
		}
		verts := s.FaceVertices(halfedge.FaceID(i))
		face := make([]int, len(verts))
		for j, v := range verts {
			face[j] = index[v]
		}
		p.Faces = append(p.Faces, face)
	}
	return p
}
