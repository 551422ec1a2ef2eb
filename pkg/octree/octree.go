// Package octree provides the spatial index used to bucket vertices and to
// choose the grid of cutting planes for tiling.
package octree

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/math"
)

// Defaults for New.
const (
	DefaultLeafSize = 32
	DefaultMaxDepth = 16
)

// NodeType is the kind of an octree node.
type NodeType uint8

const (
	InternalNode NodeType = iota
	LeafNodeEmpty
	LeafNodeFilled
)

// Point is an indexed position stored in the tree.
type Point struct {
	ID  int
	Pos r3.Vec
}

// Node is one octant. Internal nodes own eight children; leaves own points.
type Node struct {
	Bounds   r3.Box
	Children [8]*Node
	Points   []Point
	Depth    int
}

// Type returns the node kind.
func (n *Node) Type() NodeType {
	if n.Children[0] != nil {
		return InternalNode
	}
	if len(n.Points) == 0 {
		return LeafNodeEmpty
	}
	return LeafNodeFilled
}

// Tree is a point octree. Leaves split once they hold more than LeafSize
// points, until MaxDepth is reached.
type Tree struct {
	Root     *Node
	LeafSize int
	MaxDepth int
	size     int
}

// New returns an empty tree over bounds. Non-positive leafSize or maxDepth
// select the defaults.
func New(bounds r3.Box, leafSize, maxDepth int) *Tree {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Tree{
		Root:     &Node{Bounds: cube(bounds)},
		LeafSize: leafSize,
		MaxDepth: maxDepth,
	}
}

// cube expands b to a cube around its center so octants stay cubic. An
// empty or flat box still gets a non-zero extent.
func cube(b r3.Box) r3.Box {
	if math.BoxIsEmpty(b) {
		return r3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	}
	size := b.Size()
	half := 0.5 * max(size.X, size.Y, size.Z)
	if half == 0 {
		half = 0.5
	}
	// pad slightly so points on the max faces fall inside
	half *= 1 + 1e-9
	return math.BoxAround(b.Center(), half)
}

// Len returns the number of stored points.
func (t *Tree) Len() int {
	return t.size
}

// Insert adds a point. Points outside the root bounds are clamped into the
// nearest octant, so every point is always stored.
func (t *Tree) Insert(id int, p r3.Vec) {
	t.size++
	n := t.Root
	for n.Children[0] != nil {
		n = n.Children[octant(n, p)]
	}
	n.Points = append(n.Points, Point{ID: id, Pos: p})
	if len(n.Points) > t.LeafSize && n.Depth < t.MaxDepth {
		t.split(n)
	}
}

// split turns a leaf into an internal node, pushing its points down. It
// keeps splitting children that are still over capacity.
func (t *Tree) split(n *Node) {
	work := []*Node{n}
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]

		c := n.Bounds.Center()
		for i := range n.Children {
			b := n.Bounds
			if i&1 != 0 {
				b.Min.X = c.X
			} else {
				b.Max.X = c.X
			}
			if i&2 != 0 {
				b.Min.Y = c.Y
			} else {
				b.Max.Y = c.Y
			}
			if i&4 != 0 {
				b.Min.Z = c.Z
			} else {
				b.Max.Z = c.Z
			}
			n.Children[i] = &Node{Bounds: b, Depth: n.Depth + 1}
		}
		for _, p := range n.Points {
			child := n.Children[octant(n, p.Pos)]
			child.Points = append(child.Points, p)
		}
		n.Points = nil
		for _, child := range n.Children {
			if len(child.Points) > t.LeafSize && child.Depth < t.MaxDepth {
				work = append(work, child)
			}
		}
	}
}

func octant(n *Node, p r3.Vec) int {
	c := n.Bounds.Center()
	i := 0
	if p.X >= c.X {
		i |= 1
	}
	if p.Y >= c.Y {
		i |= 2
	}
	if p.Z >= c.Z {
		i |= 4
	}
	return i
}

// Query calls fn for every point inside box. Iteration stops early when fn
// returns false.
func (t *Tree) Query(box r3.Box, fn func(Point) bool) {
	stack := []*Node{t.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !math.BoxOverlaps(n.Bounds, box) && n != t.Root {
			continue
		}
		if n.Children[0] != nil {
			for _, c := range n.Children {
				stack = append(stack, c)
			}
			continue
		}
		for _, p := range n.Points {
			if box.Contains(p.Pos) && !fn(p) {
				return
			}
		}
	}
}

// Leaves calls fn for every leaf node holding points.
func (t *Tree) Leaves(fn func(*Node)) {
	stack := []*Node{t.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Children[0] != nil {
			stack = append(stack, n.Children[:]...)
			continue
		}
		if len(n.Points) > 0 {
			fn(n)
		}
	}
}

// Depth returns the depth of the deepest node.
func (t *Tree) Depth() int {
	depth := 0
	stack := []*Node{t.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		depth = max(depth, n.Depth)
		if n.Children[0] != nil {
			stack = append(stack, n.Children[:]...)
		}
	}
	return depth
}
