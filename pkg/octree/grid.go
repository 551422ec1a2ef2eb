package octree

import (
	gomath "math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
	"github.com/Faultbox/midgard-tiler/pkg/math"
)

// Grid supplies the cutting planes that divide a box into 2^Depth equal
// slabs along each axis.
type Grid struct {
	Depth int
}

// GridForLeafSize picks the smallest depth whose cells are no larger than
// leaf along the longest axis of b.
func GridForLeafSize(b r3.Box, leaf float64) Grid {
	if math.BoxIsEmpty(b) {
		return Grid{}
	}
	size := b.Size()
	longest := max(size.X, size.Y, size.Z)
	if leaf <= 0 || longest <= leaf {
		return Grid{}
	}
	return Grid{Depth: int(gomath.Ceil(gomath.Log2(longest / leaf)))}
}

// GridFromTree uses the depth the tree reached as the grid depth.
func GridFromTree(t *Tree) Grid {
	return Grid{Depth: t.Depth()}
}

// Planes returns the interior planes of the grid over b, axis by axis in
// ascending offset order. Flat axes get no planes.
func (g Grid) Planes(b r3.Box) []math.Plane {
	if g.Depth <= 0 || math.BoxIsEmpty(b) {
		return nil
	}
	n := 1 << g.Depth
	planes := make([]math.Plane, 0, 3*(n-1))
	for _, axis := range math.Axes {
		lo := axis.Component(b.Min)
		size := axis.Component(b.Max) - lo
		if size <= 0 {
			continue
		}
		for i := 1; i < n; i++ {
			planes = append(planes, math.Plane{Axis: axis, Offset: lo + size*float64(i)/float64(n)})
		}
	}
	return planes
}

// Cells collects the per-cell surfaces produced by a spatial split. It is
// safe for concurrent use.
type Cells struct {
	mu       sync.Mutex
	surfaces map[int][]*halfedge.Surface
}

// NewCells returns an empty collector.
func NewCells() *Cells {
	return &Cells{surfaces: make(map[int][]*halfedge.Surface)}
}

// Accept stores s under cell.
func (c *Cells) Accept(cell int, s *halfedge.Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surfaces[cell] = append(c.surfaces[cell], s)
}

// Keys returns the occupied cell ids in ascending order.
func (c *Cells) Keys() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]int, 0, len(c.surfaces))
	for k := range c.surfaces {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Get returns the surfaces stored under cell.
func (c *Cells) Get(cell int) []*halfedge.Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surfaces[cell]
}

// Len returns the total number of stored surfaces.
func (c *Cells) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, list := range c.surfaces {
		n += len(list)
	}
	return n
}
