package octree

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/internal/meshtest"
	"github.com/Faultbox/midgard-tiler/pkg/math"
)

func TestTree_InsertAndSplit(t *testing.T) {
	bounds := r3.Box{Max: r3.Vec{X: 10, Y: 10, Z: 10}}
	tree := New(bounds, 4, 8)

	id := 0
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			tree.Insert(id, r3.Vec{X: float64(x) + 0.5, Y: float64(y) + 0.5, Z: 1})
			id++
		}
	}

	if tree.Len() != 100 {
		t.Errorf("expected 100 points, got %d", tree.Len())
	}
	if tree.Root.Type() != InternalNode {
		t.Error("root should have split")
	}
	if tree.Depth() == 0 {
		t.Error("expected depth > 0")
	}

	stored := 0
	tree.Leaves(func(n *Node) {
		if len(n.Points) > tree.LeafSize && n.Depth < tree.MaxDepth {
			t.Errorf("leaf at depth %d holds %d points", n.Depth, len(n.Points))
		}
		stored += len(n.Points)
	})
	if stored != 100 {
		t.Errorf("leaves hold %d points, want 100", stored)
	}
}

func TestTree_Query(t *testing.T) {
	bounds := r3.Box{Max: r3.Vec{X: 4, Y: 4, Z: 4}}
	tree := New(bounds, 2, 0)
	pts := []r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 1.001, Y: 1, Z: 1}, {X: 3, Y: 3, Z: 3}, {X: 0, Y: 4, Z: 0}}
	for i, p := range pts {
		tree.Insert(i, p)
	}

	var found []int
	tree.Query(math.BoxAround(r3.Vec{X: 1, Y: 1, Z: 1}, 0.01), func(p Point) bool {
		found = append(found, p.ID)
		return true
	})
	if len(found) != 2 {
		t.Errorf("expected 2 points near (1,1,1), got %v", found)
	}

	// a zero-size box matches only the exact position
	found = found[:0]
	tree.Query(math.BoxAround(r3.Vec{X: 1, Y: 1, Z: 1}, 0), func(p Point) bool {
		found = append(found, p.ID)
		return true
	})
	if len(found) != 1 || found[0] != 0 {
		t.Errorf("expected only point 0 at (1,1,1), got %v", found)
	}

	count := 0
	tree.Query(bounds, func(Point) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("query should stop after the first callback returns false, got %d", count)
	}
}

func TestTree_MaxDepthBoundsSplitting(t *testing.T) {
	tree := New(r3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}}, 1, 3)
	for i := 0; i < 10; i++ {
		tree.Insert(i, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	}
	if d := tree.Depth(); d > 3 {
		t.Errorf("depth %d exceeds max depth 3", d)
	}
}

func TestGrid_Planes(t *testing.T) {
	b := r3.Box{Max: r3.Vec{X: 4, Y: 2, Z: 0}}

	planes := Grid{Depth: 2}.Planes(b)
	// 3 planes on X and 3 on Y, none on the flat Z axis
	if len(planes) != 6 {
		t.Fatalf("expected 6 planes, got %d: %v", len(planes), planes)
	}
	want := []math.Plane{
		{Axis: math.AxisX, Offset: 1}, {Axis: math.AxisX, Offset: 2}, {Axis: math.AxisX, Offset: 3},
		{Axis: math.AxisY, Offset: 0.5}, {Axis: math.AxisY, Offset: 1}, {Axis: math.AxisY, Offset: 1.5},
	}
	for i := range want {
		if planes[i] != want[i] {
			t.Errorf("plane %d = %v, want %v", i, planes[i], want[i])
		}
	}

	if got := (Grid{}).Planes(b); len(got) != 0 {
		t.Errorf("depth 0 grid should have no planes, got %v", got)
	}
}

func TestGridForLeafSize(t *testing.T) {
	b := r3.Box{Max: r3.Vec{X: 100, Y: 10, Z: 10}}
	tests := []struct {
		leaf float64
		want int
	}{
		{200, 0},
		{100, 0},
		{50, 1},
		{30, 2},
		{10, 4},
	}
	for _, tt := range tests {
		if got := GridForLeafSize(b, tt.leaf).Depth; got != tt.want {
			t.Errorf("GridForLeafSize(%v) depth = %d, want %d", tt.leaf, got, tt.want)
		}
	}
}

func TestCells(t *testing.T) {
	c := NewCells()
	c.Accept(3, meshtest.Grid(1, 1))
	c.Accept(1, meshtest.Grid(1, 1))
	c.Accept(3, meshtest.Grid(1, 1))

	keys := c.Keys()
	if len(keys) != 2 || keys[0] != 1 || keys[1] != 3 {
		t.Errorf("Keys() = %v, want [1 3]", keys)
	}
	if got := len(c.Get(3)); got != 2 {
		t.Errorf("Get(3) holds %d surfaces, want 2", got)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestGridFromTree(t *testing.T) {
	bounds := r3.Box{Max: r3.Vec{X: 2, Y: 2, Z: 2}}
	corners := bounds.Vertices()

	tests := []struct {
		name     string
		leafSize int
		maxDepth int
		want     int
	}{
		{"fits one leaf", 8, 4, 0},
		{"one corner per octant", 1, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := New(bounds, tt.leafSize, tt.maxDepth)
			for i, c := range corners {
				tree.Insert(i, c)
			}
			g := GridFromTree(tree)
			if g.Depth != tt.want {
				t.Errorf("GridFromTree().Depth = %d, want %d", g.Depth, tt.want)
			}
			if got, want := len(g.Planes(bounds)), 3*((1<<g.Depth)-1); got != want {
				t.Errorf("Planes() = %d planes, want %d", got, want)
			}
		})
	}
}
