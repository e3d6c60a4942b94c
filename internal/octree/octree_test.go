package octree

import (
	"math/rand"
	"testing"

	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/stretchr/testify/require"
)

func randomPoints(n int, seed int64) []geom.Point {
	r := rand.New(rand.NewSource(seed))
	pts := make([]geom.Point, n)
	for i := range pts {
		pts[i] = geom.Point{
			X: r.Float64()*200 - 100,
			Y: r.Float64()*200 - 100,
			Z: r.Float64()*200 - 100,
		}
	}
	return pts
}

func TestContainment(t *testing.T) {
	pts := randomPoints(500, 1)
	tree := Build(pts, 10)

	for _, p := range pts {
		got := tree.Query(Sphere{Center: p, Radius: 0})
		require.NotEmpty(t, got, "expected at least one neighbor for %v", p)
		found := false
		for _, g := range got {
			if g.Equal(p) {
				found = true
				break
			}
		}
		require.True(t, found)
	}
}

func TestLeafInvariant(t *testing.T) {
	pts := randomPoints(2000, 2)
	tree := Build(pts, 25)

	for _, size := range tree.leafSizes() {
		require.LessOrEqual(t, size, 25)
	}
	require.Equal(t, len(pts), tree.Len())
}

func TestEmptyNodesAreLeaves(t *testing.T) {
	tree := Build(randomPoints(50, 3), 10)
	// any node with nil children must be reported as a leaf
	var walk func(n *node)
	walk = func(n *node) {
		if n.isLeaf() {
			return
		}
		for _, c := range n.children {
			require.NotNil(t, c)
			walk(c)
		}
	}
	walk(tree.root)
}

func TestSphereQueryRadius(t *testing.T) {
	pts := []geom.Point{{0, 0, 0}, {1, 0, 0}, {10, 0, 0}}
	tree := Build(pts, 100)

	got := tree.Query(Sphere{Center: geom.Point{}, Radius: 1.5})
	require.Len(t, got, 2)
}

func TestCircleQueryIgnoresX(t *testing.T) {
	pts := []geom.Point{{1000, 0, 0}, {-1000, 0.1, 0.1}}
	tree := Build(pts, 100)

	got := tree.Query(Circle{Center: geom.Point{}, Radius: 1})
	require.Len(t, got, 2)
}

func TestAnyShortCircuits(t *testing.T) {
	pts := []geom.Point{{5, 5, 5}}
	tree := Build(pts, 100)

	require.True(t, tree.Any(Sphere{Center: geom.Point{5, 5, 5}, Radius: 0.01}))
	require.False(t, tree.Any(Sphere{Center: geom.Point{500, 500, 500}, Radius: 0.01}))
}

func TestInsertWithoutBuildSubdividesCorrectly(t *testing.T) {
	tree := New(4)
	for i := 0; i < 100; i++ {
		tree.Insert(geom.Point{X: float64(i)})
	}
	for _, size := range tree.leafSizes() {
		require.LessOrEqual(t, size, 4)
	}
}
