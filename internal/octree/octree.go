// Package octree implements a bounded, recursively subdivided spatial index
// over 3D points (spec §4.3), with an arena-owned point store so neighbor
// queries can return plain indices instead of aliasing raw pointers into an
// external vector (see spec §9 REDESIGN FLAGS, "Shared points across
// structures").
package octree

import "github.com/ilmartoo-go/lidaranomaly/internal/geom"

// DefaultMaxPoints is the default leaf capacity before a node subdivides.
const DefaultMaxPoints = 100

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max geom.Point
}

// DistanceSquaredTo returns the squared distance from p to the nearest point
// of the box (0 if p is inside).
func (b AABB) DistanceSquaredTo(p geom.Point) float64 {
	d := 0.0
	for _, axis := range [...]struct{ v, lo, hi float64 }{
		{p.X, b.Min.X, b.Max.X},
		{p.Y, b.Min.Y, b.Max.Y},
		{p.Z, b.Min.Z, b.Max.Z},
	} {
		if axis.v < axis.lo {
			d += (axis.lo - axis.v) * (axis.lo - axis.v)
		} else if axis.v > axis.hi {
			d += (axis.v - axis.hi) * (axis.v - axis.hi)
		}
	}
	return d
}

// node is an octree node: a leaf holding point-arena indices, or an internal
// node holding exactly eight children. Non-leaf nodes never store points
// directly (spec §3 "Empty nodes are leaves").
type node struct {
	center   geom.Point
	radius   float64
	box      AABB
	points   []int32 // arena indices; nil once subdivided
	children [8]*node
}

func (n *node) isLeaf() bool {
	return n.children[0] == nil
}

func newLeaf(center geom.Point, radius float64) *node {
	return &node{
		center: center,
		radius: radius,
		box: AABB{
			Min: geom.Point{X: center.X - radius, Y: center.Y - radius, Z: center.Z - radius},
			Max: geom.Point{X: center.X + radius, Y: center.Y + radius, Z: center.Z + radius},
		},
	}
}

// octantIndex returns the canonical child index (0-7) for p relative to a
// node centered at center: bit0 = sign(x-cx), bit1 = sign(y-cy), bit2 =
// sign(z-cz), with "1" meaning non-negative.
func octantIndex(center, p geom.Point) int {
	idx := 0
	if p.X-center.X >= 0 {
		idx |= 1
	}
	if p.Y-center.Y >= 0 {
		idx |= 2
	}
	if p.Z-center.Z >= 0 {
		idx |= 4
	}
	return idx
}

// octantOffset returns the center offset (±half-radius per axis) for a given
// canonical child index, inverse of octantIndex's sign convention.
func octantOffset(idx int, halfRadius float64) geom.Point {
	sign := func(bit int) float64 {
		if idx&bit != 0 {
			return halfRadius
		}
		return -halfRadius
	}
	return geom.Point{X: sign(1), Y: sign(2), Z: sign(4)}
}

// Octree is a bounded octree over an arena of points it owns exclusively.
// Mutating operations (Insert, Build) must be externally serialized; Query
// is read-only and safe for concurrent use from any number of goroutines
// once mutation has stopped (spec §4.3, §5).
type Octree struct {
	arena     []geom.Point
	root      *node
	maxPoints int
}

// New creates an empty Octree with the given leaf capacity (DefaultMaxPoints
// if maxPoints <= 0) and no root. The first Insert creates a root of
// half-edge 1 around its point; Build sizes the root to the points' bounding
// cube.
func New(maxPoints int) *Octree {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Octree{maxPoints: maxPoints}
}

// Build computes the minimum bounding cube (cubic, not tight) over points
// and inserts all of them, replacing any existing contents.
func Build(points []geom.Point, maxPoints int) *Octree {
	t := New(maxPoints)
	if len(points) == 0 {
		t.root = newLeaf(geom.Point{}, 0)
		return t
	}
	center, half := boundingCube(points)
	t.root = newLeaf(center, half)
	for _, p := range points {
		t.Insert(p)
	}
	return t
}

// boundingCube computes a cubic (not tight) bounding volume: the axis-aligned
// bounds of points, expanded to a cube centered on the bounds' midpoint.
func boundingCube(points []geom.Point) (center geom.Point, halfEdge float64) {
	minP, maxP := points[0], points[0]
	for _, p := range points[1:] {
		if p.X < minP.X {
			minP.X = p.X
		}
		if p.Y < minP.Y {
			minP.Y = p.Y
		}
		if p.Z < minP.Z {
			minP.Z = p.Z
		}
		if p.X > maxP.X {
			maxP.X = p.X
		}
		if p.Y > maxP.Y {
			maxP.Y = p.Y
		}
		if p.Z > maxP.Z {
			maxP.Z = p.Z
		}
	}
	center = geom.Point{
		X: (minP.X + maxP.X) / 2,
		Y: (minP.Y + maxP.Y) / 2,
		Z: (minP.Z + maxP.Z) / 2,
	}
	halfEdge = maxOf(maxP.X-minP.X, maxP.Y-minP.Y, maxP.Z-minP.Z) / 2
	if halfEdge == 0 {
		halfEdge = 1
	}
	return center, halfEdge
}

func maxOf(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// Insert adds p to the tree, first enlarging the root (doubling it toward p)
// until it contains p, then subdividing the owning leaf if it would exceed
// maxPoints (spec §3 leaf invariant). Not safe for concurrent use.
func (t *Octree) Insert(p geom.Point) {
	idx := int32(len(t.arena))
	t.arena = append(t.arena, p)
	if t.root == nil || t.root.radius == 0 {
		t.root = newLeaf(p, 1)
	}
	for t.root.box.DistanceSquaredTo(p) > 0 {
		old := t.root
		grown := newLeaf(old.center.Add(octantOffset(octantIndex(old.center, p), old.radius)), 2*old.radius)
		for i := range grown.children {
			grown.children[i] = newLeaf(grown.center.Add(octantOffset(i, old.radius)), old.radius)
		}
		grown.children[octantIndex(grown.center, old.center)] = old
		t.root = grown
	}
	t.insertInto(t.root, idx)
}

func (t *Octree) insertInto(n *node, idx int32) {
	if !n.isLeaf() {
		child := n.children[octantIndex(n.center, t.arena[idx])]
		t.insertInto(child, idx)
		return
	}
	n.points = append(n.points, idx)
	if len(n.points) > t.maxPoints {
		t.subdivide(n)
	}
}

// subdivide splits a full leaf into eight children at half radius, offset by
// ±half radius on each axis, then redistributes its held points.
func (t *Octree) subdivide(n *node) {
	half := n.radius / 2
	held := n.points
	n.points = nil
	for i := 0; i < 8; i++ {
		offset := octantOffset(i, half)
		n.children[i] = newLeaf(n.center.Add(offset), half)
	}
	for _, idx := range held {
		child := n.children[octantIndex(n.center, t.arena[idx])]
		t.insertInto(child, idx)
	}
}

// Query returns every arena point matching kernel, walking the tree and
// pruning subtrees whose AABB cannot overlap the kernel. Read-only; safe for
// concurrent callers.
func (t *Octree) Query(k Kernel) []geom.Point {
	if t.root == nil {
		return nil
	}
	var acc []geom.Point
	t.query(t.root, k, &acc)
	return acc
}

func (t *Octree) query(n *node, k Kernel, acc *[]geom.Point) {
	if n.isLeaf() {
		for _, idx := range n.points {
			p := t.arena[idx]
			if k.Contains(p) {
				*acc = append(*acc, p)
			}
		}
		return
	}
	for _, child := range n.children {
		if k.Overlaps(child.box) {
			t.query(child, k, acc)
		}
	}
}

// QueryIndices returns the arena indices of every point matching kernel. When
// built via Build, arena index i corresponds to the i'th point of the slice
// Build was called with, so callers needing index-correlated neighbor sets
// (e.g. DBSCAN) can use this instead of Query.
func (t *Octree) QueryIndices(k Kernel) []int32 {
	if t.root == nil {
		return nil
	}
	var acc []int32
	t.queryIndices(t.root, k, &acc)
	return acc
}

func (t *Octree) queryIndices(n *node, k Kernel, acc *[]int32) {
	if n.isLeaf() {
		for _, idx := range n.points {
			if k.Contains(t.arena[idx]) {
				*acc = append(*acc, idx)
			}
		}
		return
	}
	for _, child := range n.children {
		if k.Overlaps(child.box) {
			t.queryIndices(child, k, acc)
		}
	}
}

// Any reports whether at least one point matches kernel, short-circuiting
// the walk. Used by background rejection, where only existence matters.
func (t *Octree) Any(k Kernel) bool {
	if t.root == nil {
		return false
	}
	return t.any(t.root, k)
}

func (t *Octree) any(n *node, k Kernel) bool {
	if n.isLeaf() {
		for _, idx := range n.points {
			if k.Contains(t.arena[idx]) {
				return true
			}
		}
		return false
	}
	for _, child := range n.children {
		if k.Overlaps(child.box) && t.any(child, k) {
			return true
		}
	}
	return false
}

// Len returns the total number of points held in the arena.
func (t *Octree) Len() int {
	return len(t.arena)
}

// MaxLeafPoints returns the configured leaf capacity.
func (t *Octree) MaxLeafPoints() int {
	return t.maxPoints
}

// leafSizes is a test helper returning the point count of every leaf in
// iteration order, used to assert the leaf invariant holds after inserts.
func (t *Octree) leafSizes() []int {
	var sizes []int
	if t.root == nil {
		return sizes
	}
	var walk func(n *node)
	walk = func(n *node) {
		if n.isLeaf() {
			sizes = append(sizes, len(n.points))
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return sizes
}
