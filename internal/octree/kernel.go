package octree

import "github.com/ilmartoo-go/lidaranomaly/internal/geom"

// Kernel selects points for a neighbor query. Implementations test a point
// for membership (Contains) and a node's AABB for possible overlap
// (Overlaps), so the tree walk can prune whole subtrees.
//
// Circle and Square only examine the Y and Z coordinates: the sensor's native
// axis convention makes X the range-to-scene axis, so many "is this point
// occluded by background" tests are naturally planar (spec §4.3).
type Kernel interface {
	Contains(p geom.Point) bool
	Overlaps(box AABB) bool
}

// Sphere selects points within radius r of Center by 3D Euclidean distance.
type Sphere struct {
	Center geom.Point
	Radius float64
}

// Contains reports whether p lies within the sphere.
func (s Sphere) Contains(p geom.Point) bool {
	return s.Center.Distance(p) <= s.Radius
}

// Overlaps reports whether box could contain a point within the sphere.
func (s Sphere) Overlaps(box AABB) bool {
	return box.DistanceSquaredTo(s.Center) <= s.Radius*s.Radius
}

// Cube selects points within an axis-aligned cube of half-edge r centered on
// Center, testing all three coordinates.
type Cube struct {
	Center geom.Point
	Radius float64
}

// Contains reports whether p lies within the cube.
func (c Cube) Contains(p geom.Point) bool {
	return absLE(p.X-c.Center.X, c.Radius) && absLE(p.Y-c.Center.Y, c.Radius) && absLE(p.Z-c.Center.Z, c.Radius)
}

// Overlaps reports whether box could overlap the cube.
func (c Cube) Overlaps(box AABB) bool {
	return box.Min.X <= c.Center.X+c.Radius && box.Max.X >= c.Center.X-c.Radius &&
		box.Min.Y <= c.Center.Y+c.Radius && box.Max.Y >= c.Center.Y-c.Radius &&
		box.Min.Z <= c.Center.Z+c.Radius && box.Max.Z >= c.Center.Z-c.Radius
}

// Circle selects points within radius r of Center in the YZ plane only.
type Circle struct {
	Center geom.Point
	Radius float64
}

// Contains reports whether p's (Y,Z) projection lies within the circle.
func (c Circle) Contains(p geom.Point) bool {
	dy, dz := p.Y-c.Center.Y, p.Z-c.Center.Z
	return dy*dy+dz*dz <= c.Radius*c.Radius
}

// Overlaps reports whether box's (Y,Z) projection could intersect the circle.
func (c Circle) Overlaps(box AABB) bool {
	var dy, dz float64
	if c.Center.Y < box.Min.Y {
		dy = box.Min.Y - c.Center.Y
	} else if c.Center.Y > box.Max.Y {
		dy = c.Center.Y - box.Max.Y
	}
	if c.Center.Z < box.Min.Z {
		dz = box.Min.Z - c.Center.Z
	} else if c.Center.Z > box.Max.Z {
		dz = c.Center.Z - box.Max.Z
	}
	return dy*dy+dz*dz <= c.Radius*c.Radius
}

// Square selects points within a half-edge r square of Center in the YZ
// plane only.
type Square struct {
	Center geom.Point
	Radius float64
}

// Contains reports whether p's (Y,Z) projection lies within the square.
func (s Square) Contains(p geom.Point) bool {
	return absLE(p.Y-s.Center.Y, s.Radius) && absLE(p.Z-s.Center.Z, s.Radius)
}

// Overlaps reports whether box's (Y,Z) projection could intersect the square.
func (s Square) Overlaps(box AABB) bool {
	return box.Min.Y <= s.Center.Y+s.Radius && box.Max.Y >= s.Center.Y-s.Radius &&
		box.Min.Z <= s.Center.Z+s.Radius && box.Max.Z >= s.Center.Z-s.Radius
}

func absLE(v, limit float64) bool {
	if v < 0 {
		v = -v
	}
	return v <= limit
}
