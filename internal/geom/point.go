// Package geom defines the value types the rest of the system is built on:
// points, vectors, and timestamps, along with their arithmetic.
package geom

import "math"

// epsilon is the machine-epsilon tolerance multiplier used for Point equality.
const epsilon = 2.220446049250313e-16

// ClusterTag is a point's current cluster membership, assigned by a
// clustering pass. It is not part of a point's identity.
type ClusterTag int

const (
	// Unclassified marks a point that has not yet been visited by DBSCAN.
	Unclassified ClusterTag = 0
	// Noise marks a point DBSCAN determined does not belong to any cluster.
	Noise ClusterTag = -1
)

// Point is a 3D coordinate in millimeters, sensor-local cartesian space.
// It doubles as Vector when direction rather than position is intended.
type Point struct {
	X, Y, Z float64
}

// Vector is an alias for Point used when a free vector from the origin,
// rather than a position, is intended.
type Vector = Point

// Add returns the componentwise sum p+q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

// Sub returns the componentwise difference p-q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Mul returns the componentwise product p*q.
func (p Point) Mul(q Point) Point {
	return Point{p.X * q.X, p.Y * q.Y, p.Z * q.Z}
}

// Div returns the componentwise quotient p/q.
func (p Point) Div(q Point) Point {
	return Point{p.X / q.X, p.Y / q.Y, p.Z / q.Z}
}

// Scale returns p multiplied by scalar s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s, p.Z * s}
}

// Dot returns the scalar product p.q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Cross returns the cross product p×q, treating both as free vectors.
func (p Point) Cross(q Point) Vector {
	return Vector{
		X: p.Y*q.Z - p.Z*q.Y,
		Y: p.Z*q.X - p.X*q.Z,
		Z: p.X*q.Y - p.Y*q.X,
	}
}

// Distance returns the 3D Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the Euclidean length of p treated as a vector from the origin.
func (p Point) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// VectorialAngle returns the angle in radians between p and q, treating both
// as free vectors from the origin.
func (p Point) VectorialAngle(q Point) float64 {
	denom := p.Norm() * q.Norm()
	if denom == 0 {
		return 0
	}
	cos := p.Dot(q) / denom
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// Rotate returns p rotated by the 3x3 row-major matrix m.
func (p Point) Rotate(m [3][3]float64) Point {
	return Point{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z,
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z,
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z,
	}
}

// Equal reports whether p and q are equal within machine epsilon times a
// small tolerance, per component.
func (p Point) Equal(q Point) bool {
	tol := epsilon * 1e3
	return math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol && math.Abs(p.Z-q.Z) <= tol
}

// Centroid returns the arithmetic mean of points. Returns the zero Point for
// an empty slice.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sum Point
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(points)))
}
