package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointArithmeticAssociativeAndIdentity(t *testing.T) {
	p := Point{1, 2, 3}
	q := Point{4, -5, 6}
	r := Point{-7, 8, -9}

	require.Equal(t, p.Add(q).Add(r), p.Add(q.Add(r)))
	require.Equal(t, p, p.Add(Point{}))
	require.Equal(t, Point{}, p.Mul(Point{}))
	require.Equal(t, p.Mul(q), q.Mul(p))
}

func TestCrossProductOrthogonality(t *testing.T) {
	p := Point{1, 2, 3}
	q := Point{4, -5, 6}
	cross := p.Cross(q)
	require.InDelta(t, 0, cross.Dot(p), 1e-9)
	require.InDelta(t, 0, cross.Dot(q), 1e-9)
}

func TestRotatePreservesDistance(t *testing.T) {
	p := Point{3, -4, 12}
	// An arbitrary orthonormal rotation matrix (90deg about Z).
	m := [3][3]float64{
		{0, -1, 0},
		{1, 0, 0},
		{0, 0, 1},
	}
	rotated := p.Rotate(m)
	require.InEpsilon(t, p.Norm(), rotated.Norm(), 1e-12)
}

func TestDistanceSymmetric(t *testing.T) {
	p := Point{0, 0, 0}
	q := Point{1, 1, 1}
	require.InDelta(t, p.Distance(q), q.Distance(p), 1e-12)
	require.InDelta(t, math.Sqrt(3), p.Distance(q), 1e-12)
}

func TestCentroidOfEmptyIsZero(t *testing.T) {
	require.Equal(t, Point{}, Centroid(nil))
}

func TestCentroid(t *testing.T) {
	pts := []Point{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {0, 0, 2}}
	c := Centroid(pts)
	require.InDelta(t, 0.5, c.X, 1e-12)
	require.InDelta(t, 0.5, c.Y, 1e-12)
	require.InDelta(t, 0.5, c.Z, 1e-12)
}
