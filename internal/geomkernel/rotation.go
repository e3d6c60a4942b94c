package geomkernel

import (
	"math"

	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
)

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RotationMatrix builds the standard ZYX intrinsic rotation matrix from
// degrees: gamma around X, beta around Y, alpha around Z (spec §4.5).
func RotationMatrix(gammaXDeg, betaYDeg, alphaZDeg float64) [3][3]float64 {
	g, b, a := degToRad(gammaXDeg), degToRad(betaYDeg), degToRad(alphaZDeg)

	cg, sg := math.Cos(g), math.Sin(g)
	cb, sb := math.Cos(b), math.Sin(b)
	ca, sa := math.Cos(a), math.Sin(a)

	rx := [3][3]float64{
		{1, 0, 0},
		{0, cg, -sg},
		{0, sg, cg},
	}
	ry := [3][3]float64{
		{cb, 0, sb},
		{0, 1, 0},
		{-sb, 0, cb},
	}
	rz := [3][3]float64{
		{ca, -sa, 0},
		{sa, ca, 0},
		{0, 0, 1},
	}

	return matMul3(rz, matMul3(ry, rx))
}

func matMul3(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// RotatePoints returns a new slice with every point rotated by m.
func RotatePoints(points []geom.Point, m [3][3]float64) []geom.Point {
	out := make([]geom.Point, len(points))
	for i, p := range points {
		out[i] = p.Rotate(m)
	}
	return out
}
