// Package geomkernel implements the geometric primitives spec §4.5 requires:
// centroid, SVD-based surface normals, plane coefficients, rotation
// matrices, and the coarse-then-fine minimum oriented bounding box search.
package geomkernel

import (
	"errors"

	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"gonum.org/v1/gonum/mat"
)

// ErrTooFewPoints is returned when Normal is asked for a normal with fewer
// than three input points.
var ErrTooFewPoints = errors.New("geomkernel: need at least 3 points for a normal")

// Normal computes the surface normal of points via economy-mode SVD of the
// mean-centered 3xN coordinate matrix: the normal is the left singular
// vector corresponding to the smallest singular value, oriented so its X
// component is non-negative (spec §4.5, §4.4).
func Normal(points []geom.Point) (geom.Vector, error) {
	if len(points) < 3 {
		return geom.Vector{}, ErrTooFewPoints
	}
	centroid := geom.Centroid(points)

	data := make([]float64, 3*len(points))
	for i, p := range points {
		data[i] = p.X - centroid.X
		data[len(points)+i] = p.Y - centroid.Y
		data[2*len(points)+i] = p.Z - centroid.Z
	}
	m := mat.NewDense(3, len(points), data)

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return geom.Vector{}, errors.New("geomkernel: SVD factorization failed")
	}

	values := svd.Values(nil)
	var u mat.Dense
	svd.UTo(&u)

	// Smallest singular value's column in U is the normal direction.
	minIdx := 0
	for i, v := range values {
		if v < values[minIdx] {
			minIdx = i
		}
	}
	n := geom.Vector{X: u.At(0, minIdx), Y: u.At(1, minIdx), Z: u.At(2, minIdx)}
	if n.X < 0 {
		n = n.Scale(-1)
	}
	return n, nil
}

// Plane returns the plane coefficients (a,b,c,d) = (n.x, n.y, n.z, -(n·c))
// for a plane with normal n passing through centroid c.
func Plane(n geom.Vector, c geom.Point) [4]float64 {
	return [4]float64{n.X, n.Y, n.Z, -(n.Dot(c))}
}
