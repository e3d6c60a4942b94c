package geomkernel

import (
	"context"
	"testing"

	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/stretchr/testify/require"
)

func planePoints() []geom.Point {
	var pts []geom.Point
	for x := 0.0; x < 5; x++ {
		for y := 0.0; y < 5; y++ {
			pts = append(pts, geom.Point{X: x, Y: y, Z: 0})
		}
	}
	return pts
}

func TestNormalOfFlatPlaneIsZAxis(t *testing.T) {
	n, err := Normal(planePoints())
	require.NoError(t, err)
	require.InDelta(t, 0, n.X, 1e-9)
	require.InDelta(t, 0, n.Y, 1e-9)
	require.InDelta(t, 1, n.Z*n.Z, 1e-9) // +-1
}

func TestNormalRequiresThreePoints(t *testing.T) {
	_, err := Normal([]geom.Point{{}, {X: 1}})
	require.ErrorIs(t, err, ErrTooFewPoints)
}

func TestRotationMatrixPreservesDistance(t *testing.T) {
	m := RotationMatrix(37, 12, 88)
	p := geom.Point{X: 3, Y: -5, Z: 7}
	rotated := p.Rotate(m)
	require.InEpsilon(t, p.Norm(), rotated.Norm(), 1e-9)
}

func cubeSurfacePoints(side float64, steps int) []geom.Point {
	var pts []geom.Point
	step := side / float64(steps)
	for i := 0; i <= steps; i++ {
		for j := 0; j <= steps; j++ {
			a := float64(i) * step
			b := float64(j) * step
			pts = append(pts,
				geom.Point{X: 0, Y: a, Z: b},
				geom.Point{X: side, Y: a, Z: b},
				geom.Point{X: a, Y: 0, Z: b},
				geom.Point{X: a, Y: side, Z: b},
				geom.Point{X: a, Y: b, Z: 0},
				geom.Point{X: a, Y: b, Z: side},
			)
		}
	}
	return pts
}

func TestMinimumBBoxAxisAlignedCube(t *testing.T) {
	pts := cubeSurfacePoints(100, 10)
	bbox, _, err := MinimumBBox(context.Background(), pts)
	require.NoError(t, err)
	require.InDelta(t, 100, bbox.DX, 1.0)
	require.InDelta(t, 100, bbox.DY, 1.0)
	require.InDelta(t, 100, bbox.DZ, 1.0)
}

func TestMinimumBBoxMonotonicity(t *testing.T) {
	base := cubeSurfacePoints(100, 6)
	bboxBase, _, err := MinimumBBox(context.Background(), base)
	require.NoError(t, err)

	extra := append(append([]geom.Point{}, base...), geom.Point{X: 200, Y: 200, Z: 200})
	bboxExtra, _, err := MinimumBBox(context.Background(), extra)
	require.NoError(t, err)

	require.GreaterOrEqual(t, bboxExtra.Volume(), bboxBase.Volume())
}

func TestMinimumBBoxDeterministic(t *testing.T) {
	pts := cubeSurfacePoints(100, 6)
	bbox1, angles1, err := MinimumBBox(context.Background(), pts)
	require.NoError(t, err)
	bbox2, angles2, err := MinimumBBox(context.Background(), pts)
	require.NoError(t, err)
	require.Equal(t, bbox1, bbox2)
	require.Equal(t, angles1, angles2)
}
