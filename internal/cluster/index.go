package cluster

import (
	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/octree"
)

// spatialIndex answers eps-radius neighbor queries over a fixed point set,
// backed by the project's octree (spec §4.3) rather than the ad hoc grid
// hashing a flat point-cloud clusterer would otherwise need.
type spatialIndex struct {
	points []geom.Point
	tree   *octree.Octree
	eps    float64
}

func newSpatialIndex(points []geom.Point, eps float64) *spatialIndex {
	return &spatialIndex{
		points: points,
		tree:   octree.Build(points, octree.DefaultMaxPoints),
		eps:    eps,
	}
}

// query returns the indices (into the original points slice) of every point
// within eps of points[idx], including idx itself.
func (s *spatialIndex) query(idx int) []int {
	center := s.points[idx]
	kernel := octree.Sphere{Center: center, Radius: s.eps}
	arenaIdx := s.tree.QueryIndices(kernel)
	out := make([]int, len(arenaIdx))
	for i, a := range arenaIdx {
		out[i] = int(a)
	}
	return out
}
