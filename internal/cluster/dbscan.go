// Package cluster implements the two DBSCAN flavors spec §4.4 requires:
// plain spatial density clustering, and a normal-aware variant that also
// requires normal-angle agreement before two points can share a cluster.
package cluster

import "github.com/ilmartoo-go/lidaranomaly/internal/geom"

// label values, matching the convention of the original DBSCAN formulation:
// 0 is unvisited, -1 is noise, and any positive value is a cluster ID.
const (
	unclassified = 0
	noise        = -1
)

// Cluster is a set of point indices (into the caller's original slice)
// assigned the same cluster ID. IDs start at 1.
type Cluster struct {
	ID      int
	Indices []int
}

// neighborhood looks up every index within eps of points[idx], excluding idx
// itself is not required: DBSCAN treats a point as its own neighbor.
type neighborhood func(idx int) []int

// Spatial runs DBSCAN over points using 3D Euclidean distance as the
// neighborhood relation (spec §4.4). Cluster IDs start at 1; noise points
// are left unassigned and do not appear in the result. Deterministic for a
// fixed input ordering and parameters (spec §8).
func Spatial(points []geom.Point, eps float64, minPts int) []Cluster {
	if len(points) == 0 {
		return nil
	}
	index := newSpatialIndex(points, eps)
	return run(len(points), minPts, index.query)
}

// run performs the standard DBSCAN cluster-expansion loop given a
// neighborhood function, shared by every clustering variant in this package.
func run(n, minPts int, neighbors neighborhood) []Cluster {
	labels := make([]int, n)
	nextID := 1
	var clusters []Cluster

	for i := 0; i < n; i++ {
		if labels[i] != unclassified {
			continue
		}

		seeds := neighbors(i)
		if len(seeds) < minPts {
			labels[i] = noise
			continue
		}

		clusterID := nextID
		nextID++
		labels[i] = clusterID

		// Queue-based expansion: indices are appended to the same slice being
		// ranged over, so newly discovered core points' neighbors are folded
		// in without a second pass.
		queue := append([]int{}, seeds...)
		for j := 0; j < len(queue); j++ {
			idx := queue[j]

			if labels[idx] == noise {
				labels[idx] = clusterID // noise becomes a border point
			}
			if labels[idx] != unclassified {
				continue
			}
			labels[idx] = clusterID

			more := neighbors(idx)
			if len(more) >= minPts {
				queue = append(queue, more...)
			}
		}

		clusters = append(clusters, buildCluster(clusterID, labels))
	}
	return clusters
}

// buildCluster collects every index assigned to clusterID, in ascending
// order, so cluster membership is deterministic regardless of expansion
// order.
func buildCluster(clusterID int, labels []int) Cluster {
	var members []int
	for i, l := range labels {
		if l == clusterID {
			members = append(members, i)
		}
	}
	return Cluster{ID: clusterID, Indices: members}
}
