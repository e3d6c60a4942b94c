package cluster

import (
	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/geomkernel"
)

// localNormal is a point's surface normal estimated from its own eps
// neighborhood, oriented X-non-negative to match geomkernel.Normal. ok is
// false when the point had fewer than three spatial neighbors, so no normal
// could be computed (spec §4.4).
type localNormal struct {
	vec geom.Vector
	ok  bool
}

// Normal runs the normal-aware DBSCAN variant (spec §4.4): two points may
// share a face only if they are within eps of each other AND their locally
// estimated surface normals are within normalDispersion (Euclidean distance
// between the unit normal vectors, not an angle). Points whose own eps
// neighborhood has fewer than 3 points never seed or join a face. Cluster
// IDs start at 1, matching Spatial.
func Normal(points []geom.Point, eps float64, minPts int, normalDispersion float64) []Cluster {
	if len(points) == 0 {
		return nil
	}
	index := newSpatialIndex(points, eps)
	normals := estimateNormals(points, index)

	neighbors := func(idx int) []int {
		if !normals[idx].ok {
			return nil
		}
		anchor := normals[idx].vec
		candidates := index.query(idx)
		out := candidates[:0:0]
		for _, i := range candidates {
			if !normals[i].ok {
				continue
			}
			if anchor.Distance(normals[i].vec) <= normalDispersion {
				out = append(out, i)
			}
		}
		return out
	}

	return run(len(points), minPts, neighbors)
}

// estimateNormals computes each point's local surface normal from its own
// spatial eps neighborhood, independent of any cluster expansion. Computing
// these once up front avoids recomputing a point's normal every time another
// candidate's expansion references it.
func estimateNormals(points []geom.Point, index *spatialIndex) []localNormal {
	out := make([]localNormal, len(points))
	for i := range points {
		neighborIdx := index.query(i)
		if len(neighborIdx) < 3 {
			continue
		}
		neighborPts := make([]geom.Point, len(neighborIdx))
		for j, n := range neighborIdx {
			neighborPts[j] = points[n]
		}
		n, err := geomkernel.Normal(neighborPts)
		if err != nil {
			continue
		}
		out[i] = localNormal{vec: n, ok: true}
	}
	return out
}
