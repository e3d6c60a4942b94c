// Package characterize implements the point-ingestion state machine and the
// object characterization pipeline (spec §4.2, §4.6): routing arriving
// LidarPoints into a background index or an object buffer, and turning a
// finished object buffer into a CharacterizedObject of planar Faces plus an
// overall oriented BBox.
package characterize

import (
	"context"
	"errors"

	"github.com/ilmartoo-go/lidaranomaly/internal/cluster"
	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/geomkernel"
)

// ErrInsufficientPoints is returned when characterization finds no dominant
// cluster or no faces within it; a soft failure per spec §7 — the caller
// registers nothing.
var ErrInsufficientPoints = errors.New("characterize: insufficient points")

// Face is a maximal set of points normal-aware DBSCAN deemed coplanar,
// together with the minimum oriented BBox enclosing them and the rotation
// angles (degrees, X-then-Y-then-Z) that achieve it.
type Face struct {
	Points []geom.Point
	BBox   geom.BBox
	Angles geom.Vector
}

// Object is a CharacterizedObject or, interchangeably, a Model: the
// distinction between the two is purely one of intent in the registry
// (spec §3). Zero or more Faces plus the object-level minimum oriented BBox.
type Object struct {
	Faces []Face
	BBox  geom.BBox
}

// NonTrivial reports whether o has at least one face.
func (o Object) NonTrivial() bool {
	return len(o.Faces) > 0
}

// Params bundles the tuning values the characterization pipeline needs
// (spec §6 configuration constants); it is a narrow view onto the project's
// full config so this package has no dependency on internal/config.
type Params struct {
	ClusterPointProximity float64 // eps for dominant-cluster spatial DBSCAN
	MinClusterPoints      int     // minPts for dominant-cluster spatial DBSCAN
	FacePointProximity    float64 // eps for normal-aware face DBSCAN
	MinFacePoints         int     // minPts for normal-aware face DBSCAN
	MaxNormalVectAngleOC  float64 // normal tolerance for face DBSCAN (characterization)
}

// Characterize runs the full object characterizer pipeline (spec §4.6) over
// a finished object point buffer: dominant spatial cluster, normal-aware
// face decomposition, per-face and object-level minimum oriented BBoxes.
func Characterize(ctx context.Context, points []geom.Point, p Params) (Object, error) {
	if len(points) == 0 {
		return Object{}, ErrInsufficientPoints
	}

	dominant, err := dominantCluster(points, p)
	if err != nil {
		return Object{}, err
	}

	faceClusters := cluster.Normal(dominant, p.FacePointProximity, p.MinFacePoints, p.MaxNormalVectAngleOC)
	if len(faceClusters) == 0 {
		return Object{}, ErrInsufficientPoints
	}

	faces := make([]Face, len(faceClusters))
	var allFacePoints []geom.Point
	for i, fc := range faceClusters {
		facePoints := make([]geom.Point, len(fc.Indices))
		for j, idx := range fc.Indices {
			facePoints[j] = dominant[idx]
		}
		bbox, angles, err := geomkernel.MinimumBBox(ctx, facePoints)
		if err != nil {
			return Object{}, err
		}
		faces[i] = Face{Points: facePoints, BBox: bbox, Angles: angles}
		allFacePoints = append(allFacePoints, facePoints...)
	}

	objBBox, _, err := geomkernel.MinimumBBox(ctx, allFacePoints)
	if err != nil {
		return Object{}, err
	}

	return Object{Faces: faces, BBox: objBBox}, nil
}

// dominantCluster applies spatial DBSCAN and selects the single largest
// cluster by point count, ties broken by first-in-iteration-order (spec
// §4.6 step 1).
func dominantCluster(points []geom.Point, p Params) ([]geom.Point, error) {
	clusters := cluster.Spatial(points, p.ClusterPointProximity, p.MinClusterPoints)
	if len(clusters) == 0 {
		return nil, ErrInsufficientPoints
	}

	best := clusters[0]
	for _, c := range clusters[1:] {
		if len(c.Indices) > len(best.Indices) {
			best = c
		}
	}

	out := make([]geom.Point, len(best.Indices))
	for i, idx := range best.Indices {
		out[i] = points[idx]
	}
	return out, nil
}
