// Package anomaly implements the comparator (spec §4.7): a greedy bipartite
// match of model faces to object faces by bounding-box volume delta, and the
// resulting structured anomaly report.
package anomaly

import (
	"github.com/ilmartoo-go/lidaranomaly/internal/characterize"
	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/geomkernel"
)

// Comparison is a similarity verdict plus the signed extent delta
// (model - object) it was derived from. OrientationDelta is the angle
// (radians) between the pair's recovered surface normals, set whenever the
// orientation check runs; a pair can fail similarity on orientation alone,
// in which case Deltas stays within tolerance but OrientationDelta doesn't
// (spec §9 resolution (a)).
type Comparison struct {
	Similar          bool
	Deltas           geom.Vector
	OrientationDelta float64
}

// FaceComparison is a Comparison anchored to the specific model/object face
// pair it came from.
type FaceComparison struct {
	Comparison
	ModelFace  int
	ObjectFace int
}

// Report is the outcome of comparing an object to a model (spec §4.7).
type Report struct {
	Similar         bool
	General         Comparison
	DeltaFaces      int
	FaceComparisons []FaceComparison
	UnmatchedModel  []int
	UnmatchedObject []int
}

// Params bundles the tolerances the comparator needs (spec §6).
type Params struct {
	MaxDimensionDelta    float64 // mm, per-component extent tolerance
	MaxNormalVectAngleAD float64 // radians, per-face orientation tolerance (spec §9 resolution (a))
}

// Compare compares object o against model m (spec §4.7). The name mirrors
// the spec's compare(O, M) notation: general delta is M.bbox - O.bbox.
func Compare(o, m characterize.Object, p Params) Report {
	general := compareExtents(m.BBox, o.BBox, p.MaxDimensionDelta)

	faceComparisons, unmatchedModel, unmatchedObject := matchFaces(m.Faces, o.Faces, p)

	locallySimilar := true
	for _, fc := range faceComparisons {
		if !fc.Similar {
			locallySimilar = false
			break
		}
	}

	return Report{
		Similar:         general.Similar && locallySimilar && len(o.Faces) > 0,
		General:         general,
		DeltaFaces:      len(m.Faces) - len(o.Faces),
		FaceComparisons: faceComparisons,
		UnmatchedModel:  unmatchedModel,
		UnmatchedObject: unmatchedObject,
	}
}

// compareExtents builds the general Comparison: the componentwise signed
// delta a.extents - b.extents, flagged similar iff every component's
// magnitude is within tolerance.
func compareExtents(a, b geom.BBox, tolerance float64) Comparison {
	deltas := geom.Vector{X: a.DX - b.DX, Y: a.DY - b.DY, Z: a.DZ - b.DZ}
	return Comparison{
		Similar: absLE(deltas.X, tolerance) && absLE(deltas.Y, tolerance) && absLE(deltas.Z, tolerance),
		Deltas:  deltas,
	}
}

func absLE(v, limit float64) bool {
	if v < 0 {
		v = -v
	}
	return v <= limit
}

// matchFaces runs the greedy minimum-volume-delta bipartite match (spec
// §4.7 step 3): repeatedly pick the smallest available D[i][j], mark its
// row and column used, for min(|model|, |object|) rounds. Deliberately not
// a globally optimal (Hungarian) assignment — see spec §9 Open Questions.
func matchFaces(modelFaces, objectFaces []characterize.Face, p Params) ([]FaceComparison, []int, []int) {
	rows, cols := len(modelFaces), len(objectFaces)
	if rows == 0 || cols == 0 {
		return nil, allIndices(rows), allIndices(cols)
	}

	d := make([][]float64, rows)
	for i := range d {
		d[i] = make([]float64, cols)
		for j := range d[i] {
			d[i][j] = absF(modelFaces[i].BBox.Volume() - objectFaces[j].BBox.Volume())
		}
	}

	rowUsed := make([]bool, rows)
	colUsed := make([]bool, cols)
	rounds := rows
	if cols < rounds {
		rounds = cols
	}

	var comparisons []FaceComparison
	for round := 0; round < rounds; round++ {
		bi, bj, found := -1, -1, false
		best := 0.0
		for i := 0; i < rows; i++ {
			if rowUsed[i] {
				continue
			}
			for j := 0; j < cols; j++ {
				if colUsed[j] {
					continue
				}
				if !found || d[i][j] < best {
					bi, bj, best, found = i, j, d[i][j], true
				}
			}
		}
		if !found {
			break
		}
		rowUsed[bi], colUsed[bj] = true, true

		comparison := compareExtents(modelFaces[bi].BBox, objectFaces[bj].BBox, p.MaxDimensionDelta)
		if p.MaxNormalVectAngleAD > 0 {
			angle := faceNormal(modelFaces[bi]).VectorialAngle(faceNormal(objectFaces[bj]))
			comparison.OrientationDelta = angle
			if comparison.Similar {
				comparison.Similar = angle <= p.MaxNormalVectAngleAD
			}
		}
		comparisons = append(comparisons, FaceComparison{
			Comparison: comparison,
			ModelFace:  bi,
			ObjectFace: bj,
		})
	}

	var unmatchedModel, unmatchedObject []int
	for i, used := range rowUsed {
		if !used {
			unmatchedModel = append(unmatchedModel, i)
		}
	}
	for j, used := range colUsed {
		if !used {
			unmatchedObject = append(unmatchedObject, j)
		}
	}
	return comparisons, unmatchedModel, unmatchedObject
}

// faceNormal recovers a face's orientation from its stored rotation angles,
// by rotating the canonical +X axis (spec §9 resolution (a): wire
// max_normal_vect_angle_ad into the comparator as an additional per-face
// orientation check rather than leaving it unused).
func faceNormal(f characterize.Face) geom.Vector {
	m := geomkernel.RotationMatrix(f.Angles.X, f.Angles.Y, f.Angles.Z)
	return geom.Vector{X: 1}.Rotate(m)
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func allIndices(n int) []int {
	if n == 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
