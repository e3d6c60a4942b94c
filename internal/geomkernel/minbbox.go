package geomkernel

import (
	"context"
	"runtime"

	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"golang.org/x/sync/errgroup"
)

// angleTriple is a candidate (x,y,z) degree rotation.
type angleTriple struct{ x, y, z int }

// candidate pairs a BBox with the angles that produced it. valid is false
// for slots a cancelled search never evaluated.
type candidate struct {
	bbox   geom.BBox
	angles geom.Vector
	valid  bool
}

// better reports whether a is strictly preferable to b under the BBox order
// (spec §3), so the reduction across parallel workers is deterministic
// regardless of completion order.
func (a candidate) better(b candidate) bool {
	return a.bbox.Less(b.bbox)
}

// coarseStep and coarseMax define the coarse search grid {0,10,...,80}.
const (
	coarseStep = 10
	coarseMax  = 90 // exclusive
	fineSpan   = 10 // fine search covers [best-10, best+10)
)

// MinimumBBox searches rotations of points for the minimum-volume oriented
// bounding box, via a coarse-then-fine Euler-angle grid search (spec §4.5).
// The search is embarrassingly parallel across angle triples; for identical
// input it produces identical output regardless of worker count, ties
// broken by the lexicographic extent order (geom.BBox.Less).
func MinimumBBox(ctx context.Context, points []geom.Point) (geom.BBox, geom.Vector, error) {
	if len(points) == 0 {
		return geom.BBox{}, geom.Vector{}, nil
	}

	var coarse []angleTriple
	for i := 0; i < coarseMax; i += coarseStep {
		for j := 0; j < coarseMax; j += coarseStep {
			for k := 0; k < coarseMax; k += coarseStep {
				if i == 0 && j == 0 && k == 0 {
					continue // omit the trivial baseline
				}
				coarse = append(coarse, angleTriple{i, j, k})
			}
		}
	}

	coarseBest, err := searchBest(ctx, points, coarse)
	if err != nil {
		return geom.BBox{}, geom.Vector{}, err
	}

	var fine []angleTriple
	bx, by, bz := int(coarseBest.angles.X), int(coarseBest.angles.Y), int(coarseBest.angles.Z)
	for i := bx - fineSpan; i < bx+fineSpan; i++ {
		for j := by - fineSpan; j < by+fineSpan; j++ {
			for k := bz - fineSpan; k < bz+fineSpan; k++ {
				fine = append(fine, angleTriple{i, j, k})
			}
		}
	}

	fineBest, err := searchBest(ctx, points, fine)
	if err != nil {
		return geom.BBox{}, geom.Vector{}, err
	}

	best := coarseBest
	if fineBest.better(best) {
		best = fineBest
	}
	return best.bbox, best.angles, nil
}

// searchBest evaluates every angle triple's BBox across a worker pool and
// reduces to the single best candidate (spec §5 "Parallelism for compute").
// Cancellation is cooperative: ctx is checked between independent work
// units, returning the best candidate found so far.
func searchBest(ctx context.Context, points []geom.Point, angles []angleTriple) (candidate, error) {
	if len(angles) == 0 {
		return candidate{bbox: geom.BoundsOf(points), valid: true}, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(angles) {
		workers = len(angles)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]candidate, len(angles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for idx, at := range angles {
		idx, at := idx, at
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			m := RotationMatrix(float64(at.x), float64(at.y), float64(at.z))
			rotated := RotatePoints(points, m)
			results[idx] = candidate{
				bbox:   geom.BoundsOf(rotated),
				angles: geom.Vector{X: float64(at.x), Y: float64(at.y), Z: float64(at.z)},
				valid:  true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return candidate{}, err
	}

	var best candidate
	for _, c := range results {
		if !c.valid {
			continue
		}
		if !best.valid || c.better(best) {
			best = c
		}
	}
	if !best.valid {
		best = candidate{bbox: geom.BoundsOf(points), valid: true}
	}
	return best, nil
}
