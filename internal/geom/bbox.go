package geom

// BBox holds the three axis-aligned extents (dx, dy, dz) of the box that, in
// some rotated frame, tightly encloses a set of points.
type BBox struct {
	DX, DY, DZ float64
}

// Volume returns dx*dy*dz.
func (b BBox) Volume() float64 {
	return b.DX * b.DY * b.DZ
}

// Less reports whether b is smaller than other: strictly smaller volume, or
// equal volume broken lexicographically by (DX, DY, DZ) — the "better
// orientation" rule used by the minimum-BBox search.
func (b BBox) Less(other BBox) bool {
	bv, ov := b.Volume(), other.Volume()
	if bv != ov {
		return bv < ov
	}
	if b.DX != other.DX {
		return b.DX < other.DX
	}
	if b.DY != other.DY {
		return b.DY < other.DY
	}
	return b.DZ < other.DZ
}

// BoundsOf computes the axis-aligned BBox extents of points, with no
// rotation applied.
func BoundsOf(points []Point) BBox {
	if len(points) == 0 {
		return BBox{}
	}
	minP, maxP := points[0], points[0]
	for _, p := range points[1:] {
		if p.X < minP.X {
			minP.X = p.X
		}
		if p.Y < minP.Y {
			minP.Y = p.Y
		}
		if p.Z < minP.Z {
			minP.Z = p.Z
		}
		if p.X > maxP.X {
			maxP.X = p.X
		}
		if p.Y > maxP.Y {
			maxP.Y = p.Y
		}
		if p.Z > maxP.Z {
			maxP.Z = p.Z
		}
	}
	return BBox{DX: maxP.X - minP.X, DY: maxP.Y - minP.Y, DZ: maxP.Z - minP.Z}
}
