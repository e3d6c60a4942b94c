package geom

// LidarPoint is a Point observed by a LiDAR sensor at a given Timestamp with
// a reflectivity reading (0-255 nominal).
type LidarPoint struct {
	Point
	Timestamp    Timestamp
	Reflectivity int
	Tag          ClusterTag
}

// NewLidarPoint builds a LidarPoint from raw coordinates, a timestamp and a
// reflectivity reading.
func NewLidarPoint(x, y, z float64, ts Timestamp, reflectivity int) LidarPoint {
	return LidarPoint{
		Point:        Point{X: x, Y: y, Z: z},
		Timestamp:    ts,
		Reflectivity: reflectivity,
	}
}
