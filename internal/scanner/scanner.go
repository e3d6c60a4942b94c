// Package scanner implements the scanner abstraction (spec §4.1): a lazy,
// single-consumer sequence of LidarPoint values delivered in timestamp order
// to an installed callback, over one of three concrete sources (CSVFile,
// LVXFile, LidarDevice).
package scanner

import "github.com/ilmartoo-go/lidaranomaly/internal/geom"

// ScanCode is the outcome of a Scan call.
type ScanCode int

const (
	// ScanOk means scan() returned voluntarily, via Pause or a clean stop.
	ScanOk ScanCode = iota
	// ScanEof means the source was exhausted.
	ScanEof
	// ScanError means a read-time failure occurred.
	ScanError
)

func (c ScanCode) String() string {
	switch c {
	case ScanOk:
		return "ScanOk"
	case ScanEof:
		return "ScanEof"
	case ScanError:
		return "ScanError"
	default:
		return "ScanUnknown"
	}
}

// Callback is the per-point sink a Scanner invokes synchronously, once per
// delivered point, on its producing goroutine.
type Callback func(p geom.LidarPoint)

// Scanner is the common interface every concrete point source implements
// (spec §4.1). Init is idempotent. Scan blocks the caller until Pause is
// called from inside the callback, the source is exhausted (ScanEof), or a
// read fails (ScanError). Calling Scan while already scanning fails with
// ScanError without disturbing the ongoing scan.
type Scanner interface {
	// Init acquires the underlying source. Repeated calls on an
	// already-initialized scanner succeed without side effect.
	Init() bool

	// SetCallback installs the per-point sink.
	SetCallback(cb Callback)

	// Scan begins or resumes delivery.
	Scan() ScanCode

	// Pause asks the producer loop to return ScanOk at the next
	// opportunity, without closing the source.
	Pause()

	// Stop releases the source.
	Stop()
}

var (
	_ Scanner = (*CSVFile)(nil)
	_ Scanner = (*LVXFile)(nil)
	_ Scanner = (*LidarDevice)(nil)
)
