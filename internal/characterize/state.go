package characterize

import (
	"time"

	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/monitoring"
	"github.com/ilmartoo-go/lidaranomaly/internal/octree"
)

// State is one of the four states the point-ingestion state machine can be
// in (spec §4.2).
type State int

const (
	Idle State = iota
	ScanBackground
	ScanObject
	Discard
)

// String renders the state's name, for logging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ScanBackground:
		return "ScanBackground"
	case ScanObject:
		return "ScanObject"
	case Discard:
		return "Discard"
	default:
		return "Unknown"
	}
}

// StateParams bundles the windowing and rejection thresholds the state
// machine needs (spec §6).
type StateParams struct {
	MinReflectivity int
	BackFrameNanos  uint64
	ObjFrameNanos   uint64
	BackDistance    float64
}

// window tracks a scanning state's first-seen sentinel and duration.
type window struct {
	started  bool
	first    geom.Timestamp
	duration uint64
}

func (w *window) reset(duration uint64) {
	w.started = false
	w.duration = duration
}

// admit reports whether ts falls inside the window, starting it if this is
// the first point seen. first is true exactly for the point that opens the
// window; it is still admitted regardless of the background test.
func (w *window) admit(ts geom.Timestamp) (first, withinWindow bool) {
	if !w.started {
		w.started = true
		w.first = ts
		return true, true
	}
	cutoff := w.first.Nanos() + w.duration
	return false, ts.Nanos() < cutoff
}

// Chrono times a named phase when enabled, logging elapsed seconds through
// monitoring.Logf (spec §6 `-c` chronometer option, SPEC_FULL §12).
type Chrono struct {
	enabled bool
	start   time.Time
	label   string
}

// SetChrono toggles phase timing.
func (c *Chrono) SetChrono(enabled bool) { c.enabled = enabled }

func (c *Chrono) begin(label string) {
	if !c.enabled {
		return
	}
	c.label = label
	c.start = time.Now()
}

func (c *Chrono) end(pointCount int) {
	if !c.enabled {
		return
	}
	elapsed := time.Since(c.start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(pointCount) / elapsed
	}
	monitoring.Logf("%s lasted %.6f s (%.2f points/s)", c.label, elapsed, rate)
}

// Snapshot is a point-in-time view of the characterizer's counters, used by
// the `info` shell command (SPEC_FULL §12).
type Snapshot struct {
	State           State
	BackgroundCount int
	ObjectCount     int
	TotalObjectSeen int
}

// Characterizer is the point-ingestion state machine (spec §4.2): it routes
// arriving LidarPoints into a background spatial index, an object point
// buffer, or the floor, driven entirely by point timestamps. It runs
// exclusively on the scanner's producing goroutine; no locking is needed
// because nothing else touches its fields while a scan is in flight (spec
// §5).
type Characterizer struct {
	params StateParams
	state  State

	bgWindow   window
	objWindow  window
	discardWin window

	background     []geom.Point
	backgroundTree *octree.Octree

	object []geom.Point

	pCount, tpCount int

	chrono Chrono
	pause  func()
}

// New creates an idle Characterizer. pause is called when a scanning window
// closes, mirroring the scanner.pause() call the original state machine
// issues from inside its point callback.
func New(params StateParams, pause func()) *Characterizer {
	return &Characterizer{params: params, pause: pause}
}

// SetChrono toggles phase timing.
func (c *Characterizer) SetChrono(enabled bool) { c.chrono.SetChrono(enabled) }

// State returns the current state.
func (c *Characterizer) State() State { return c.state }

// Background returns the frozen background point set (valid once the
// background window has closed).
func (c *Characterizer) Background() []geom.Point { return c.background }

// ObjectBuffer returns the points accumulated during the most recent
// ScanObject window.
func (c *Characterizer) ObjectBuffer() []geom.Point { return c.object }

// Info returns a snapshot of the characterizer's counters.
func (c *Characterizer) Info() Snapshot {
	return Snapshot{
		State:           c.state,
		BackgroundCount: len(c.background),
		ObjectCount:     len(c.object),
		TotalObjectSeen: c.tpCount,
	}
}

// DefineBackground clears any previous background and begins accumulating a
// new one (spec §4.2, §4.6).
func (c *Characterizer) DefineBackground() {
	c.background = nil
	c.backgroundTree = nil
	c.pCount = 0
	c.bgWindow.reset(c.params.BackFrameNanos)
	c.state = ScanBackground
	c.chrono.begin("Background scanning")
}

// DefineObject clears the previous object buffer and begins a new
// ScanObject window.
func (c *Characterizer) DefineObject() {
	c.object = nil
	c.pCount, c.tpCount = 0, 0
	c.objWindow.reset(c.params.ObjFrameNanos)
	c.state = ScanObject
	c.chrono.begin("Object scanning")
}

// StartDiscard begins a Discard window of the given duration.
func (c *Characterizer) StartDiscard(durationNanos uint64) {
	c.pCount = 0
	c.discardWin.reset(durationNanos)
	c.state = Discard
}

// NewPoint routes a single arriving point (spec §4.2). It is the
// characterizer's entire public ingestion surface: the scanner's callback
// calls this once per delivered point.
func (c *Characterizer) NewPoint(p geom.LidarPoint) {
	if p.Reflectivity < c.params.MinReflectivity {
		return
	}

	switch c.state {
	case ScanBackground:
		c.handleBackground(p)
	case ScanObject:
		c.handleObject(p)
	case Discard:
		c.handleDiscard(p)
	default: // Idle
	}
}

func (c *Characterizer) handleBackground(p geom.LidarPoint) {
	_, within := c.bgWindow.admit(p.Timestamp)
	if within {
		c.pCount++
		c.background = append(c.background, p.Point)
		return
	}

	c.state = Idle
	c.chrono.end(c.pCount)
	c.backgroundTree = octree.Build(c.background, octree.DefaultMaxPoints)
	monitoring.Logf("defined background contains %d unique points", c.pCount)
	c.pause()
}

func (c *Characterizer) handleObject(p geom.LidarPoint) {
	_, within := c.objWindow.admit(p.Timestamp)
	if within {
		c.tpCount++
		// The window's first point still counts toward the window
		// (objWindow.admit already opened it above) but, like every other
		// point, is only kept if it isn't a background point.
		if !c.isBackground(p.Point) {
			c.pCount++
			c.object = append(c.object, p.Point)
		}
		return
	}

	c.state = Idle
	c.chrono.end(c.tpCount)
	monitoring.Logf("defined object contains %d unique points (%d total points scanned)", c.pCount, c.tpCount)
	c.pause()
}

func (c *Characterizer) handleDiscard(p geom.LidarPoint) {
	_, within := c.discardWin.admit(p.Timestamp)
	if within {
		c.pCount++
		return
	}

	c.state = Idle
	monitoring.Logf("a total of %d points were discarded", c.pCount)
	c.pause()
}

// isBackground reports whether p lies within BackDistance of any background
// point, by 3D Euclidean distance (spec §9 Open Questions: this
// implementation takes the "reject if any background point lies within
// back_distance in 3D" reading, using the Sphere kernel rather than the 2D
// Circle the source's naming suggests — see DESIGN.md).
func (c *Characterizer) isBackground(p geom.Point) bool {
	if c.backgroundTree == nil {
		return false
	}
	return c.backgroundTree.Any(octree.Sphere{Center: p, Radius: c.params.BackDistance})
}
