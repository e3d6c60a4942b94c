package main

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ilmartoo-go/lidaranomaly/internal/anomaly"
	"github.com/ilmartoo-go/lidaranomaly/internal/characterize"
	"github.com/ilmartoo-go/lidaranomaly/internal/config"
	"github.com/ilmartoo-go/lidaranomaly/internal/fsutil"
	"github.com/ilmartoo-go/lidaranomaly/internal/monitoring"
	"github.com/ilmartoo-go/lidaranomaly/internal/scanner"
	"github.com/ilmartoo-go/lidaranomaly/internal/serialmux"
	"github.com/ilmartoo-go/lidaranomaly/internal/store"
)

// chronoTarget names the phases the `chrono set/unset` shell command can
// toggle (spec §6 `-c` option and its interactive-shell analogue).
type chronoTarget string

const (
	chronoDefine  chronoTarget = "define"
	chronoAnalyze chronoTarget = "analyze"
	chronoAll     chronoTarget = "all"
)

// app bundles everything the interactive shell needs: the live scanner, the
// ingestion state machine, the object/model registry, and the tuning
// values the `set` command can mutate at runtime (spec §4, §6).
type app struct {
	cfg *config.TuningConfig
	sc  scanner.Scanner

	characterizer *characterize.Characterizer

	catalog *store.Catalog

	chronoDefine  bool
	chronoAnalyze bool
}

// newApp builds the scanner named by mode/source and wires a Characterizer
// whose pause callback resumes control to the shell (spec §5: Scan blocks
// the caller until Pause, matching the shell's "one command, one blocking
// window" UX).
func newApp(mode, source string, cfg *config.TuningConfig, catalogPath string) (*app, error) {
	var sc scanner.Scanner
	switch mode {
	case "b":
		opts, err := serialmux.PortOptions{}.Normalize()
		if err != nil {
			return nil, fmt.Errorf("serial options: %w", err)
		}
		sc = scanner.NewLidarDevice(source, opts)
	case "f":
		switch {
		case strings.HasSuffix(strings.ToLower(source), ".csv"):
			sc = scanner.NewCSVFile(fsutil.OSFileSystem{}, source)
		case strings.HasSuffix(strings.ToLower(source), ".lvx"):
			sc = scanner.NewLVXFile(fsutil.OSFileSystem{}, source)
		default:
			return nil, fmt.Errorf("unrecognized file extension for %q (want .csv or .lvx)", source)
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	if !sc.Init() {
		return nil, fmt.Errorf("failed to initialize scanner for %q", source)
	}

	cat, err := store.Open(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog %q: %w", catalogPath, err)
	}

	a := &app{cfg: cfg, sc: sc, catalog: cat}
	a.characterizer = characterize.New(a.stateParams(), sc.Pause)
	sc.SetCallback(a.characterizer.NewPoint)
	return a, nil
}

// stateParams translates the app's current tuning config into the narrow
// view characterize.Characterizer needs, converting back_distance from
// meters (config units, spec §6) to millimeters (point units).
func (a *app) stateParams() characterize.StateParams {
	return characterize.StateParams{
		MinReflectivity: int(a.cfg.GetMinReflectivity()),
		BackFrameNanos:  uint64(a.cfg.GetBackFrame().Nanoseconds()),
		ObjFrameNanos:   uint64(a.cfg.GetObjFrame().Nanoseconds()),
		BackDistance:    a.cfg.GetBackDistanceM() * 1000,
	}
}

// characterizeParams translates the app's tuning config into the view
// characterize.Characterize's clustering pipeline needs. cluster.Normal
// takes its normal tolerance as a Euclidean distance between unit vectors,
// not an angle, so the configured degree tolerance is converted via the
// chord-length identity d = 2*sin(angle/2).
func (a *app) characterizeParams() characterize.Params {
	return characterize.Params{
		ClusterPointProximity: a.cfg.GetClusterPointProximityMM(),
		MinClusterPoints:      a.cfg.GetMinClusterPoints(),
		FacePointProximity:    a.cfg.GetFacePointProximityMM(),
		MinFacePoints:         a.cfg.GetMinFacePoints(),
		MaxNormalVectAngleOC:  2 * math.Sin(a.cfg.GetMaxNormalVectAngleOCDeg()*math.Pi/180/2),
	}
}

// anomalyParams translates the app's tuning config into anomaly.Compare's
// tolerance bundle, converting the configured angle tolerance from degrees
// (config units, spec §6) to radians (anomaly.Params' unit).
func (a *app) anomalyParams() anomaly.Params {
	return anomaly.Params{
		MaxDimensionDelta:    a.cfg.GetMaxDimensionDeltaMM(),
		MaxNormalVectAngleAD: a.cfg.GetMaxNormalVectAngleADDeg() * math.Pi / 180,
	}
}

// rebuildCharacterizer re-creates the state machine after a `set` command
// changes a value the Characterizer only reads at DefineBackground /
// DefineObject / StartDiscard time; counters reset, matching the teacher's
// convention that tuning changes apply to the next window, not the current
// one.
func (a *app) rebuildCharacterizer() {
	a.characterizer = characterize.New(a.stateParams(), a.sc.Pause)
	a.sc.SetCallback(a.characterizer.NewPoint)
	a.characterizer.SetChrono(a.chronoDefine)
}

// setChronoDefine toggles phase timing for the window-scanning state
// machine, remembering the setting so it survives rebuildCharacterizer.
func (a *app) setChronoDefine(enabled bool) {
	a.chronoDefine = enabled
	a.characterizer.SetChrono(enabled)
}

func (a *app) close() {
	a.sc.Stop()
	if a.catalog != nil {
		a.catalog.Close()
	}
}

// characterizeObjectBuffer runs the full clustering/BBox pipeline over the
// most recently scanned object buffer (spec §4.6).
func (a *app) characterizeObjectBuffer(ctx context.Context) (characterize.Object, error) {
	points := a.characterizer.ObjectBuffer()
	obj, err := characterize.Characterize(ctx, points, a.characterizeParams())
	if err != nil {
		return characterize.Object{}, err
	}
	monitoring.Logf("characterized object: %d faces, bbox %.1fx%.1fx%.1f mm", len(obj.Faces), obj.BBox.DX, obj.BBox.DY, obj.BBox.DZ)
	return obj, nil
}
