package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ilmartoo-go/lidaranomaly/internal/anomaly"
	"github.com/ilmartoo-go/lidaranomaly/internal/characterize"
	"github.com/ilmartoo-go/lidaranomaly/internal/fsutil"
	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/monitoring"
	"github.com/ilmartoo-go/lidaranomaly/internal/report"
	"github.com/ilmartoo-go/lidaranomaly/internal/scanner"
	"github.com/ilmartoo-go/lidaranomaly/internal/security"
	"github.com/ilmartoo-go/lidaranomaly/internal/store"
)

// shell is the interactive command loop (spec §6): one line in, one
// command dispatched to completion (windowing commands block until the
// scanner pauses), one line of feedback out.
type shell struct {
	app *app
	in  *bufio.Scanner
	out io.Writer
}

func newShell(a *app, r io.Reader, w io.Writer) *shell {
	return &shell{app: a, in: bufio.NewScanner(r), out: w}
}

// run reads commands until `exit`, EOF, or a write-side error on stdout.
func (s *shell) run() {
	fmt.Fprintln(s.out, "lidaranomaly interactive shell. Type `help` for commands, `exit` to quit.")
	for {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			return
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "exit" {
			return
		}
		if err := s.dispatch(fields); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *shell) dispatch(fields []string) error {
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "define":
		return s.cmdDefine(args)
	case "discard":
		return s.cmdDiscard(args)
	case "object":
		return s.cmdObject(args)
	case "model":
		return s.cmdModel(args)
	case "list":
		return s.cmdList(args)
	case "analyze":
		return s.cmdAnalyze(args)
	case "set":
		return s.cmdSet(args)
	case "chrono":
		return s.cmdChrono(args)
	case "info":
		return s.cmdInfo()
	case "help":
		return s.cmdHelp(args)
	default:
		return fmt.Errorf("unknown command %q (try `help`)", cmd)
	}
}

// cmdDefine implements `define {background | object [name]}` (spec §4.6,
// §6). Each starts the matching window and blocks — via the scanner's
// Scan()/Pause() contract — until the window closes.
func (s *shell) cmdDefine(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: define {background | object [name]}")
	}
	switch args[0] {
	case "background":
		s.app.characterizer.DefineBackground()
		code := s.app.sc.Scan()
		fmt.Fprintf(s.out, "background window closed (%s), %d points\n", code, s.app.characterizer.Info().BackgroundCount)
		return nil
	case "object":
		s.app.characterizer.DefineObject()
		code := s.app.sc.Scan()
		fmt.Fprintf(s.out, "object window closed (%s), %d points in buffer\n", code, s.app.characterizer.Info().ObjectCount)

		if len(args) < 2 {
			return nil
		}
		name := args[1]
		obj, err := s.app.characterizeObjectBuffer(context.Background())
		if err != nil {
			return fmt.Errorf("characterize: %w", err)
		}
		if err := s.app.catalog.SaveObject(name, obj); err != nil {
			return fmt.Errorf("save %q: %w", name, err)
		}
		fmt.Fprintf(s.out, "registered object %q: %d faces\n", name, len(obj.Faces))
		return nil
	default:
		return fmt.Errorf("usage: define {background | object [name]}, got %q", args[0])
	}
}

// cmdDiscard implements `discard <ms>` (spec §4.2's Discard state).
func (s *shell) cmdDiscard(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: discard <ms>")
	}
	ms, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[0], err)
	}
	s.app.characterizer.StartDiscard(ms * uint64(time.Millisecond))
	code := s.app.sc.Scan()
	fmt.Fprintf(s.out, "discard window closed (%s)\n", code)
	return nil
}

// cmdObject implements `object {describe | save | load | csv | plot} …`.
func (s *shell) cmdObject(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: object {describe | save | load | csv | plot} ...")
	}
	switch args[0] {
	case "describe":
		obj, err := s.app.characterizeObjectBuffer(context.Background())
		if err != nil {
			return err
		}
		describeObject(s.out, obj)
		return nil
	case "save":
		if len(args) != 2 {
			return errors.New("usage: object save <name>")
		}
		obj, err := s.app.characterizeObjectBuffer(context.Background())
		if err != nil {
			return err
		}
		if err := s.app.catalog.SaveObject(args[1], obj); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "saved object %q\n", args[1])
		return nil
	case "load":
		if len(args) != 2 {
			return errors.New("usage: object load <name>")
		}
		obj, err := s.app.catalog.LoadObject(args[1])
		if err != nil {
			return err
		}
		describeObject(s.out, obj)
		return nil
	case "csv":
		if len(args) != 2 {
			return errors.New("usage: object csv <path>")
		}
		return exportObjectCSV(s.app, args[1])
	case "plot":
		if len(args) != 2 {
			return errors.New("usage: object plot <path>")
		}
		obj, err := s.app.characterizeObjectBuffer(context.Background())
		if err != nil {
			return err
		}
		if err := writePointCloudPlot("object", obj, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "wrote plot to %s\n", args[1])
		return nil
	default:
		return fmt.Errorf("usage: object {describe | save | load | csv | plot} ..., got %q", args[0])
	}
}

// cmdModel implements `model {new | describe | save | load | csv | plot} …`.
// The model registry shares the object wire format (spec §3); `new` folds
// characterization and registration into one step, mirroring `define
// object <name>`.
func (s *shell) cmdModel(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: model {new | describe | save | load | csv | plot} ...")
	}
	switch args[0] {
	case "new", "save":
		if len(args) != 2 {
			return fmt.Errorf("usage: model %s <name>", args[0])
		}
		obj, err := s.app.characterizeObjectBuffer(context.Background())
		if err != nil {
			return err
		}
		ids := make([]int, len(obj.Faces))
		for i := range ids {
			ids[i] = i
		}
		m := store.Model{Name: args[1], Object: obj, FaceIDs: ids}
		if err := s.app.catalog.SaveModel(m); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "registered model %q: %d faces\n", args[1], len(obj.Faces))
		return nil
	case "describe", "load":
		if len(args) != 2 {
			return fmt.Errorf("usage: model %s <name>", args[0])
		}
		m, err := s.app.catalog.LoadModel(args[1])
		if err != nil {
			return err
		}
		describeObject(s.out, m.Object)
		return nil
	case "csv":
		if len(args) != 3 {
			return errors.New("usage: model csv <name> <path>")
		}
		m, err := s.app.catalog.LoadModel(args[1])
		if err != nil {
			return err
		}
		return exportObjectToPath(m.Object, args[2])
	case "plot":
		if len(args) != 3 {
			return errors.New("usage: model plot <name> <path>")
		}
		m, err := s.app.catalog.LoadModel(args[1])
		if err != nil {
			return err
		}
		if err := writePointCloudPlot(args[1], m.Object, args[2]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "wrote plot to %s\n", args[2])
		return nil
	default:
		return fmt.Errorf("usage: model {new | describe | save | load | csv | plot} ..., got %q", args[0])
	}
}

// cmdList implements `list {objects | models}` (spec §3 registry).
func (s *shell) cmdList(args []string) error {
	if len(args) != 1 || (args[0] != "objects" && args[0] != "models") {
		return errors.New("usage: list {objects | models}")
	}
	wantKind := store.KindObject
	if args[0] == "models" {
		wantKind = store.KindModel
	}
	entries, err := s.app.catalog.List()
	if err != nil {
		return err
	}
	n := 0
	for _, e := range entries {
		if e.Kind != wantKind {
			continue
		}
		fmt.Fprintf(s.out, "  %s\t(%s)\n", e.Name, e.CreatedAt.Format(time.RFC3339))
		n++
	}
	if n == 0 {
		fmt.Fprintf(s.out, "  (none)\n")
	}
	return nil
}

// cmdAnalyze implements `analyze <object> <model> [html_path]` (spec
// §4.7). The optional third argument is this project's enrichment over
// the minimal CLI contract: a go-echarts bar chart of the comparison.
func (s *shell) cmdAnalyze(args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return errors.New("usage: analyze <object> <model> [html_path]")
	}
	obj, err := s.app.catalog.LoadObject(args[0])
	if err != nil {
		return fmt.Errorf("load object %q: %w", args[0], err)
	}
	m, err := s.app.catalog.LoadModel(args[1])
	if err != nil {
		return fmt.Errorf("load model %q: %w", args[1], err)
	}

	var start time.Time
	if s.app.chronoAnalyze {
		start = time.Now()
	}
	report := anomaly.Compare(obj, m.Object, s.app.anomalyParams())
	if s.app.chronoAnalyze {
		monitoring.Logf("analyze lasted %.6f s", time.Since(start).Seconds())
	}

	describeReport(s.out, report)

	if len(args) == 3 {
		if err := writeComparisonChart(args[1]+" vs "+args[0], report, args[2]); err != nil {
			return fmt.Errorf("write html report: %w", err)
		}
		fmt.Fprintf(s.out, "wrote chart to %s\n", args[2])
	}
	return nil
}

// writeComparisonChart renders report as an HTML bar chart at path,
// guarded by the same export-path policy as the CSV commands.
func writeComparisonChart(title string, r anomaly.Report, path string) error {
	if err := security.ValidateExportPath(path); err != nil {
		return err
	}
	f, err := (fsutil.OSFileSystem{}).Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer f.Close()
	return report.WriteComparisonChart(f, title, r)
}

// writePointCloudPlot renders obj's per-face point cloud as a PNG scatter
// at path, guarded by the same export-path policy as the CSV commands.
// gonum/plot writes directly to a filesystem path rather than an io.Writer,
// so unlike the CSV and HTML exports this one doesn't go through fsutil.
func writePointCloudPlot(title string, obj characterize.Object, path string) error {
	if err := security.ValidateExportPath(path); err != nil {
		return err
	}
	return report.WritePointCloudPlot(path, title, obj)
}

// cmdSet implements `set {backframe | objframe | backthreshold |
// reflthreshold} <value>` (spec §6). Values apply starting with the next
// window.
func (s *shell) cmdSet(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: set {backframe | objframe | backthreshold | reflthreshold} <value>")
	}
	switch args[0] {
	case "backframe":
		if _, err := time.ParseDuration(args[1]); err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[1], err)
		}
		s.app.cfg.BackFrame = &args[1]
	case "objframe":
		if _, err := time.ParseDuration(args[1]); err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[1], err)
		}
		s.app.cfg.ObjFrame = &args[1]
	case "backthreshold":
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid float %q: %w", args[1], err)
		}
		s.app.cfg.BackDistanceM = &v
	case "reflthreshold":
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid float %q: %w", args[1], err)
		}
		s.app.cfg.MinReflectivity = &v
	default:
		return fmt.Errorf("usage: set {backframe | objframe | backthreshold | reflthreshold} <value>, got %q", args[0])
	}
	s.app.rebuildCharacterizer()
	fmt.Fprintf(s.out, "%s set to %s\n", args[0], args[1])
	return nil
}

// cmdChrono implements `chrono {set | unset} {define | analyze | all}`
// (spec §6 `-c` option's interactive-shell analogue).
func (s *shell) cmdChrono(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: chrono {set | unset} {define | analyze | all}")
	}
	var enable bool
	switch args[0] {
	case "set":
		enable = true
	case "unset":
		enable = false
	default:
		return fmt.Errorf("usage: chrono {set | unset} ..., got %q", args[0])
	}

	switch chronoTarget(args[1]) {
	case chronoDefine:
		s.app.setChronoDefine(enable)
	case chronoAnalyze:
		s.app.chronoAnalyze = enable
	case chronoAll:
		s.app.setChronoDefine(enable)
		s.app.chronoAnalyze = enable
	default:
		return fmt.Errorf("usage: chrono ... {define | analyze | all}, got %q", args[1])
	}
	fmt.Fprintf(s.out, "chrono %s %s\n", args[1], args[0])
	return nil
}

// cmdInfo implements `info`.
func (s *shell) cmdInfo() error {
	snap := s.app.characterizer.Info()
	fmt.Fprintf(s.out, "state: %s\n", snap.State)
	fmt.Fprintf(s.out, "background points: %d\n", snap.BackgroundCount)
	fmt.Fprintf(s.out, "object buffer: %d points (%d total seen this window)\n", snap.ObjectCount, snap.TotalObjectSeen)
	fmt.Fprintf(s.out, "min_reflectivity=%.1f back_frame=%s obj_frame=%s back_distance_m=%.3f\n",
		s.app.cfg.GetMinReflectivity(), s.app.cfg.GetBackFrame(), s.app.cfg.GetObjFrame(), s.app.cfg.GetBackDistanceM())
	return nil
}

var helpText = map[string]string{
	"define":  "define {background | object [name]} - scan and freeze a background, or scan an object (optionally registering it under name)",
	"discard": "discard <ms> - drop incoming points for the given duration",
	"object":  "object {describe | save | load | csv | plot} ... - characterize/inspect/export the last scanned object",
	"model":   "model {new | describe | save | load | csv | plot} ... - register/inspect/export a named model",
	"list":    "list {objects | models} - list registry entries",
	"analyze": "analyze <object> <model> [html_path] - compare a registered object to a registered model, optionally rendering an HTML chart",
	"set":     "set {backframe | objframe | backthreshold | reflthreshold} <value> - change a tuning value",
	"chrono":  "chrono {set | unset} {define | analyze | all} - toggle phase timing",
	"info":    "info - show current state and tuning values",
	"help":    "help [command] - show this message, or detail on one command",
	"exit":    "exit - quit the shell",
}

func (s *shell) cmdHelp(args []string) error {
	if len(args) == 1 {
		text, ok := helpText[args[0]]
		if !ok {
			return fmt.Errorf("no such command %q", args[0])
		}
		fmt.Fprintln(s.out, text)
		return nil
	}
	for _, name := range []string{"define", "discard", "object", "model", "list", "analyze", "set", "chrono", "info", "help", "exit"} {
		fmt.Fprintln(s.out, helpText[name])
	}
	return nil
}

func describeObject(w io.Writer, obj characterize.Object) {
	fmt.Fprintf(w, "bbox: %.1f x %.1f x %.1f mm, %d faces\n", obj.BBox.DX, obj.BBox.DY, obj.BBox.DZ, len(obj.Faces))
	for i, f := range obj.Faces {
		fmt.Fprintf(w, "  face %d: %d points, bbox %.1f x %.1f x %.1f mm, angles %.1f/%.1f/%.1f deg\n",
			i, len(f.Points), f.BBox.DX, f.BBox.DY, f.BBox.DZ, f.Angles.X, f.Angles.Y, f.Angles.Z)
	}
}

func describeReport(w io.Writer, r anomaly.Report) {
	fmt.Fprintf(w, "similar: %v (delta faces: %d)\n", r.Similar, r.DeltaFaces)
	fmt.Fprintf(w, "  general delta: %.1f/%.1f/%.1f mm (similar: %v)\n", r.General.Deltas.X, r.General.Deltas.Y, r.General.Deltas.Z, r.General.Similar)
	for _, fc := range r.FaceComparisons {
		fmt.Fprintf(w, "  model face %d <-> object face %d: delta %.1f/%.1f/%.1f mm, orientation delta %.3f rad (similar: %v)\n",
			fc.ModelFace, fc.ObjectFace, fc.Deltas.X, fc.Deltas.Y, fc.Deltas.Z, fc.OrientationDelta, fc.Similar)
	}
	if len(r.UnmatchedModel) > 0 {
		fmt.Fprintf(w, "  unmatched model faces: %v\n", r.UnmatchedModel)
	}
	if len(r.UnmatchedObject) > 0 {
		fmt.Fprintf(w, "  unmatched object faces: %v\n", r.UnmatchedObject)
	}
}

// exportObjectCSV characterizes the app's current object buffer and writes
// its face points in Livox-Viewer-compatible CSV form (spec §6).
func exportObjectCSV(a *app, path string) error {
	obj, err := a.characterizeObjectBuffer(context.Background())
	if err != nil {
		return err
	}
	return exportObjectToPath(obj, path)
}

// exportObjectToPath flattens every face's points and writes them as a
// single Livox-Viewer-compatible CSV file (spec §6). The destination must
// resolve within the working directory or the OS temp directory, guarding
// the `object csv`/`model csv` shell commands against path traversal from
// an operator-supplied path.
func exportObjectToPath(obj characterize.Object, path string) error {
	if err := security.ValidateExportPath(path); err != nil {
		return err
	}

	var all []geom.Point
	for _, f := range obj.Faces {
		all = append(all, f.Points...)
	}
	f, err := (fsutil.OSFileSystem{}).Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer f.Close()
	return scanner.WriteViewerCSV(f, all)
}
