package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ilmartoo-go/lidaranomaly/internal/characterize"
	"github.com/ilmartoo-go/lidaranomaly/internal/config"
	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
	"github.com/ilmartoo-go/lidaranomaly/internal/scanner"
	"github.com/ilmartoo-go/lidaranomaly/internal/store"
	"github.com/stretchr/testify/require"
)

// stubScanner is a Scanner whose Scan() delivers a fixed set of points
// synchronously then returns ScanOk, standing in for a real source so
// shell tests can drive define/discard without parsing a file or opening a
// serial port.
type stubScanner struct {
	points   []geom.LidarPoint
	callback scanner.Callback
}

func (s *stubScanner) Init() bool                      { return true }
func (s *stubScanner) SetCallback(cb scanner.Callback) { s.callback = cb }
func (s *stubScanner) Pause()                          {}
func (s *stubScanner) Stop()                           {}
func (s *stubScanner) Scan() scanner.ScanCode {
	for _, p := range s.points {
		s.callback(p)
	}
	return scanner.ScanOk
}

func newTestApp(t *testing.T) (*app, *stubScanner) {
	t.Helper()
	cfg := config.MustLoadDefaultConfig()
	cat, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	st := &stubScanner{}
	a := &app{cfg: cfg, sc: st, catalog: cat}
	a.characterizer = characterize.New(a.stateParams(), st.Pause)
	st.SetCallback(a.characterizer.NewPoint)
	return a, st
}

func runShell(a *app, input string) string {
	var out bytes.Buffer
	newShell(a, strings.NewReader(input), &out).run()
	return out.String()
}

func TestShellHelpAndUnknownCommand(t *testing.T) {
	a, _ := newTestApp(t)

	out := runShell(a, "help\nbogus\nexit\n")
	require.Contains(t, out, "define {background")
	require.Contains(t, out, `unknown command "bogus"`)
}

func TestShellInfoReflectsState(t *testing.T) {
	a, _ := newTestApp(t)

	out := runShell(a, "info\nexit\n")
	require.Contains(t, out, "state: Idle")
	require.Contains(t, out, "background points: 0")
}

func TestShellListEmptyRegistry(t *testing.T) {
	a, _ := newTestApp(t)

	out := runShell(a, "list objects\nlist models\nexit\n")
	require.Contains(t, out, "(none)")
}

func TestShellDefineBackground(t *testing.T) {
	a, st := newTestApp(t)
	st.points = []geom.LidarPoint{
		geom.NewLidarPoint(0, 1, 1, geom.NewTimestampFromNanos(0), 100),
		geom.NewLidarPoint(0, 2, 2, geom.NewTimestampFromNanos(1), 100),
	}

	out := runShell(a, "define background\ninfo\nexit\n")
	require.Contains(t, out, "background window closed")
	require.Contains(t, out, "background points: 2")
}

func TestShellObjectSaveAndAnalyzeRoundTrip(t *testing.T) {
	a, _ := newTestApp(t)

	obj := characterize.Object{
		BBox: geom.BBox{DX: 10, DY: 10, DZ: 10},
		Faces: []characterize.Face{
			{Points: []geom.Point{{X: 1, Y: 1, Z: 1}}, BBox: geom.BBox{DX: 1, DY: 1, DZ: 1}},
		},
	}
	require.NoError(t, a.catalog.SaveObject("crate-1", obj))
	require.NoError(t, a.catalog.SaveModel(store.Model{Name: "crate-model", Object: obj, FaceIDs: []int{0}}))

	out := runShell(a, "list objects\nlist models\nanalyze crate-1 crate-model\nexit\n")
	require.Contains(t, out, "crate-1")
	require.Contains(t, out, "crate-model")
	require.Contains(t, out, "similar: true")
}

func TestShellSetValidatesInput(t *testing.T) {
	a, _ := newTestApp(t)

	out := runShell(a, "set reflthreshold 3.5\nset backframe notaduration\nexit\n")
	require.Contains(t, out, "reflthreshold set to 3.5")
	require.Contains(t, out, "invalid duration")
	require.Equal(t, 3.5, a.cfg.GetMinReflectivity())
}

func TestShellChronoToggle(t *testing.T) {
	a, _ := newTestApp(t)

	out := runShell(a, "chrono set analyze\nchrono unset all\nexit\n")
	require.Contains(t, out, "chrono analyze set")
	require.Contains(t, out, "chrono all unset")
	require.False(t, a.chronoAnalyze)
}

func TestShellModelCSVExport(t *testing.T) {
	a, _ := newTestApp(t)
	obj := characterize.Object{
		BBox: geom.BBox{DX: 1, DY: 1, DZ: 1},
		Faces: []characterize.Face{
			{Points: []geom.Point{{X: 1, Y: 2, Z: 3}}, BBox: geom.BBox{DX: 1, DY: 1, DZ: 1}},
		},
	}
	require.NoError(t, a.catalog.SaveModel(store.Model{Name: "crate-model", Object: obj}))

	path := filepath.Join(t.TempDir(), "export.csv")
	out := runShell(a, "model csv crate-model "+path+"\nexit\n")
	require.NotContains(t, out, "error:")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "1.000000,2.000000,3.000000")
}

func TestShellModelPlotExport(t *testing.T) {
	a, _ := newTestApp(t)
	obj := characterize.Object{
		BBox: geom.BBox{DX: 1, DY: 1, DZ: 1},
		Faces: []characterize.Face{
			{Points: []geom.Point{{X: 1, Y: 2, Z: 3}, {X: 2, Y: 3, Z: 4}}, BBox: geom.BBox{DX: 1, DY: 1, DZ: 1}},
		},
	}
	require.NoError(t, a.catalog.SaveModel(store.Model{Name: "crate-model", Object: obj}))

	path := filepath.Join(t.TempDir(), "plot.png")
	out := runShell(a, "model plot crate-model "+path+"\nexit\n")
	require.NotContains(t, out, "error:")
	require.Contains(t, out, "wrote plot to "+path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestShellAnalyzeMissingNames(t *testing.T) {
	a, _ := newTestApp(t)

	out := runShell(a, "analyze missing-object missing-model\nexit\n")
	require.Contains(t, out, "error:")
}
