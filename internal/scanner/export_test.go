package scanner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ilmartoo-go/lidaranomaly/internal/geom"
)

func TestWriteViewerCSVHeaderAndRows(t *testing.T) {
	points := []geom.Point{{X: 1, Y: 2, Z: 3}, {X: -4, Y: 5.5, Z: 6}}

	var buf bytes.Buffer
	if err := WriteViewerCSV(&buf, points); err != nil {
		t.Fatalf("WriteViewerCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != viewerCSVHeader {
		t.Errorf("unexpected header: %q", lines[0])
	}
	cols := strings.Split(lines[1], ",")
	if len(cols) != 19 {
		t.Errorf("expected 19 columns, got %d", len(cols))
	}
	if cols[csvColX] != "1.000000" || cols[csvColY] != "2.000000" || cols[csvColZ] != "3.000000" {
		t.Errorf("unexpected coordinate columns: %v", cols)
	}
}

func TestWriteViewerCSVLidarPointsCarriesMetadata(t *testing.T) {
	ts := geom.NewTimestampFromNanos(1_000_000_000)
	points := []geom.LidarPoint{geom.NewLidarPoint(1, 2, 3, ts, 200)}

	var buf bytes.Buffer
	if err := WriteViewerCSVLidarPoints(&buf, points); err != nil {
		t.Fatalf("WriteViewerCSVLidarPoints: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	cols := strings.Split(lines[1], ",")
	if cols[csvColTimestamp] != "1000000000" {
		t.Errorf("unexpected timestamp column: %q", cols[csvColTimestamp])
	}
	if cols[csvColReflectivity] != "200" {
		t.Errorf("unexpected reflectivity column: %q", cols[csvColReflectivity])
	}
}
