// Package report renders an anomaly.Report as a standalone HTML bar chart,
// for operators who want a visual diff instead of (or alongside) the
// shell's text summary (SPEC_FULL §11: optional enrichment, not part of
// the minimal CLI contract in spec §6).
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ilmartoo-go/lidaranomaly/internal/anomaly"
)

// WriteComparisonChart renders one bar per matched face pair, showing the
// per-axis extent delta (model - object) that drove its similarity
// verdict, plus one bar for the object-level delta.
func WriteComparisonChart(w io.Writer, title string, r anomaly.Report) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("similar: %v", r.Similar)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "face pair"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "extent delta (mm)"}),
	)

	labels := make([]string, 0, len(r.FaceComparisons)+1)
	dx := make([]opts.BarData, 0, cap(labels))
	dy := make([]opts.BarData, 0, cap(labels))
	dz := make([]opts.BarData, 0, cap(labels))

	labels = append(labels, "object")
	dx = append(dx, opts.BarData{Value: r.General.Deltas.X})
	dy = append(dy, opts.BarData{Value: r.General.Deltas.Y})
	dz = append(dz, opts.BarData{Value: r.General.Deltas.Z})

	for _, fc := range r.FaceComparisons {
		labels = append(labels, fmt.Sprintf("M%d-O%d", fc.ModelFace, fc.ObjectFace))
		dx = append(dx, opts.BarData{Value: fc.Deltas.X})
		dy = append(dy, opts.BarData{Value: fc.Deltas.Y})
		dz = append(dz, opts.BarData{Value: fc.Deltas.Z})
	}

	bar.SetXAxis(labels).
		AddSeries("dx", dx).
		AddSeries("dy", dy).
		AddSeries("dz", dz)

	return bar.Render(w)
}
