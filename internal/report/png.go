package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ilmartoo-go/lidaranomaly/internal/characterize"
)

// WritePointCloudPlot renders a top-down (X/Y) scatter of obj's points, one
// series per face so an operator can see the face decomposition at a
// glance, and saves it as a PNG at path.
func WritePointCloudPlot(path, title string, obj characterize.Object) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"

	colors := generateColors(len(obj.Faces))
	for i, f := range obj.Faces {
		pts := make(plotter.XYs, len(f.Points))
		for j, pt := range f.Points {
			pts[j] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("face %d scatter: %w", i, err)
		}
		scatter.Color = colors[i]
		scatter.Radius = vg.Points(2)
		p.Add(scatter)
		p.Legend.Add(fmt.Sprintf("face %d", i), scatter)
	}
	p.Legend.Top = true

	return p.Save(10*vg.Inch, 8*vg.Inch, path)
}

// generateColors builds a palette of n visually distinct colors, one per
// face series.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
