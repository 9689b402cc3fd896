// Package plot renders time series charts to image files.
package plot

import (
	"errors"
	"image/color"
	"math"

	"github.com/minhyannv/forecast-agent-go/pkg/dataset"
	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Default canvas size, 6.4in x 4.8in.
const (
	DefaultWidth  = 6.4 * vg.Inch
	DefaultHeight = 4.8 * vg.Inch
)

// Options controls chart rendering.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

// Line draws s as a line chart with time on the X axis and writes it to path.
// Missing values leave gaps in the line. The image format follows the path
// extension.
func Line(s *dataset.Series, path string, opts Options) error {
	if s == nil || s.Len() == 0 {
		return errors.New("no points to plot")
	}
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}

	p := gonumplot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = s.TimeColumn
	p.X.Tick.Marker = gonumplot.TimeTicks{Format: "2006-01-02"}
	p.Legend.Top = true

	segments := splitSegments(s)
	if len(segments) == 0 {
		return errors.New("no finite points to plot")
	}
	for i, pts := range segments {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		if i == 0 {
			p.Add(plotter.NewGrid())
			p.Legend.Add(s.ValueColumn, line)
		}
		p.Add(line)
	}

	return p.Save(opts.Width, opts.Height, path)
}

// splitSegments breaks the series at missing values so each run of finite
// points is drawn as its own line, leaving a gap where values are missing.
func splitSegments(s *dataset.Series) []plotter.XYs {
	var segments []plotter.XYs
	var cur plotter.XYs
	for _, pt := range s.Points {
		if math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
			if len(cur) > 0 {
				segments = append(segments, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(pt.Time.Unix()), Y: pt.Value})
	}
	if len(cur) > 0 {
		segments = append(segments, cur)
	}
	return segments
}
