package trail

import (
	"fmt"
	"image/color"

	balltrack "github.com/milosgajdos/go-balltrack"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// NewPlot creates a scatter plot of the actual and predicted trails of b.
// Image rows grow downwards so the vertical axis is flipped to keep the ball upright.
// It returns error if both trails are empty or gonum plot fails to be created.
func NewPlot(b *Buffer) (*plot.Plot, error) {
	actual, predicted := b.Actual(), b.Predicted()
	if len(actual) == 0 && len(predicted) == 0 {
		return nil, fmt.Errorf("no trail data to plot")
	}

	p := plot.New()

	p.Title.Text = "Ball trail"
	p.X.Label.Text = "X [px]"
	p.Y.Label.Text = "-Y [px]"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	if len(actual) > 0 {
		s, err := plotter.NewScatter(makePoints(actual))
		if err != nil {
			return nil, fmt.Errorf("failed to create scatter: %w", err)
		}
		s.GlyphStyle.Color = color.RGBA{G: 255, A: 255}
		s.GlyphStyle.Radius = vg.Points(3)

		p.Add(s)
		p.Legend.Add("actual", s)
	}

	if len(predicted) > 0 {
		s, err := plotter.NewScatter(makePoints(predicted))
		if err != nil {
			return nil, fmt.Errorf("failed to create scatter: %w", err)
		}
		s.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
		s.Shape = draw.CrossGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)

		p.Add(s)
		p.Legend.Add("predicted", s)
	}

	return p, nil
}

// SavePlot renders the trails of b into file. The image format is derived from the file extension.
func SavePlot(b *Buffer, file string) error {
	p, err := NewPlot(b)
	if err != nil {
		return err
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}

	return nil
}

func makePoints(pts []balltrack.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i].X = p.X
		xys[i].Y = -p.Y
	}

	return xys
}
