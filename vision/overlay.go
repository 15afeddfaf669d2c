package vision

import (
	"fmt"
	"image"
	"image/color"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/pipeline"
	"gocv.io/x/gocv"
)

var (
	green  = color.RGBA{G: 255}
	blue   = color.RGBA{B: 255}
	yellow = color.RGBA{R: 255, G: 255}
	red    = color.RGBA{R: 255}
	white  = color.RGBA{R: 255, G: 255, B: 255}
)

// Style configures the overlay.
type Style struct {
	ActualTrail    color.RGBA
	PredictedTrail color.RGBA
	TrailThickness int
	Ball           color.RGBA
	Box            color.RGBA
	Landing        color.RGBA
	Text           color.RGBA
	FontScale      float64
}

// DefaultStyle returns the default overlay style.
func DefaultStyle() Style {
	return Style{
		ActualTrail:    blue,
		PredictedTrail: yellow,
		TrailThickness: 2,
		Ball:           green,
		Box:            blue,
		Landing:        red,
		Text:           white,
		FontScale:      1,
	}
}

// Draw draws the frame outcome fc on img.
// squareSize is the side of the landing square which is assumed to span the image width.
func Draw(img *gocv.Mat, fc pipeline.FrameContext, squareSize float64, style Style) {
	if fc.Detected {
		gocv.Circle(img, fc.Detection.Center, 10, style.Ball, -1)
		gocv.Rectangle(img, fc.Detection.Box, style.Box, 2)
	}

	drawTrail(img, fc.ActualTrail, style.ActualTrail, style.TrailThickness)
	drawTrail(img, fc.PredictedTrail, style.PredictedTrail, style.TrailThickness)

	if fc.HasLanding {
		scale := float64(img.Cols()) / squareSize
		pt := balltrack.Pt(fc.Landing.X*scale, fc.Landing.Y*scale).Image()
		gocv.Circle(img, pt, 15, style.Landing, -1)
		text(img, fmt.Sprintf("Landing: (%.2f, %.2f) m", fc.Landing.X, fc.Landing.Y), 50, yellow, style.FontScale)
	}

	text(img, fmt.Sprintf("FPS: %.2f", fc.FPS), 100, style.Text, style.FontScale)
	if fc.HasMetrics {
		text(img, fmt.Sprintf("MSE: %.2f", fc.Metrics.MSE), 150, style.Text, style.FontScale)
		text(img, fmt.Sprintf("Accuracy: %.2f%%", fc.Metrics.Accuracy), 200, style.Text, style.FontScale)
	}

	if fc.HasDistance {
		text(img, fmt.Sprintf("Distance: %.2f m", fc.Distance), 250, green, style.FontScale)
	}
}

func drawTrail(img *gocv.Mat, pts []balltrack.Point, c color.RGBA, thickness int) {
	for i := 1; i < len(pts); i++ {
		gocv.Line(img, pts[i-1].Image(), pts[i].Image(), c, thickness)
	}
}

func text(img *gocv.Mat, s string, y int, c color.RGBA, scale float64) {
	gocv.PutText(img, s, image.Pt(10, y), gocv.FontHersheySimplex, scale, c, 2)
}
