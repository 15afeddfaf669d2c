package vision

import (
	"image/color"
	"math"

	"github.com/milosgajdos/go-balltrack/pipeline"
	"github.com/milosgajdos/go-balltrack/sim"
	"gocv.io/x/gocv"
)

// Canvas renders simulated frames: it paints the true ball on a blank image
// and hands it to the window.
type Canvas struct {
	win    *Window
	radius int
}

// NewCanvas creates new Canvas drawing a ball of the given radius into win.
func NewCanvas(win *Window, radius float64) *Canvas {
	return &Canvas{win: win, radius: int(math.Round(radius))}
}

// Render implements pipeline.Renderer.
func (c *Canvas) Render(f sim.Frame, fc pipeline.FrameContext) error {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), f.Height, f.Width, gocv.MatTypeCV8UC3)
	defer img.Close()

	gocv.Circle(&img, f.Truth.Image(), c.radius, color.RGBA{R: 128, G: 128, B: 128}, 1)

	return c.win.Render(img, fc)
}

// ExitRequested reports whether exit was requested in the window.
func (c *Canvas) ExitRequested() bool {
	return c.win.ExitRequested()
}
