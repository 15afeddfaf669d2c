package vision

import (
	"github.com/milosgajdos/go-balltrack/pipeline"
	"gocv.io/x/gocv"
)

// Window renders frames with their overlay into an OpenCV window.
// Pressing q or ESC in the window requests exit.
type Window struct {
	win        *gocv.Window
	squareSize float64
	style      Style
	exit       bool
}

// NewWindow creates new Window called name.
func NewWindow(name string, squareSize float64, style Style) *Window {
	return &Window{
		win:        gocv.NewWindow(name),
		squareSize: squareSize,
		style:      style,
	}
}

// Render implements pipeline.Renderer.
func (w *Window) Render(frame gocv.Mat, fc pipeline.FrameContext) error {
	Draw(&frame, fc, w.squareSize, w.style)

	w.win.IMShow(frame)
	if key := w.win.WaitKey(1); key&0xFF == 'q' || key == 27 {
		w.exit = true
	}

	return nil
}

// ExitRequested reports whether exit was requested in the window.
func (w *Window) ExitRequested() bool {
	return w.exit
}

// Close closes the window.
func (w *Window) Close() error {
	return w.win.Close()
}
