// Package vision adapts OpenCV cameras, colour detection and overlay
// rendering to the tracking pipeline.
package vision

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrFrame is returned when a camera fails to deliver a frame.
var ErrFrame = errors.New("failed to grab frame")

// Camera is a frame source reading from an OpenCV video capture device.
// The returned frame is reused and only valid until the next call to Frame.
type Camera struct {
	vc    *gocv.VideoCapture
	frame gocv.Mat
	win   *Window
}

// OpenCamera opens capture device and requests the given frame size.
// When win is not nil the camera reports exit requests made in the window,
// and closes it on Release.
func OpenCamera(device, width, height int, win *Window) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", device, err)
	}

	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %d is not available", device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(height))

	return &Camera{
		vc:    vc,
		frame: gocv.NewMat(),
		win:   win,
	}, nil
}

// Frame implements pipeline.Source.
func (c *Camera) Frame(ctx context.Context) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.Mat{}, err
	}

	if ok := c.vc.Read(&c.frame); !ok || c.frame.Empty() {
		return gocv.Mat{}, ErrFrame
	}

	return c.frame, nil
}

// ExitRequested implements pipeline.Source.
func (c *Camera) ExitRequested() bool {
	return c.win != nil && c.win.ExitRequested()
}

// Release implements pipeline.Source.
func (c *Camera) Release() error {
	var errs []error
	if err := c.frame.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.vc.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.win != nil {
		if err := c.win.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
