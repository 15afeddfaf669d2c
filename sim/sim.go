// Package sim generates a synthetic projectile ball and noisy detections of it
// so the tracking pipeline can run without a camera.
package sim

import (
	"context"
	"fmt"
	"io"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/model"
	"gonum.org/v1/gonum/mat"
)

// Config configures the synthetic ball.
type Config struct {
	// Start is the initial ball position in pixels
	Start balltrack.Point
	// Velocity is the initial ball velocity in pixels per frame
	Velocity balltrack.Point
	// Gravity is the vertical acceleration in pixels per frame squared; image rows grow downwards
	Gravity float64
	// Width and Height are the frame size; the ball leaving the frame ends the simulation
	Width, Height int
	// Frames limits the number of frames; zero means no limit
	Frames int
}

// Frame is a synthetic frame holding the true ball state.
type Frame struct {
	Index  int
	Truth  balltrack.Point
	Vel    balltrack.Point
	Width  int
	Height int
}

// Visible reports whether the ball centre is inside the frame.
func (f Frame) Visible() bool {
	return f.Truth.X >= 0 && f.Truth.X < float64(f.Width) &&
		f.Truth.Y >= 0 && f.Truth.Y < float64(f.Height)
}

// Ball is a frame source propagating a ballistic model.
type Ball struct {
	m      *model.Discrete
	x      *mat.VecDense
	g      *mat.VecDense
	width  int
	height int
	frames int
	index  int
}

// NewBall creates new Ball from c.
// It returns error if the frame size is not positive or Frames is negative.
func NewBall(c Config) (*Ball, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size: %dx%d", c.Width, c.Height)
	}

	if c.Frames < 0 {
		return nil, fmt.Errorf("invalid frame limit: %d", c.Frames)
	}

	m, err := model.NewBallistic(1.0)
	if err != nil {
		return nil, err
	}

	x := mat.NewVecDense(model.StateLen, nil)
	x.SetVec(model.PosX, c.Start.X)
	x.SetVec(model.PosY, c.Start.Y)
	x.SetVec(model.VelX, c.Velocity.X)
	x.SetVec(model.VelY, c.Velocity.Y)

	return &Ball{
		m:      m,
		x:      x,
		g:      mat.NewVecDense(1, []float64{c.Gravity}),
		width:  c.Width,
		height: c.Height,
		frames: c.Frames,
	}, nil
}

// Frame returns the next frame. The first frame holds the start state.
// It returns io.EOF once the frame limit is reached or the ball leaves the frame.
func (b *Ball) Frame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	if b.frames > 0 && b.index >= b.frames {
		return Frame{}, io.EOF
	}

	if b.index > 0 {
		next, err := b.m.Propagate(b.x, b.g, nil)
		if err != nil {
			return Frame{}, fmt.Errorf("failed to propagate ball: %w", err)
		}
		b.x.CopyVec(next)
	}

	f := Frame{
		Index:  b.index,
		Truth:  balltrack.Pt(b.x.AtVec(model.PosX), b.x.AtVec(model.PosY)),
		Vel:    balltrack.Pt(b.x.AtVec(model.VelX), b.x.AtVec(model.VelY)),
		Width:  b.width,
		Height: b.height,
	}

	if !f.Visible() {
		return Frame{}, io.EOF
	}

	b.index++

	return f, nil
}

// ExitRequested implements pipeline.Source. A simulation never asks to exit.
func (b *Ball) ExitRequested() bool { return false }

// Release implements pipeline.Source.
func (b *Ball) Release() error { return nil }
