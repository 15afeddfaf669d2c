// Package pipeline runs the per frame ball tracking cycle: detection,
// state prediction and correction, trails, metrics and landing prediction.
package pipeline

import (
	"context"
	"image"
	"time"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/landing"
	"github.com/milosgajdos/go-balltrack/tracker"
	"github.com/milosgajdos/go-balltrack/trail"
)

// Detection is a ball measured in a single frame.
type Detection struct {
	// Center is the ball centre in pixels
	Center image.Point
	// Box is the ball bounding box in pixels
	Box image.Rectangle
	// Confidence of the detection in (0, 1]; zero is treated as full confidence
	Confidence float64
}

// Detector finds the ball in a frame.
// Detect returns false when there is no ball in the frame; that is not an error.
type Detector[F any] interface {
	Detect(frame F) (Detection, bool, error)
}

// Source provides frames.
// Frame returns io.EOF once the source is exhausted.
type Source[F any] interface {
	Frame(ctx context.Context) (F, error)
	// ExitRequested reports whether the user asked to stop
	ExitRequested() bool
	// Release frees the resources held by the source
	Release() error
}

// Renderer draws the frame annotations.
type Renderer[F any] interface {
	Render(frame F, fc FrameContext) error
}

// LandingSink receives the landing coordinates mapped into the square domain.
type LandingSink interface {
	WriteLanding(x, y float64) error
}

// Ranger estimates the distance of a detected ball from the camera.
// Range returns false when the distance is not available.
type Ranger[F any] interface {
	Range(frame F, d Detection) (float64, bool, error)
}

// Landing is a landing prediction mapped into the square domain.
type Landing struct {
	// Prediction is the raw landing prediction in image coordinates
	Prediction landing.Prediction
	// X and Y are the coordinates in the square domain
	X, Y float64
}

// FrameContext is the outcome of a single frame cycle.
type FrameContext struct {
	// Index is the frame index starting at zero
	Index int
	// Time is the time the frame was requested
	Time time.Time
	// FPS is the frame rate measured since the previous frame
	FPS float64
	// Detection is valid when Detected is set
	Detection Detection
	Detected  bool
	// Predicted is the position predicted before any correction
	Predicted balltrack.Point
	// Position is the displayed position: the measurement or, when lost, the coasted estimate
	Position balltrack.Point
	// Velocity is the estimated velocity after the frame
	Velocity balltrack.Point
	// Phase is the estimator phase after the frame
	Phase tracker.Phase
	// Landing is valid when HasLanding is set
	Landing    Landing
	HasLanding bool
	// Metrics is valid when HasMetrics is set
	Metrics    trail.Metrics
	HasMetrics bool
	// Distance is valid when HasDistance is set
	Distance    float64
	HasDistance bool
	// ActualTrail and PredictedTrail are copies of the trails after the frame
	ActualTrail    []balltrack.Point
	PredictedTrail []balltrack.Point
}
