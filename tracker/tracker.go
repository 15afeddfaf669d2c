// Package tracker estimates the planar motion state of a single ball
// with a constant velocity Kalman filter.
package tracker

import (
	"fmt"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/kalman/kf"
	"github.com/milosgajdos/go-balltrack/model"
	"github.com/milosgajdos/go-balltrack/noise"
	"gonum.org/v1/gonum/mat"
)

// Phase is the estimator phase within a frame.
type Phase int

const (
	// Predicted means the state was propagated and not yet corrected this frame
	Predicted Phase = iota
	// Corrected means a measurement was fused this frame
	Corrected
)

// String implements the Stringer interface.
func (p Phase) String() string {
	switch p {
	case Predicted:
		return "predicted"
	case Corrected:
		return "corrected"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Config configures Estimator.
type Config struct {
	// ProcessNoise is the per-element variance of the process noise
	ProcessNoise float64
	// MeasurementNoise is the per-element variance of the measurement noise
	MeasurementNoise float64
	// InitialCov is the per-element variance of the initial state covariance
	InitialCov float64
	// Fusion prepares measurements for correction; nil means ScaleMeasurement
	Fusion FusionStrategy
}

// DefaultConfig returns the default estimator configuration.
// The initial state is zero with zero covariance.
func DefaultConfig() Config {
	return Config{
		ProcessNoise:     0.03,
		MeasurementNoise: 0.1,
		InitialCov:       0,
		Fusion:           ScaleMeasurement{},
	}
}

// Snapshot is a saved motion state: position and velocity only.
type Snapshot struct {
	Pos balltrack.Point
	Vel balltrack.Point
}

// Estimator owns the motion state of the tracked ball.
//
// Every frame starts with Predict. Correct may follow when a measurement exists.
// HandleLostTracking coasts on the motion model when there is none.
type Estimator struct {
	f      *kf.KF
	fusion FusionStrategy
	// x is the working state: the last prediction or correction
	x *mat.VecDense
	// post is the last corrected state
	post  *mat.VecDense
	phase Phase
}

// New creates new Estimator and returns it.
// It returns error if any of the noise variances is not positive or the initial covariance is negative.
func New(c Config) (*Estimator, error) {
	if c.InitialCov < 0 {
		return nil, fmt.Errorf("invalid initial covariance: %f", c.InitialCov)
	}

	m, err := model.NewConstantVelocity(1.0)
	if err != nil {
		return nil, err
	}

	q, err := noise.NewIsotropic(model.StateLen, c.ProcessNoise)
	if err != nil {
		return nil, fmt.Errorf("invalid process noise: %w", err)
	}

	r, err := noise.NewIsotropic(model.MeasLen, c.MeasurementNoise)
	if err != nil {
		return nil, fmt.Errorf("invalid measurement noise: %w", err)
	}

	cov := mat.NewSymDense(model.StateLen, nil)
	for i := 0; i < model.StateLen; i++ {
		cov.SetSym(i, i, c.InitialCov)
	}
	init := model.NewInitCond(mat.NewVecDense(model.StateLen, nil), cov)

	f, err := kf.New(m, init, q, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create kalman filter: %w", err)
	}

	fusion := c.Fusion
	if fusion == nil {
		fusion = ScaleMeasurement{}
	}

	return &Estimator{
		f:      f,
		fusion: fusion,
		x:      mat.VecDenseCopyOf(init.State()),
		post:   mat.VecDenseCopyOf(init.State()),
		phase:  Predicted,
	}, nil
}

// Predict advances the state by one frame with the constant velocity model
// and returns the predicted position and velocity.
func (e *Estimator) Predict() (pos, vel balltrack.Point) {
	est, err := e.f.Predict(e.x, nil)
	if err != nil {
		// model and state dimensions are fixed in New
		panic(fmt.Sprintf("tracker: prediction failed: %v", err))
	}

	e.x.CopyVec(est.Val())
	e.phase = Predicted

	return split(e.x)
}

// Correct fuses the measurement z into the predicted state.
// confidence is passed to the fusion strategy.
// It returns error if the fusion strategy rejects the measurement or the correction fails.
func (e *Estimator) Correct(z balltrack.Point, confidence float64) error {
	zv, rCov, err := e.fusion.Fuse(z, confidence, e.f.OutputNoise().Cov())
	if err != nil {
		return fmt.Errorf("%s fusion failed: %w", e.fusion.Name(), err)
	}

	est, err := e.f.UpdateWithNoiseCov(e.x, nil, zv, rCov)
	if err != nil {
		return fmt.Errorf("state correction failed: %w", err)
	}

	e.x.CopyVec(est.Val())
	e.post.CopyVec(e.x)
	e.phase = Corrected

	return nil
}

// HandleLostTracking predicts the next state when no measurement exists.
// It never corrects the state and leaves the last corrected state untouched.
func (e *Estimator) HandleLostTracking() (pos, vel balltrack.Point) {
	return e.Predict()
}

// State returns the current position and velocity estimate.
func (e *Estimator) State() (pos, vel balltrack.Point) {
	return split(e.x)
}

// Posterior returns the position and velocity of the last corrected state.
func (e *Estimator) Posterior() (pos, vel balltrack.Point) {
	return split(e.post)
}

// Cov returns the current state covariance.
func (e *Estimator) Cov() mat.Symmetric {
	return e.f.Cov()
}

// Phase returns the estimator phase in the current frame.
func (e *Estimator) Phase() Phase {
	return e.phase
}

// Fusion returns the fusion strategy used by Correct.
func (e *Estimator) Fusion() FusionStrategy {
	return e.fusion
}

// SaveState returns a snapshot of the last corrected position and velocity.
// The covariance is not part of the snapshot.
func (e *Estimator) SaveState() Snapshot {
	pos, vel := split(e.post)
	return Snapshot{Pos: pos, Vel: vel}
}

// RestoreState replaces the corrected and working state with s.
// The covariance is left as it is, so a restored estimator is less certain
// than one that kept running.
func (e *Estimator) RestoreState(s Snapshot) {
	e.post.SetVec(model.PosX, s.Pos.X)
	e.post.SetVec(model.PosY, s.Pos.Y)
	e.post.SetVec(model.VelX, s.Vel.X)
	e.post.SetVec(model.VelY, s.Vel.Y)
	e.x.CopyVec(e.post)
}

func split(x mat.Vector) (pos, vel balltrack.Point) {
	pos = balltrack.Pt(x.AtVec(model.PosX), x.AtVec(model.PosY))
	vel = balltrack.Pt(x.AtVec(model.VelX), x.AtVec(model.VelY))
	return pos, vel
}
