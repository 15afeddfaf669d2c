package tracker

import (
	"fmt"

	balltrack "github.com/milosgajdos/go-balltrack"
	"gonum.org/v1/gonum/mat"
)

// FusionStrategy prepares a raw measurement and its noise covariance
// for the Kalman correction given a detection confidence.
type FusionStrategy interface {
	// Name identifies the strategy in logs and config
	Name() string
	// Fuse returns the measurement vector and measurement noise covariance used for correction
	Fuse(z balltrack.Point, confidence float64, r mat.Symmetric) (mat.Vector, mat.Symmetric, error)
}

// ScaleMeasurement multiplies the raw measurement by the confidence and leaves the
// measurement noise untouched. Any confidence other than 1 pulls the measurement
// towards the image origin rather than weakening it.
type ScaleMeasurement struct{}

// Name implements FusionStrategy.
func (ScaleMeasurement) Name() string { return "scale-measurement" }

// Fuse implements FusionStrategy.
func (ScaleMeasurement) Fuse(z balltrack.Point, confidence float64, r mat.Symmetric) (mat.Vector, mat.Symmetric, error) {
	return mat.NewVecDense(2, []float64{z.X * confidence, z.Y * confidence}), r, nil
}

// ScaleCovariance keeps the raw measurement and divides the measurement noise
// covariance by the confidence, so low confidence detections move the estimate less.
type ScaleCovariance struct{}

// Name implements FusionStrategy.
func (ScaleCovariance) Name() string { return "scale-covariance" }

// Fuse implements FusionStrategy.
// It returns error if confidence is not positive.
func (ScaleCovariance) Fuse(z balltrack.Point, confidence float64, r mat.Symmetric) (mat.Vector, mat.Symmetric, error) {
	if confidence <= 0 {
		return nil, nil, fmt.Errorf("invalid confidence: %f", confidence)
	}

	cov := mat.NewSymDense(r.SymmetricDim(), nil)
	cov.ScaleSym(1/confidence, r)

	return mat.NewVecDense(2, []float64{z.X, z.Y}), cov, nil
}

// FusionByName returns the fusion strategy registered under name.
func FusionByName(name string) (FusionStrategy, error) {
	switch name {
	case "", ScaleMeasurement{}.Name():
		return ScaleMeasurement{}, nil
	case ScaleCovariance{}.Name():
		return ScaleCovariance{}, nil
	}

	return nil, fmt.Errorf("unknown fusion strategy: %q", name)
}
