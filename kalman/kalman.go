package kalman

import (
	balltrack "github.com/milosgajdos/go-balltrack"
	"gonum.org/v1/gonum/mat"
)

// Kalman is Kalman Filter
type Kalman interface {
	// balltrack.Filter is dynamical system filter
	balltrack.Filter
	// Cov returns Kalman filter state covariance
	Cov() mat.Symmetric
	// Gain returns Kalman filter gain
	Gain() mat.Matrix
}
