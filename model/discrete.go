package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Discrete is a basic model of a linear, discrete-time, dynamical system
type Discrete struct {
	System
}

// NewDiscrete creates a linear discrete-time model based on the control theory equations.
//
//	x[n+1] = A*x[n] + B*u[n] + wd[n]
//	y[n] = C*x[n] + D*u[n]
//
// It returns error if A is nil or not square, or C does not match the state length.
func NewDiscrete(A, B, C, D *mat.Dense) (*Discrete, error) {
	if A == nil {
		return nil, fmt.Errorf("system matrix must be defined for a model")
	}

	r, c := A.Dims()
	if r != c {
		return nil, fmt.Errorf("invalid system matrix dimensions: [%d x %d]", r, c)
	}

	if B != nil {
		if br, _ := B.Dims(); br != r {
			return nil, fmt.Errorf("invalid control matrix rows: %d != %d", br, r)
		}
	}

	if C != nil {
		if _, cc := C.Dims(); cc != c {
			return nil, fmt.Errorf("invalid output matrix columns: %d != %d", cc, c)
		}
	}

	return &Discrete{System: newSystem(A, B, C, D)}, nil
}

// Propagate returns the next internal state of the system given state x,
// input vector u and process noise wd.
func (d *Discrete) Propagate(x, u, wd mat.Vector) (mat.Vector, error) {
	nx, nu, _, _ := d.SystemDims()
	if u != nil && u.Len() != nu {
		return nil, fmt.Errorf("invalid input vector")
	}

	if x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector")
	}

	out := new(mat.Dense)
	out.Mul(d.A, x)
	if u != nil && d.B != nil {
		outU := new(mat.Dense)
		outU.Mul(d.B, u)

		out.Add(out, outU)
	}

	if wd != nil && wd.Len() == nx {
		out.Add(out, wd)
	}
	return out.ColView(0), nil
}
