package kf

import (
	"fmt"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/estimate"
	"github.com/milosgajdos/go-balltrack/kalman"
	"github.com/milosgajdos/go-balltrack/noise"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

var _ kalman.Kalman = (*KF)(nil)

// KF is Kalman Filter
type KF struct {
	// m is KF system model
	m balltrack.DiscreteModel
	// q is state noise a.k.a. process noise
	q balltrack.Noise
	// r is output noise a.k.a. measurement noise
	r balltrack.Noise
	// p is the KF covariance matrix
	p *mat.SymDense
	// pNext is the KF predicted covariance matrix
	pNext *mat.SymDense
	// eye is identity matrix used in Joseph form update
	eye mat.Matrix
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
}

// New creates new KF and returns it.
// It accepts the following parameters:
//   - m:      dynamical system model
//   - init:   initial condition of the filter
//   - q:      state noise a.k.a. process noise
//   - r:      output noise a.k.a. measurement noise
//
// Nil noise is treated as zero noise. Only noise covariances are used by the filter.
// It returns error if either of the following conditions is met:
//   - invalid model is given: model dimensions must be positive integers
//   - invalid state or output noise is given: noise covariance must match the model dimensions
//   - initial condition covariance does not match the state dimension
func New(m balltrack.DiscreteModel, init balltrack.InitCond, q, r balltrack.Noise) (*KF, error) {
	// size of the input and output vectors
	nx, _, ny, _ := m.SystemDims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	if q != nil {
		if q.Cov().SymmetricDim() != nx {
			return nil, fmt.Errorf("invalid state noise dimension: %d != %d", q.Cov().SymmetricDim(), nx)
		}
	} else {
		q, _ = noise.NewZero(nx)
	}

	if r != nil {
		if r.Cov().SymmetricDim() != ny {
			return nil, fmt.Errorf("invalid output noise dimension: %d != %d", r.Cov().SymmetricDim(), ny)
		}
	} else {
		r, _ = noise.NewZero(ny)
	}

	rows, cols := m.SystemMatrix().Dims()
	if rows != nx || cols != nx {
		return nil, fmt.Errorf("invalid propagation matrix dimensions: [%d x %d]", rows, cols)
	}

	rows, cols = m.OutputMatrix().Dims()
	if rows != ny || cols != nx {
		return nil, fmt.Errorf("invalid observation matrix dimensions: [%d x %d]", rows, cols)
	}

	if init.Cov().SymmetricDim() != nx {
		return nil, fmt.Errorf("invalid initial covariance dimension: %d != %d", init.Cov().SymmetricDim(), nx)
	}

	// initialize covariance matrix to initial condition covariance
	p := mat.NewSymDense(nx, nil)
	p.CopySym(init.Cov())

	// predicted state covariance
	pNext := mat.NewSymDense(nx, nil)
	pNext.CopySym(p)

	eye, err := matrix.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity matrix: %w", err)
	}

	return &KF{
		m:     m,
		q:     q,
		r:     r,
		p:     p,
		pNext: pNext,
		eye:   eye,
		inn:   mat.NewVecDense(ny, nil),
		k:     mat.NewDense(nx, ny, nil),
	}, nil
}

// Predict calculates the next system state given the state x and input u and returns its estimate.
// The state is propagated without sampling the process noise; its covariance is added to the
// propagated state covariance. The predicted covariance also becomes the current filter covariance
// so consecutive predictions without an update keep accumulating uncertainty.
// It returns error if it fails to propagate x to the next step.
func (k *KF) Predict(x, u mat.Vector) (balltrack.Estimate, error) {
	// propagate input state to the next step
	xNext, err := k.m.Propagate(x, u, nil)
	if err != nil {
		return nil, fmt.Errorf("system state propagation failed: %w", err)
	}

	a := k.m.SystemMatrix()

	// A*P*A' + Q
	cov := &mat.Dense{}
	cov.Mul(a, k.p)
	cov.Mul(cov, a.T())
	cov.Add(cov, k.q.Cov())

	symmetrize(k.pNext, cov)
	k.p.CopySym(k.pNext)

	return estimate.NewBaseWithCov(xNext, k.pNext)
}

// Update corrects state x using the measurement z, given control input u and returns corrected estimate.
// It returns error if either invalid measurement was supplied, if it fails to calculate system output estimate
// or if the innovation covariance can not be inverted.
func (k *KF) Update(x, u, z mat.Vector) (balltrack.Estimate, error) {
	return k.UpdateWithNoiseCov(x, u, z, k.r.Cov())
}

// UpdateWithNoiseCov corrects state x using the measurement z like Update does,
// but uses rCov as the measurement noise covariance for this correction only.
func (k *KF) UpdateWithNoiseCov(x, u, z mat.Vector, rCov mat.Symmetric) (balltrack.Estimate, error) {
	nx, _, ny, _ := k.m.SystemDims()

	if z == nil || z.Len() != ny {
		return nil, fmt.Errorf("invalid measurement supplied: %v", z)
	}

	if rCov == nil || rCov.SymmetricDim() != ny {
		return nil, fmt.Errorf("invalid measurement noise covariance")
	}

	// observe system output in the next step
	y, err := k.m.Observe(x, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to observe system output: %w", err)
	}

	h := k.m.OutputMatrix()

	pxy := mat.NewDense(nx, ny, nil)
	pyy := mat.NewDense(ny, ny, nil)

	// P*H'
	pxy.Mul(k.pNext, h.T())

	// Note: pxy = P * H' so we reuse the result here
	// H*P*H' + R
	pyy.Mul(h, pxy)
	pyy.Add(pyy, rCov)

	// calculate Kalman gain
	pyyInv := &mat.Dense{}
	if err := pyyInv.Inverse(pyy); err != nil {
		return nil, fmt.Errorf("failed to calculate Pyy inverse: %w", err)
	}
	gain := &mat.Dense{}
	gain.Mul(pxy, pyyInv)

	// innovation vector
	inn := &mat.VecDense{}
	inn.SubVec(z, y)

	// update state x
	corr := &mat.VecDense{}
	corr.MulVec(gain, inn)
	xNext := mat.VecDenseCopyOf(x)
	xNext.AddVec(xNext, corr)

	// Joseph form update: (I - K*H)*P*(I - K*H)' + K*R*K'
	a := &mat.Dense{}
	a.Mul(gain, h)
	a.Sub(k.eye, a)

	apa := &mat.Dense{}
	apa.Mul(a, k.pNext)
	apa.Mul(apa, a.T())

	kr := &mat.Dense{}
	kr.Mul(gain, rCov)
	krk := &mat.Dense{}
	krk.Mul(kr, gain.T())

	apa.Add(apa, krk)

	// update KF innovation vector and gain
	k.inn.CopyVec(inn)
	k.k.Copy(gain)
	// update KF covariance matrix
	symmetrize(k.p, apa)
	k.pNext.CopySym(k.p)

	return estimate.NewBaseWithCov(xNext, k.p)
}

// Run runs one step of KF for given state x, input u and measurement z.
// It corrects system state x using measurement z and returns new system estimate.
// It returns error if it either fails to propagate or correct state x.
func (k *KF) Run(x, u, z mat.Vector) (balltrack.Estimate, error) {
	pred, err := k.Predict(x, u)
	if err != nil {
		return nil, err
	}

	return k.Update(pred.Val(), u, z)
}

// Model returns KF model
func (k *KF) Model() balltrack.DiscreteModel {
	return k.m
}

// StateNoise returns state noise
func (k *KF) StateNoise() balltrack.Noise {
	return k.q
}

// OutputNoise returns output noise
func (k *KF) OutputNoise() balltrack.Noise {
	return k.r
}

// Cov returns KF covariance
func (k *KF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.SymmetricDim(), nil)
	cov.CopySym(k.p)

	return cov
}

// SetCov sets KF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as KF covariance dimensions.
func (k *KF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if cov.SymmetricDim() != k.p.SymmetricDim() {
		return fmt.Errorf("invalid covariance matrix dims: [%d x %d]", cov.SymmetricDim(), cov.SymmetricDim())
	}

	k.p.CopySym(cov)
	k.pNext.CopySym(cov)

	return nil
}

// Gain returns Kalman gain
func (k *KF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// Innovation returns the innovation vector of the last update
func (k *KF) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	inn.CloneFromVec(k.inn)

	return inn
}

// symmetrize stores the symmetric part of square matrix m in dst.
func symmetrize(dst *mat.SymDense, m mat.Matrix) {
	n := dst.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
}
