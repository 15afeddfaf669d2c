package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// State vector layout of the planar motion models.
const (
	// PosX is horizontal position index
	PosX = iota
	// PosY is vertical position index
	PosY
	// VelX is horizontal velocity index
	VelX
	// VelY is vertical velocity index
	VelY
	// StateLen is the length of the motion state vector
	StateLen
)

// MeasLen is the length of the position measurement vector.
const MeasLen = 2

// NewConstantVelocity creates a planar constant velocity model with time step dt:
//
//	x' = x + vx*dt
//	y' = y + vy*dt
//
// Only the position is observed. It returns error if dt is not positive.
func NewConstantVelocity(dt float64) (*Discrete, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("invalid time step: %f", dt)
	}

	return NewDiscrete(transition(dt), nil, positionOutput(), nil)
}

// NewBallistic creates a planar projectile model with time step dt driven by
// a single acceleration input along the vertical image axis:
//
//	y'  = y + vy*dt + g*dt^2/2
//	vy' = vy + g*dt
//
// Image rows grow downwards so a falling ball has positive g.
// It returns error if dt is not positive.
func NewBallistic(dt float64) (*Discrete, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("invalid time step: %f", dt)
	}

	B := mat.NewDense(StateLen, 1, nil)
	B.Set(PosY, 0, 0.5*dt*dt)
	B.Set(VelY, 0, dt)

	return NewDiscrete(transition(dt), B, positionOutput(), nil)
}

func transition(dt float64) *mat.Dense {
	A := mat.NewDense(StateLen, StateLen, nil)
	for i := 0; i < StateLen; i++ {
		A.Set(i, i, 1.0)
	}
	A.Set(PosX, VelX, dt)
	A.Set(PosY, VelY, dt)

	return A
}

func positionOutput() *mat.Dense {
	C := mat.NewDense(MeasLen, StateLen, nil)
	C.Set(0, PosX, 1.0)
	C.Set(1, PosY, 1.0)

	return C
}
