// Package landing predicts where a tracked ball crosses a reference plane
// from a short history of measured positions.
package landing

import (
	"fmt"

	balltrack "github.com/milosgajdos/go-balltrack"
)

// MinPoints is the number of positions required for a landing prediction.
const MinPoints = 3

// Prediction is a landing estimate on the reference plane.
type Prediction struct {
	// X is the fitted horizontal coordinate at the plane
	X float64
	// Fit is the fit the prediction was computed from
	Fit Fit
}

// Predictor keeps a bounded FIFO history of measured positions.
type Predictor struct {
	capacity int
	history  []balltrack.Point
	fit      *Fit
}

// NewPredictor creates new Predictor keeping at most capacity positions.
// It returns error if capacity is smaller than MinPoints.
func NewPredictor(capacity int) (*Predictor, error) {
	if capacity < MinPoints {
		return nil, fmt.Errorf("invalid history capacity: %d", capacity)
	}

	return &Predictor{
		capacity: capacity,
		history:  make([]balltrack.Point, 0, capacity),
	}, nil
}

// Update appends p to the history evicting the oldest position when full.
func (p *Predictor) Update(pos balltrack.Point) {
	if len(p.history) == p.capacity {
		copy(p.history, p.history[1:])
		p.history = p.history[:len(p.history)-1]
	}
	p.history = append(p.history, pos)
}

// PredictLanding fits the history and evaluates the fit at planeY.
// It returns false if the history holds fewer than MinPoints positions
// or the fit can not be computed.
func (p *Predictor) PredictLanding(planeY float64) (Prediction, bool) {
	if len(p.history) < MinPoints {
		return Prediction{}, false
	}

	f, err := FitQuadratic(p.history)
	if err != nil {
		return Prediction{}, false
	}
	p.fit = &f

	return Prediction{X: f.Eval(planeY), Fit: f}, true
}

// Coefficients returns the coefficients of the last successful fit.
// It returns false if no fit has been computed yet.
func (p *Predictor) Coefficients() (a, b, c float64, ok bool) {
	if p.fit == nil {
		return 0, 0, 0, false
	}
	return p.fit.A, p.fit.B, p.fit.C, true
}

// Len returns the number of positions in history.
func (p *Predictor) Len() int {
	return len(p.history)
}

// Positions returns a copy of the history, oldest first.
func (p *Predictor) Positions() []balltrack.Point {
	out := make([]balltrack.Point, len(p.history))
	copy(out, p.history)
	return out
}

// Reset clears the history and the last fit.
func (p *Predictor) Reset() {
	p.history = p.history[:0]
	p.fit = nil
}

// MapToSquare maps realX into [0, squareSize] and centres the second coordinate.
func MapToSquare(realX, squareSize float64) (x, y float64) {
	half := squareSize / 2
	x = realX + half
	switch {
	case x < 0:
		x = 0
	case x > squareSize:
		x = squareSize
	}
	return x, half
}
