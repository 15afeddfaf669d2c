// Package trail keeps the recent actual and predicted ball positions
// and measures how well the predictions follow the measurements.
package trail

import (
	"fmt"

	balltrack "github.com/milosgajdos/go-balltrack"
)

// DefaultCapacity is the default number of positions kept in each trail.
const DefaultCapacity = 50

// Buffer holds two capped trails: measured (actual) and predicted positions.
// The oldest positions are trimmed first.
type Buffer struct {
	capacity  int
	actual    []balltrack.Point
	predicted []balltrack.Point
}

// NewBuffer creates new Buffer with the given trail capacity.
// It returns error if capacity is not positive.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid trail capacity: %d", capacity)
	}

	return &Buffer{capacity: capacity}, nil
}

// AddActual appends a measured position.
func (b *Buffer) AddActual(p balltrack.Point) {
	b.actual = trim(append(b.actual, p), b.capacity)
}

// AddPredicted appends a predicted position.
func (b *Buffer) AddPredicted(p balltrack.Point) {
	b.predicted = trim(append(b.predicted, p), b.capacity)
}

// Actual returns a copy of the measured trail, oldest first.
func (b *Buffer) Actual() []balltrack.Point {
	return clone(b.actual)
}

// Predicted returns a copy of the predicted trail, oldest first.
func (b *Buffer) Predicted() []balltrack.Point {
	return clone(b.predicted)
}

// Capacity returns the trail capacity.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// SetCapacity changes the trail capacity and trims both trails to it.
// It returns error if capacity is not positive.
func (b *Buffer) SetCapacity(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("invalid trail capacity: %d", capacity)
	}
	b.capacity = capacity
	b.Enforce()

	return nil
}

// Enforce trims both trails to the buffer capacity.
func (b *Buffer) Enforce() {
	b.actual = trim(b.actual, b.capacity)
	b.predicted = trim(b.predicted, b.capacity)
}

// Reset empties both trails.
func (b *Buffer) Reset() {
	b.actual = b.actual[:0]
	b.predicted = b.predicted[:0]
}

func trim(pts []balltrack.Point, capacity int) []balltrack.Point {
	if over := len(pts) - capacity; over > 0 {
		n := copy(pts, pts[over:])
		pts = pts[:n]
	}
	return pts
}

func clone(pts []balltrack.Point) []balltrack.Point {
	out := make([]balltrack.Point, len(pts))
	copy(out, pts)
	return out
}
