package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Clock abstracts time for pacing.
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// After waits for the duration to elapse and then sends the current time
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// After waits for the duration to elapse and then sends the current time.
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Pacer keeps consecutive frame requests at least one frame interval apart.
type Pacer struct {
	clock    Clock
	interval time.Duration
	last     time.Time
}

// NewPacer creates new Pacer for the given frame rate.
// It returns error if fps is not positive.
func NewPacer(clock Clock, fps float64) (*Pacer, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate: %f", fps)
	}

	if clock == nil {
		clock = RealClock{}
	}

	return &Pacer{
		clock:    clock,
		interval: time.Duration(float64(time.Second) / fps),
	}, nil
}

// Interval returns the minimum time between two frames.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until a frame interval has passed since the previous call returned.
// The first call returns immediately. It returns the time the wait ended or
// the context error if ctx is cancelled first.
func (p *Pacer) Wait(ctx context.Context) (time.Time, error) {
	now := p.clock.Now()

	if !p.last.IsZero() {
		if wait := p.last.Add(p.interval).Sub(now); wait > 0 {
			select {
			case <-ctx.Done():
				return time.Time{}, ctx.Err()
			case <-p.clock.After(wait):
			}
			now = p.clock.Now()
		}
	}

	p.last = now

	return now, nil
}
