package pipeline_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/landing"
	"github.com/milosgajdos/go-balltrack/pipeline"
	"github.com/milosgajdos/go-balltrack/sim"
	"github.com/milosgajdos/go-balltrack/tracker"
	"github.com/milosgajdos/go-balltrack/trail"
	"github.com/stretchr/testify/assert"
)

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time { return c.now }

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func TestSimulatedRun(t *testing.T) {
	assert := assert.New(t)

	ball, err := sim.NewBall(sim.Config{
		Start:    balltrack.Pt(50, 400),
		Velocity: balltrack.Pt(6, -20),
		Gravity:  0.8,
		Width:    1200,
		Height:   720,
	})
	assert.NoError(err)

	det, err := sim.NewDetector(sim.DetectorConfig{Noise: 1, Dropout: 0.2, Radius: 15, Seed: 3})
	assert.NoError(err)

	est, err := tracker.New(tracker.DefaultConfig())
	assert.NoError(err)
	pred, err := landing.NewPredictor(10)
	assert.NoError(err)
	buf, err := trail.NewBuffer(50)
	assert.NoError(err)

	var log bytes.Buffer
	c, err := pipeline.New(pipeline.Params[sim.Frame]{
		Source:     ball,
		Detector:   det,
		Sink:       landing.NewLog(&log),
		Estimator:  est,
		Landing:    pred,
		Trail:      buf,
		PlaneY:     720,
		SquareSize: 2,
		FPS:        30,
		Clock:      &instantClock{now: time.Unix(0, 0)},
	})
	assert.NoError(err)

	assert.NoError(c.Run(context.Background()))

	sum := c.Stats().Summary()
	assert.True(sum.Frames > 20)
	assert.Equal(sum.Frames, sum.Detections+sum.Lost)
	assert.True(sum.Lost > 0)
	assert.True(sum.Landings > 0)

	lines := strings.Split(strings.TrimSpace(log.String()), "\n")
	assert.Equal(int(sum.Landings), len(lines))
	for _, l := range lines {
		assert.Regexp(`^\d+\.\d{2}, 1\.00$`, l)
	}

	assert.True(len(buf.Actual()) <= 50)
	assert.True(len(buf.Predicted()) <= 50)
	assert.True(pred.Len() <= 10)
}
