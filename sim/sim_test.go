package sim

import (
	"context"
	"errors"
	"io"
	"testing"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/stretchr/testify/assert"
)

func TestNewBall(t *testing.T) {
	assert := assert.New(t)

	b, err := NewBall(Config{Width: 640, Height: 480})
	assert.NotNil(b)
	assert.NoError(err)
	assert.False(b.ExitRequested())
	assert.NoError(b.Release())

	b, err = NewBall(Config{Width: 0, Height: 480})
	assert.Nil(b)
	assert.Error(err)

	b, err = NewBall(Config{Width: 640, Height: 480, Frames: -1})
	assert.Nil(b)
	assert.Error(err)
}

func TestBallFrames(t *testing.T) {
	assert := assert.New(t)

	b, err := NewBall(Config{
		Start:    balltrack.Pt(10, 100),
		Velocity: balltrack.Pt(4, -10),
		Gravity:  2,
		Width:    640,
		Height:   480,
	})
	assert.NoError(err)

	ctx := context.Background()

	f, err := b.Frame(ctx)
	assert.NoError(err)
	assert.Equal(0, f.Index)
	assert.Equal(balltrack.Pt(10, 100), f.Truth)

	f, err = b.Frame(ctx)
	assert.NoError(err)
	assert.Equal(1, f.Index)
	assert.InDelta(14.0, f.Truth.X, 1e-12)
	assert.InDelta(91.0, f.Truth.Y, 1e-12)
	assert.InDelta(-8.0, f.Vel.Y, 1e-12)

	// the ball eventually falls out of the frame
	n := 2
	for {
		_, err = b.Frame(ctx)
		if err != nil {
			break
		}
		n++
		assert.True(n < 1000)
	}
	assert.True(errors.Is(err, io.EOF))
}

func TestBallFrameLimit(t *testing.T) {
	assert := assert.New(t)

	b, err := NewBall(Config{Start: balltrack.Pt(1, 1), Width: 10, Height: 10, Frames: 3})
	assert.NoError(err)

	for i := 0; i < 3; i++ {
		_, err := b.Frame(context.Background())
		assert.NoError(err)
	}
	_, err = b.Frame(context.Background())
	assert.Equal(io.EOF, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Frame(ctx)
	assert.True(errors.Is(err, context.Canceled))
}

func TestDetector(t *testing.T) {
	assert := assert.New(t)

	d, err := NewDetector(DetectorConfig{Radius: 10})
	assert.NoError(err)

	f := Frame{Truth: balltrack.Pt(100.4, 50.6), Width: 640, Height: 480}
	det, ok, err := d.Detect(f)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(100, det.Center.X)
	assert.Equal(51, det.Center.Y)
	assert.Equal(20, det.Box.Dx())
	assert.Equal(1.0, det.Confidence)

	// ball outside of the frame is never detected
	_, ok, err = d.Detect(Frame{Truth: balltrack.Pt(-1, 10), Width: 640, Height: 480})
	assert.NoError(err)
	assert.False(ok)

	testCases := []DetectorConfig{
		{Noise: -1, Radius: 10},
		{Dropout: 1, Radius: 10},
		{Dropout: -0.1, Radius: 10},
		{Radius: 0},
	}
	for _, tc := range testCases {
		d, err := NewDetector(tc)
		assert.Nil(d)
		assert.Error(err)
	}
}

func TestDetectorSeeded(t *testing.T) {
	assert := assert.New(t)

	c := DetectorConfig{Noise: 3, Dropout: 0.3, Radius: 10, Seed: 7}
	d1, err := NewDetector(c)
	assert.NoError(err)
	d2, err := NewDetector(c)
	assert.NoError(err)

	f := Frame{Truth: balltrack.Pt(320, 240), Width: 640, Height: 480}
	missed := 0
	for i := 0; i < 200; i++ {
		det1, ok1, _ := d1.Detect(f)
		det2, ok2, _ := d2.Detect(f)
		assert.Equal(ok1, ok2)
		assert.Equal(det1, det2)
		if !ok1 {
			missed++
		}
	}
	assert.True(missed > 0 && missed < 200)
}
