package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"testing"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/depth"
	"github.com/milosgajdos/go-balltrack/landing"
	"github.com/milosgajdos/go-balltrack/tracker"
	"github.com/milosgajdos/go-balltrack/trail"
	"github.com/stretchr/testify/assert"
)

// frame carries the detection the fake detector reports for it.
type frame struct {
	det *Detection
}

type sliceSource struct {
	frames   []frame
	next     int
	exitAt   int
	released int
	err      error
}

func (s *sliceSource) Frame(ctx context.Context) (frame, error) {
	if s.err != nil {
		return frame{}, s.err
	}
	if s.next >= len(s.frames) {
		return frame{}, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *sliceSource) ExitRequested() bool { return s.exitAt > 0 && s.next >= s.exitAt }

func (s *sliceSource) Release() error {
	s.released++
	return nil
}

type frameDetector struct {
	err   error
	panic bool
}

func (d frameDetector) Detect(f frame) (Detection, bool, error) {
	if d.panic {
		panic("detector exploded")
	}
	if d.err != nil {
		return Detection{}, false, d.err
	}
	if f.det == nil {
		return Detection{}, false, nil
	}
	return *f.det, true, nil
}

type recorder struct {
	frames []FrameContext
}

func (r *recorder) Render(_ frame, fc FrameContext) error {
	r.frames = append(r.frames, fc)
	return nil
}

type sink struct {
	lines []string
	err   error
}

func (s *sink) WriteLanding(x, y float64) error {
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, fmt.Sprintf("%.2f, %.2f", x, y))
	return nil
}

func detected(x, y int) frame {
	return frame{det: &Detection{
		Center: image.Pt(x, y),
		Box:    image.Rect(x-10, y-10, x+10, y+10),
	}}
}

func lost() frame { return frame{} }

func newParams(t *testing.T, src *sliceSource) Params[frame] {
	est, err := tracker.New(tracker.DefaultConfig())
	assert.NoError(t, err)
	pred, err := landing.NewPredictor(10)
	assert.NoError(t, err)
	buf, err := trail.NewBuffer(50)
	assert.NoError(t, err)

	return Params[frame]{
		Source:     src,
		Detector:   frameDetector{},
		Estimator:  est,
		Landing:    pred,
		Trail:      buf,
		PlaneY:     720,
		SquareSize: 2,
		FPS:        30,
		Clock:      newFakeClock(),
	}
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	p := newParams(t, &sliceSource{})
	c, err := New(p)
	assert.NotNil(c)
	assert.NoError(err)

	testCases := []struct {
		name   string
		modify func(p *Params[frame])
	}{
		{"source", func(p *Params[frame]) { p.Source = nil }},
		{"detector", func(p *Params[frame]) { p.Detector = nil }},
		{"estimator", func(p *Params[frame]) { p.Estimator = nil }},
		{"landing", func(p *Params[frame]) { p.Landing = nil }},
		{"trail", func(p *Params[frame]) { p.Trail = nil }},
		{"square", func(p *Params[frame]) { p.SquareSize = 0 }},
		{"fps", func(p *Params[frame]) { p.FPS = 0 }},
		{"meters per pixel", func(p *Params[frame]) { p.MetersPerPixel = -1 }},
		{"window", func(p *Params[frame]) { p.MetricsWindow = -1 }},
	}

	for _, tc := range testCases {
		p := newParams(t, &sliceSource{})
		tc.modify(&p)
		c, err := New(p)
		assert.Nil(c, tc.name)
		assert.Error(err, tc.name)
	}
}

func TestStepFollowsEstimator(t *testing.T) {
	assert := assert.New(t)

	frames := []frame{
		detected(100, 10), detected(150, 50), lost(), detected(190, 90), lost(), lost(),
	}
	src := &sliceSource{frames: frames}
	rec := &recorder{}

	p := newParams(t, src)
	p.Renderer = rec
	c, err := New(p)
	assert.NoError(err)

	// mirror estimator replaying the expected call sequence
	mirror, err := tracker.New(tracker.DefaultConfig())
	assert.NoError(err)

	ctx := context.Background()
	for i, f := range frames {
		fc, err := c.Step(ctx)
		assert.NoError(err)
		assert.Equal(i, fc.Index)

		predicted, _ := mirror.Predict()
		assert.Equal(predicted, fc.Predicted)

		if f.det != nil {
			z := balltrack.FromImage(f.det.Center)
			assert.NoError(mirror.Correct(z, 1.0))
			assert.True(fc.Detected)
			assert.Equal(z, fc.Position)
			assert.Equal(tracker.Corrected, fc.Phase)
		} else {
			pos, _ := mirror.HandleLostTracking()
			assert.False(fc.Detected)
			assert.Equal(pos, fc.Position)
			assert.Equal(tracker.Predicted, fc.Phase)
		}
	}

	_, err = c.Step(ctx)
	assert.Equal(io.EOF, err)

	last := rec.frames[len(rec.frames)-1]
	assert.Len(rec.frames, len(frames))
	assert.Len(last.ActualTrail, 3)
	assert.Len(last.PredictedTrail, len(frames))
}

func TestStepLanding(t *testing.T) {
	assert := assert.New(t)

	src := &sliceSource{frames: []frame{detected(100, 10), detected(150, 50), lost(), detected(190, 90)}}
	out := &sink{}

	p := newParams(t, src)
	p.Sink = out
	// scale the fitted pixel landing into the square
	p.MetersPerPixel = 0.001
	c, err := New(p)
	assert.NoError(err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		fc, err := c.Step(ctx)
		assert.NoError(err)
		assert.False(fc.HasLanding)
	}

	fc, err := c.Step(ctx)
	assert.NoError(err)
	assert.True(fc.HasLanding)
	// x = -0.003125*720^2 + 1.4375*720 + 85.9375
	wantX := -0.003125*720*720 + 1.4375*720 + 85.9375
	assert.InDelta(wantX, fc.Landing.Prediction.X, 1e-6)
	assert.InDelta(wantX*0.001+1, fc.Landing.X, 1e-9)
	assert.Equal(1.0, fc.Landing.Y)
	assert.Equal([]string{fmt.Sprintf("%.2f, 1.00", wantX*0.001+1)}, out.lines)
}

func TestStepMetrics(t *testing.T) {
	assert := assert.New(t)

	var frames []frame
	for i := 0; i < 7; i++ {
		frames = append(frames, detected(200, 200))
	}
	src := &sliceSource{frames: frames}
	c, err := New(newParams(t, src))
	assert.NoError(err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		fc, err := c.Step(ctx)
		assert.NoError(err)
		assert.False(fc.HasMetrics)
	}

	fc, err := c.Step(ctx)
	assert.NoError(err)
	assert.True(fc.HasMetrics)
	assert.True(fc.Metrics.MSE >= 0)
	assert.True(fc.Metrics.Accuracy >= 0 && fc.Metrics.Accuracy <= 100)
}

func TestStepFPS(t *testing.T) {
	assert := assert.New(t)

	src := &sliceSource{frames: []frame{lost(), lost()}}
	c, err := New(newParams(t, src))
	assert.NoError(err)

	fc, err := c.Step(context.Background())
	assert.NoError(err)
	assert.Equal(0.0, fc.FPS)

	// the fake clock does not advance while processing so the pacer waits a full interval
	fc, err = c.Step(context.Background())
	assert.NoError(err)
	assert.InDelta(30.0, fc.FPS, 1e-6)
}

func TestStepDistance(t *testing.T) {
	assert := assert.New(t)

	src := &sliceSource{frames: []frame{detected(100, 100), lost()}}
	p := newParams(t, src)
	ph, err := depth.NewPinhole(0.2, 800)
	assert.NoError(err)
	p.Ranger = PinholeRanger[frame]{Pinhole: ph}

	c, err := New(p)
	assert.NoError(err)

	fc, err := c.Step(context.Background())
	assert.NoError(err)
	assert.True(fc.HasDistance)
	assert.InDelta(8.0, fc.Distance, 1e-12)

	fc, err = c.Step(context.Background())
	assert.NoError(err)
	assert.False(fc.HasDistance)
}

func TestRun(t *testing.T) {
	assert := assert.New(t)

	src := &sliceSource{frames: []frame{detected(1, 1), lost(), detected(3, 3)}}
	c, err := New(newParams(t, src))
	assert.NoError(err)

	assert.NoError(c.Run(context.Background()))
	assert.Equal(1, src.released)

	sum := c.Stats().Summary()
	assert.Equal(int64(3), sum.Frames)
	assert.Equal(int64(2), sum.Detections)
	assert.Equal(int64(1), sum.Lost)
}

func TestRunExitRequested(t *testing.T) {
	assert := assert.New(t)

	src := &sliceSource{frames: []frame{lost(), lost(), lost(), lost()}, exitAt: 2}
	c, err := New(newParams(t, src))
	assert.NoError(err)

	assert.NoError(c.Run(context.Background()))
	assert.Equal(2, src.next)
	assert.Equal(1, src.released)
}

func TestRunCancelled(t *testing.T) {
	assert := assert.New(t)

	src := &sliceSource{frames: []frame{lost()}}
	c, err := New(newParams(t, src))
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(c.Run(ctx))
	assert.Equal(0, src.next)
	assert.Equal(1, src.released)
}

func TestRunErrors(t *testing.T) {
	assert := assert.New(t)

	errBoom := errors.New("boom")

	// detection failure
	src := &sliceSource{frames: []frame{lost()}}
	p := newParams(t, src)
	p.Detector = frameDetector{err: errBoom}
	c, err := New(p)
	assert.NoError(err)
	err = c.Run(context.Background())
	assert.True(errors.Is(err, errBoom))
	assert.Equal(1, src.released)

	// frame acquisition failure
	src = &sliceSource{err: errBoom}
	c, err = New(newParams(t, src))
	assert.NoError(err)
	err = c.Run(context.Background())
	assert.True(errors.Is(err, errBoom))
	assert.Equal(1, src.released)

	// landing sink failure
	src = &sliceSource{frames: []frame{detected(1, 1), detected(2, 5), detected(3, 9)}}
	p = newParams(t, src)
	p.Sink = &sink{err: errBoom}
	c, err = New(p)
	assert.NoError(err)
	err = c.Run(context.Background())
	assert.True(errors.Is(err, errBoom))
	assert.Equal(1, src.released)
}

func TestRunPanicReleases(t *testing.T) {
	assert := assert.New(t)

	src := &sliceSource{frames: []frame{lost()}}
	p := newParams(t, src)
	p.Detector = frameDetector{panic: true}
	c, err := New(p)
	assert.NoError(err)

	assert.Panics(func() { _ = c.Run(context.Background()) })
	assert.Equal(1, src.released)
}

type cancellingRenderer struct {
	cancel context.CancelFunc
	err    error
}

func (r cancellingRenderer) Render(_ frame, _ FrameContext) error {
	r.cancel()
	return r.err
}

func TestRunCancelledWithError(t *testing.T) {
	assert := assert.New(t)

	errBoom := errors.New("boom")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &sliceSource{frames: []frame{detected(1, 1), detected(2, 2)}}
	p := newParams(t, src)
	p.Renderer = cancellingRenderer{cancel: cancel, err: errBoom}
	c, err := New(p)
	assert.NoError(err)

	// a frame failure is reported even when cancellation arrives in the same cycle
	err = c.Run(ctx)
	assert.True(errors.Is(err, errBoom))
	assert.Equal(1, src.next)
	assert.Equal(1, src.released)

	// a cycle interrupted by cancellation only is a clean stop
	src = &sliceSource{frames: []frame{detected(1, 1), detected(2, 2)}}
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	p = newParams(t, src)
	p.Renderer = cancellingRenderer{cancel: cancel, err: fmt.Errorf("render: %w", context.Canceled)}
	c, err = New(p)
	assert.NoError(err)
	assert.NoError(c.Run(ctx))
}

func TestRunStopsStats(t *testing.T) {
	assert := assert.New(t)

	src := &sliceSource{frames: []frame{lost()}}
	c, err := New(newParams(t, src))
	assert.NoError(err)
	assert.NoError(c.Run(context.Background()))

	// a stopped meter ignores marks
	rate := c.Stats().rate
	count := rate.Count()
	rate.Mark(5)
	assert.Equal(count, rate.Count())
}
