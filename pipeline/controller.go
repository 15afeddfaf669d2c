package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/landing"
	"github.com/milosgajdos/go-balltrack/tracker"
	"github.com/milosgajdos/go-balltrack/trail"
	"github.com/milosgajdos/matrix"
	metrics "github.com/rcrowley/go-metrics"
)

// Params configures Controller.
// Source, Detector, Estimator, Landing and Trail are required.
type Params[F any] struct {
	Source    Source[F]
	Detector  Detector[F]
	Renderer  Renderer[F]
	Sink      LandingSink
	Ranger    Ranger[F]
	Estimator *tracker.Estimator
	Landing   *landing.Predictor
	Trail     *trail.Buffer
	// PlaneY is the image row of the reference plane
	PlaneY float64
	// SquareSize is the side of the landing square domain
	SquareSize float64
	// MetersPerPixel scales the fitted landing before mapping it into the square; zero means 1
	MetersPerPixel float64
	// MetricsWindow and Tolerance configure trail metrics; zero means the trail defaults
	MetricsWindow int
	Tolerance     float64
	// FPS is the maximum frame rate
	FPS      float64
	Clock    Clock
	Logger   *slog.Logger
	Registry metrics.Registry
}

// Controller sequences the per frame tracking cycle.
// It owns all per run state and is not safe for concurrent use.
type Controller[F any] struct {
	src      Source[F]
	det      Detector[F]
	renderer Renderer[F]
	sink     LandingSink
	ranger   Ranger[F]
	est      *tracker.Estimator
	pred     *landing.Predictor
	trail    *trail.Buffer
	pacer    *Pacer
	clock    Clock
	log      *slog.Logger
	stats    *Stats

	planeY     float64
	squareSize float64
	mpp        float64
	window     int
	tolerance  float64

	index int
	prev  FrameContext
}

// New creates new Controller from p.
// It returns error if a required collaborator is missing or a parameter is out of range.
func New[F any](p Params[F]) (*Controller[F], error) {
	switch {
	case p.Source == nil:
		return nil, fmt.Errorf("missing frame source")
	case p.Detector == nil:
		return nil, fmt.Errorf("missing detector")
	case p.Estimator == nil:
		return nil, fmt.Errorf("missing state estimator")
	case p.Landing == nil:
		return nil, fmt.Errorf("missing landing predictor")
	case p.Trail == nil:
		return nil, fmt.Errorf("missing trail buffer")
	}

	if p.SquareSize <= 0 {
		return nil, fmt.Errorf("invalid square size: %f", p.SquareSize)
	}

	mpp := p.MetersPerPixel
	if mpp == 0 {
		mpp = 1
	}
	if mpp < 0 {
		return nil, fmt.Errorf("invalid meters per pixel: %f", mpp)
	}

	window, tolerance := p.MetricsWindow, p.Tolerance
	if window == 0 {
		window = trail.DefaultWindow
	}
	if tolerance == 0 {
		tolerance = trail.DefaultTolerance
	}
	if window < 0 || tolerance < 0 {
		return nil, fmt.Errorf("invalid metrics window %d or tolerance %f", window, tolerance)
	}

	clock := p.Clock
	if clock == nil {
		clock = RealClock{}
	}

	pacer, err := NewPacer(clock, p.FPS)
	if err != nil {
		return nil, err
	}

	log := p.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Controller[F]{
		src:        p.Source,
		det:        p.Detector,
		renderer:   p.Renderer,
		sink:       p.Sink,
		ranger:     p.Ranger,
		est:        p.Estimator,
		pred:       p.Landing,
		trail:      p.Trail,
		pacer:      pacer,
		clock:      clock,
		log:        log,
		stats:      NewStats(p.Registry),
		planeY:     p.PlaneY,
		squareSize: p.SquareSize,
		mpp:        mpp,
		window:     window,
		tolerance:  tolerance,
	}, nil
}

// Stats returns the run metrics.
func (c *Controller[F]) Stats() *Stats {
	return c.stats
}

// Step runs a single frame cycle and returns its outcome.
// It returns io.EOF when the source is exhausted.
func (c *Controller[F]) Step(ctx context.Context) (FrameContext, error) {
	now, err := c.pacer.Wait(ctx)
	if err != nil {
		return FrameContext{}, err
	}

	frame, err := c.src.Frame(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return FrameContext{}, io.EOF
		}
		return FrameContext{}, fmt.Errorf("failed to acquire frame %d: %w", c.index, err)
	}

	fc := FrameContext{Index: c.index, Time: now}
	if c.index > 0 {
		if dt := now.Sub(c.prev.Time).Seconds(); dt > 0 {
			fc.FPS = 1 / dt
		}
	}

	det, ok, err := c.det.Detect(frame)
	if err != nil {
		return FrameContext{}, fmt.Errorf("detection failed on frame %d: %w", c.index, err)
	}

	predicted, _ := c.est.Predict()
	fc.Predicted = predicted

	if ok {
		fc.Detection, fc.Detected = det, true

		confidence := det.Confidence
		if confidence == 0 {
			confidence = 1
		}

		z := balltrack.FromImage(det.Center)
		if err := c.est.Correct(z, confidence); err != nil {
			return FrameContext{}, fmt.Errorf("correction failed on frame %d: %w", c.index, err)
		}

		c.trail.AddActual(z)
		c.pred.Update(z)
		fc.Position = z
	} else {
		fc.Position, _ = c.est.HandleLostTracking()
		if c.log.Enabled(ctx, slog.LevelDebug) {
			c.log.Debug("tracking lost", "frame", c.index, "cov", fmt.Sprintf("%v", matrix.Format(c.est.Cov())))
		}
	}
	c.trail.AddPredicted(predicted)

	_, fc.Velocity = c.est.State()
	fc.Phase = c.est.Phase()

	if p, ok := c.pred.PredictLanding(c.planeY); ok {
		x, y := landing.MapToSquare(p.X*c.mpp, c.squareSize)
		fc.Landing = Landing{Prediction: p, X: x, Y: y}
		fc.HasLanding = true

		if p.Fit.Degenerate {
			c.log.Debug("degenerate landing fit", "frame", c.index, "rank", p.Fit.Rank)
		}

		if c.sink != nil {
			if err := c.sink.WriteLanding(x, y); err != nil {
				return FrameContext{}, fmt.Errorf("failed to emit landing on frame %d: %w", c.index, err)
			}
		}
	}

	fc.ActualTrail = c.trail.Actual()
	fc.PredictedTrail = c.trail.Predicted()
	fc.Metrics, fc.HasMetrics = trail.ComputeWindow(fc.ActualTrail, fc.PredictedTrail, c.window, c.tolerance)

	if fc.Detected && c.ranger != nil {
		d, ok, err := c.ranger.Range(frame, det)
		if err != nil {
			return FrameContext{}, fmt.Errorf("ranging failed on frame %d: %w", c.index, err)
		}
		fc.Distance, fc.HasDistance = d, ok
	}

	if c.renderer != nil {
		if err := c.renderer.Render(frame, fc); err != nil {
			return FrameContext{}, fmt.Errorf("render failed on frame %d: %w", c.index, err)
		}
	}

	c.stats.observe(fc, c.clock.Now().Sub(now))
	c.log.Debug("frame",
		"index", fc.Index,
		"detected", fc.Detected,
		"x", fc.Position.X,
		"y", fc.Position.Y,
		"phase", fc.Phase,
	)

	c.prev = fc
	c.index++

	return fc, nil
}

// Run runs frame cycles until ctx is cancelled, the source is exhausted,
// the user requests exit or a cycle fails. The source is always released
// and the background rate calculation of Stats is stopped.
// Cancellation and exhaustion are not errors.
func (c *Controller[F]) Run(ctx context.Context) (err error) {
	defer func() {
		if rerr := c.src.Release(); rerr != nil {
			c.log.Error("failed to release frame source", "err", rerr)
			if err == nil {
				err = fmt.Errorf("failed to release frame source: %w", rerr)
			}
		}
		c.stats.Stop()
		c.log.Info("pipeline stopped", "stats", c.stats)
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := c.Step(ctx); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if c.src.ExitRequested() {
			c.log.Info("exit requested", "frame", c.index)
			return nil
		}
	}
}
