package pipeline

import (
	"log/slog"
	"math"
	"time"

	metrics "github.com/rcrowley/go-metrics"
)

// Stats collects run metrics of the pipeline.
type Stats struct {
	registry   metrics.Registry
	frames     metrics.Counter
	detections metrics.Counter
	lost       metrics.Counter
	landings   metrics.Counter
	frameTime  metrics.Timer
	rate       metrics.Meter
	mse        metrics.Histogram
	accuracy   metrics.GaugeFloat64
	landingX   metrics.GaugeFloat64
}

// NewStats creates new Stats registering its metrics in r.
// A nil registry creates a private one.
func NewStats(r metrics.Registry) *Stats {
	if r == nil {
		r = metrics.NewRegistry()
	}

	return &Stats{
		registry:   r,
		frames:     metrics.NewRegisteredCounter("pipeline.frames", r),
		detections: metrics.NewRegisteredCounter("pipeline.detections", r),
		lost:       metrics.NewRegisteredCounter("pipeline.lost", r),
		landings:   metrics.NewRegisteredCounter("pipeline.landings", r),
		frameTime:  metrics.NewRegisteredTimer("pipeline.frame.time", r),
		rate:       metrics.NewRegisteredMeter("pipeline.frame.rate", r),
		mse:        metrics.NewRegisteredHistogram("pipeline.mse", r, metrics.NewUniformSample(1028)),
		accuracy:   metrics.NewRegisteredGaugeFloat64("pipeline.accuracy", r),
		landingX:   metrics.NewRegisteredGaugeFloat64("pipeline.landing.x", r),
	}
}

// Registry returns the registry holding the metrics.
func (s *Stats) Registry() metrics.Registry {
	return s.registry
}

func (s *Stats) observe(fc FrameContext, elapsed time.Duration) {
	s.frames.Inc(1)
	s.rate.Mark(1)
	s.frameTime.Update(elapsed)

	if fc.Detected {
		s.detections.Inc(1)
	} else {
		s.lost.Inc(1)
	}

	if fc.HasLanding {
		s.landings.Inc(1)
		s.landingX.Update(fc.Landing.X)
	}

	if fc.HasMetrics {
		// squared pixels
		s.mse.Update(int64(math.Round(fc.Metrics.MSE)))
		s.accuracy.Update(fc.Metrics.Accuracy)
	}
}

// Stop stops the background rate calculation.
func (s *Stats) Stop() {
	s.rate.Stop()
	s.frameTime.Stop()
}

// Summary is a point in time copy of the run metrics.
type Summary struct {
	Frames     int64
	Detections int64
	Lost       int64
	Landings   int64
	// MeanFrameTime is the mean duration of a frame cycle
	MeanFrameTime time.Duration
	// MeanMSE is the mean of the per frame MSE in squared pixels
	MeanMSE float64
	// Accuracy is the last computed accuracy in percent
	Accuracy float64
	// LandingX is the last landing in the square domain
	LandingX float64
}

// Summary returns the current run metrics.
func (s *Stats) Summary() Summary {
	return Summary{
		Frames:        s.frames.Count(),
		Detections:    s.detections.Count(),
		Lost:          s.lost.Count(),
		Landings:      s.landings.Count(),
		MeanFrameTime: time.Duration(s.frameTime.Mean()),
		MeanMSE:       s.mse.Mean(),
		Accuracy:      s.accuracy.Value(),
		LandingX:      s.landingX.Value(),
	}
}

// LogValue implements slog.LogValuer.
func (s *Stats) LogValue() slog.Value {
	sum := s.Summary()
	return slog.GroupValue(
		slog.Int64("frames", sum.Frames),
		slog.Int64("detections", sum.Detections),
		slog.Int64("lost", sum.Lost),
		slog.Int64("landings", sum.Landings),
		slog.Duration("frame_time", sum.MeanFrameTime),
		slog.Float64("mse", sum.MeanMSE),
		slog.Float64("accuracy", sum.Accuracy),
	)
}
