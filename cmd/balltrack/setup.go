package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/milosgajdos/go-balltrack/config"
	"github.com/milosgajdos/go-balltrack/landing"
	"github.com/milosgajdos/go-balltrack/pipeline"
	"github.com/milosgajdos/go-balltrack/tracker"
	"github.com/milosgajdos/go-balltrack/trail"
	"gopkg.in/natefinch/lumberjack.v2"
)

func loadConfig(g *Globals) (config.Config, error) {
	if g.Config == "" {
		return config.Default(), nil
	}
	return config.Load(g.Config)
}

func newLogger(g *Globals) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", g.LogLevel, err)
	}

	var w io.WriteCloser = nopCloser{os.Stderr}
	if g.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   g.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			LocalTime:  true,
		}
	}

	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	return log, w, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// core is the frame type independent part of the pipeline.
type core struct {
	est  *tracker.Estimator
	pred *landing.Predictor
	buf  *trail.Buffer
	log  *landing.Log
}

func newCore(cfg config.Config) (*core, error) {
	fusion, err := tracker.FusionByName(cfg.Filter.Fusion)
	if err != nil {
		return nil, err
	}

	est, err := tracker.New(tracker.Config{
		ProcessNoise:     cfg.Filter.ProcessNoise,
		MeasurementNoise: cfg.Filter.MeasurementNoise,
		InitialCov:       cfg.Filter.InitialCov,
		Fusion:           fusion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create state estimator: %w", err)
	}

	pred, err := landing.NewPredictor(cfg.Landing.History)
	if err != nil {
		return nil, fmt.Errorf("failed to create landing predictor: %w", err)
	}

	buf, err := trail.NewBuffer(cfg.Trail.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create trail buffer: %w", err)
	}

	c := &core{est: est, pred: pred, buf: buf}

	if cfg.Landing.LogFile != "" {
		c.log, err = landing.OpenLog(cfg.Landing.LogFile, cfg.Landing.LogMaxSizeMB)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *core) Close() error {
	if c.log != nil {
		return c.log.Close()
	}
	return nil
}

// stage collects the frame type specific collaborators of a run.
type stage[F any] struct {
	src      pipeline.Source[F]
	det      pipeline.Detector[F]
	renderer pipeline.Renderer[F]
	ranger   pipeline.Ranger[F]
}

func runPipeline[F any](ctx context.Context, log *slog.Logger, cfg config.Config, c *core, s stage[F], fps float64, plotFile string) error {
	p := pipeline.Params[F]{
		Source:         s.src,
		Detector:       s.det,
		Renderer:       s.renderer,
		Ranger:         s.ranger,
		Estimator:      c.est,
		Landing:        c.pred,
		Trail:          c.buf,
		PlaneY:         cfg.Landing.PlaneY,
		SquareSize:     cfg.Landing.SquareSize,
		MetersPerPixel: cfg.Landing.MetersPerPixel,
		MetricsWindow:  cfg.Trail.Window,
		Tolerance:      cfg.Trail.Tolerance,
		FPS:            fps,
		Logger:         log,
	}
	if c.log != nil {
		p.Sink = c.log
	}

	ctrl, err := pipeline.New(p)
	if err != nil {
		return errors.Join(err, s.src.Release())
	}

	log.Info("pipeline started", "fps", fps, "fusion", c.est.Fusion().Name())

	if err := ctrl.Run(ctx); err != nil {
		return err
	}

	if plotFile != "" {
		if err := trail.SavePlot(c.buf, plotFile); err != nil {
			return err
		}
		log.Info("trail plot saved", "file", plotFile)
	}

	return nil
}
