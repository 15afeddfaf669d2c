package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/depth"
	"github.com/milosgajdos/go-balltrack/pipeline"
	"github.com/milosgajdos/go-balltrack/sim"
	"github.com/milosgajdos/go-balltrack/vision"
)

// SimulateCmd tracks a simulated ball.
type SimulateCmd struct {
	Frames  int     `help:"Number of frames; zero uses the configured limit."`
	Seed    uint64  `help:"Noise seed; zero uses the configured one."`
	FPS     float64 `help:"Maximum frame rate; zero uses the configured one." name:"fps"`
	Display bool    `help:"Show the simulation in a window."`
	Pinhole bool    `help:"Range the ball by its apparent size."`
	Plot    string  `help:"Save the trail plot into this file on exit."`
}

// watched stops the simulation when exit is requested in the window.
type watched struct {
	*sim.Ball
	canvas *vision.Canvas
}

func (w watched) ExitRequested() bool { return w.canvas.ExitRequested() }

// Run runs the command.
func (s *SimulateCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	if s.Frames > 0 {
		cfg.Sim.Frames = s.Frames
	}
	if s.Seed > 0 {
		cfg.Sim.Seed = s.Seed
	}
	if s.FPS > 0 {
		cfg.Camera.FPS = s.FPS
	}
	cfg.Pinhole.Enabled = cfg.Pinhole.Enabled || s.Pinhole
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closer, err := newLogger(g)
	if err != nil {
		return err
	}
	defer closer.Close()

	c, err := newCore(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	ball, err := sim.NewBall(sim.Config{
		Start:    balltrack.Pt(cfg.Sim.Start[0], cfg.Sim.Start[1]),
		Velocity: balltrack.Pt(cfg.Sim.Velocity[0], cfg.Sim.Velocity[1]),
		Gravity:  cfg.Sim.Gravity,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		Frames:   cfg.Sim.Frames,
	})
	if err != nil {
		return err
	}

	det, err := sim.NewDetector(sim.DetectorConfig{
		Noise:   cfg.Sim.Noise,
		Dropout: cfg.Sim.Dropout,
		Radius:  cfg.Sim.Radius,
		Seed:    cfg.Sim.Seed,
	})
	if err != nil {
		return err
	}

	st := stage[sim.Frame]{src: ball, det: det}

	if s.Display {
		win := vision.NewWindow(cfg.Camera.Window, cfg.Landing.SquareSize, vision.DefaultStyle())
		defer win.Close()
		canvas := vision.NewCanvas(win, cfg.Sim.Radius)
		st.src = watched{Ball: ball, canvas: canvas}
		st.renderer = canvas
	}

	if cfg.Pinhole.Enabled {
		ph, err := depth.NewPinhole(cfg.Pinhole.KnownWidth, cfg.Pinhole.Focal)
		if err != nil {
			return err
		}
		st.ranger = pipeline.PinholeRanger[sim.Frame]{Pinhole: ph}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("simulation started", "seed", cfg.Sim.Seed, "frames", cfg.Sim.Frames)

	return runPipeline(ctx, log, cfg, c, st, cfg.Camera.FPS, s.Plot)
}
