package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/milosgajdos/go-balltrack/depth"
	"github.com/milosgajdos/go-balltrack/pipeline"
	"github.com/milosgajdos/go-balltrack/vision"
	"gocv.io/x/gocv"
)

// RunCmd tracks a ball seen by a camera.
type RunCmd struct {
	Device   int     `help:"Camera device; negative uses the configured one." default:"-1"`
	FPS      float64 `help:"Maximum frame rate; zero uses the configured one." name:"fps"`
	Headless bool    `help:"Do not open a display window."`
	Stereo   bool    `help:"Range the ball with a stereo camera pair."`
	Pinhole  bool    `help:"Range the ball by its apparent size."`
	Plot     string  `help:"Save the trail plot into this file on exit."`
}

// Run runs the command.
func (r *RunCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	if r.Device >= 0 {
		cfg.Camera.Device = r.Device
	}
	if r.FPS > 0 {
		cfg.Camera.FPS = r.FPS
	}
	cfg.Stereo.Enabled = cfg.Stereo.Enabled || r.Stereo
	cfg.Pinhole.Enabled = cfg.Pinhole.Enabled || r.Pinhole
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

	var s stage[gocv.Mat]

	var win *vision.Window
	if !r.Headless && cfg.Camera.Window != "" {
		win = vision.NewWindow(cfg.Camera.Window, cfg.Landing.SquareSize, vision.DefaultStyle())
		s.renderer = win
	}

	cam, err := vision.OpenCamera(cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height, win)
	if err != nil {
		if win != nil {
			win.Close()
		}
		return err
	}
	s.src = cam

	det, err := vision.NewColorDetector(cfg.Detector.LowerHSV, cfg.Detector.UpperHSV, cfg.Detector.MinArea, cfg.Detector.Kernel)
	if err != nil {
		cam.Release()
		return err
	}
	defer det.Close()
	s.det = det

	switch {
	case cfg.Stereo.Enabled:
		stereo, err := depth.NewStereoWithParams(cfg.Stereo.Baseline, cfg.Stereo.Focal, cfg.Stereo.Disparities, cfg.Stereo.BlockSize)
		if err != nil {
			cam.Release()
			return err
		}
		right, err := vision.OpenCamera(cfg.Stereo.RightDevice, cfg.Camera.Width, cfg.Camera.Height, nil)
		if err != nil {
			cam.Release()
			return fmt.Errorf("right camera: %w", err)
		}
		ranger := vision.NewStereoRanger(right, stereo)
		defer ranger.Close()
		s.ranger = ranger
	case cfg.Pinhole.Enabled:
		ph, err := depth.NewPinhole(cfg.Pinhole.KnownWidth, cfg.Pinhole.Focal)
		if err != nil {
			cam.Release()
			return err
		}
		s.ranger = pipeline.PinholeRanger[gocv.Mat]{Pinhole: ph}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("camera opened", "device", cfg.Camera.Device, "width", cfg.Camera.Width, "height", cfg.Camera.Height)

	return runPipeline(ctx, log, cfg, c, s, cfg.Camera.FPS, r.Plot)
}
