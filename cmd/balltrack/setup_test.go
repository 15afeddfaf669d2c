package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/config"
	"github.com/milosgajdos/go-balltrack/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(&Globals{})
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	path := filepath.Join(t.TempDir(), "balltrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera:\n  fps: 60\n"), 0o644))

	cfg, err = loadConfig(&Globals{Config: path})
	require.NoError(t, err)
	assert.Equal(t, 60.0, cfg.Camera.FPS)
}

func TestNewLogger(t *testing.T) {
	log, closer, err := newLogger(&Globals{LogLevel: "debug"})
	require.NoError(t, err)
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
	assert.NoError(t, closer.Close())

	_, _, err = newLogger(&Globals{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestNewCore(t *testing.T) {
	cfg := config.Default()
	cfg.Landing.LogFile = ""

	c, err := newCore(cfg)
	require.NoError(t, err)
	assert.Nil(t, c.log)
	assert.Equal(t, "scale-measurement", c.est.Fusion().Name())
	assert.NoError(t, c.Close())

	cfg.Filter.Fusion = "magic"
	_, err = newCore(cfg)
	assert.Error(t, err)
}

func TestRunPipelineSimulated(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Landing.LogFile = filepath.Join(dir, "landing.txt")
	cfg.Sim.Frames = 40
	cfg.Sim.Dropout = 0

	c, err := newCore(cfg)
	require.NoError(t, err)

	ball, err := sim.NewBall(sim.Config{
		Start:    balltrack.Pt(cfg.Sim.Start[0], cfg.Sim.Start[1]),
		Velocity: balltrack.Pt(cfg.Sim.Velocity[0], cfg.Sim.Velocity[1]),
		Gravity:  cfg.Sim.Gravity,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		Frames:   cfg.Sim.Frames,
	})
	require.NoError(t, err)

	det, err := sim.NewDetector(sim.DetectorConfig{Noise: 1, Radius: cfg.Sim.Radius, Seed: 7})
	require.NoError(t, err)

	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, nil))

	plotFile := filepath.Join(dir, "trail.png")
	err = runPipeline(context.Background(), log, cfg, c, stage[sim.Frame]{src: ball, det: det}, 1000, plotFile)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	assert.FileExists(t, plotFile)

	data, err := os.ReadFile(cfg.Landing.LogFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.NotEmpty(t, lines)

	assert.Contains(t, out.String(), "pipeline stopped")
}
