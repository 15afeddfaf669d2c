// Package config loads and validates ball tracker configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when configuration values are out of range.
var ErrInvalid = errors.New("invalid configuration")

// Camera configures frame acquisition.
type Camera struct {
	Device int     `yaml:"device"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
	// Window is the name of the display window; empty disables display
	Window string `yaml:"window"`
}

// Detector configures the HSV colour ball detector.
type Detector struct {
	// LowerHSV and UpperHSV bound the ball colour; hue is in [0, 180]
	LowerHSV [3]float64 `yaml:"lower_hsv"`
	UpperHSV [3]float64 `yaml:"upper_hsv"`
	// MinArea is the smallest contour area accepted as a ball in pixels
	MinArea float64 `yaml:"min_area"`
	// Kernel is the side of the elliptic morphology kernel
	Kernel int `yaml:"kernel"`
}

// Filter configures the motion state estimator.
type Filter struct {
	ProcessNoise     float64 `yaml:"process_noise"`
	MeasurementNoise float64 `yaml:"measurement_noise"`
	InitialCov       float64 `yaml:"initial_cov"`
	// Fusion names the measurement fusion strategy
	Fusion string `yaml:"fusion"`
}

// Landing configures the landing predictor and its log.
type Landing struct {
	// PlaneY is the image row of the reference plane
	PlaneY float64 `yaml:"plane_y"`
	// SquareSize is the side of the square the landing is mapped into
	SquareSize float64 `yaml:"square_size"`
	// History is the number of positions the fit is computed from
	History int `yaml:"history"`
	// MetersPerPixel converts the fitted image coordinate into the square domain
	MetersPerPixel float64 `yaml:"meters_per_pixel"`
	// LogFile is the landing log path; empty disables the log
	LogFile string `yaml:"log_file"`
	// LogMaxSizeMB rotates the landing log once it grows over this size; zero never rotates
	LogMaxSizeMB int `yaml:"log_max_size_mb"`
}

// Trail configures trail buffers and metrics.
type Trail struct {
	Capacity  int     `yaml:"capacity"`
	Window    int     `yaml:"metrics_window"`
	Tolerance float64 `yaml:"tolerance"`
}

// Stereo configures the stereo depth estimator.
type Stereo struct {
	Enabled     bool    `yaml:"enabled"`
	RightDevice int     `yaml:"right_device"`
	Baseline    float64 `yaml:"baseline"`
	Focal       float64 `yaml:"focal"`
	Disparities int     `yaml:"disparities"`
	BlockSize   int     `yaml:"block_size"`
}

// Pinhole configures the single camera distance estimator.
type Pinhole struct {
	Enabled    bool    `yaml:"enabled"`
	KnownWidth float64 `yaml:"known_width"`
	Focal      float64 `yaml:"focal"`
}

// Sim configures the synthetic ball.
type Sim struct {
	Seed uint64 `yaml:"seed"`
	// Frames limits the number of generated frames; zero runs until the ball leaves the frame
	Frames   int        `yaml:"frames"`
	Start    [2]float64 `yaml:"start"`
	Velocity [2]float64 `yaml:"velocity"`
	Gravity  float64    `yaml:"gravity"`
	// Noise is the standard deviation of the detection noise in pixels
	Noise float64 `yaml:"noise"`
	// Dropout is the probability of a missed detection
	Dropout float64 `yaml:"dropout"`
	Radius  float64 `yaml:"radius"`
}

// Config is the ball tracker configuration.
type Config struct {
	Camera   Camera   `yaml:"camera"`
	Detector Detector `yaml:"detector"`
	Filter   Filter   `yaml:"filter"`
	Landing  Landing  `yaml:"landing"`
	Trail    Trail    `yaml:"trail"`
	Stereo   Stereo   `yaml:"stereo"`
	Pinhole  Pinhole  `yaml:"pinhole"`
	Sim      Sim      `yaml:"sim"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Camera: Camera{
			Device: 0,
			Width:  1200,
			Height: 720,
			FPS:    30,
			Window: "Ball Tracking",
		},
		Detector: Detector{
			LowerHSV: [3]float64{40, 70, 70},
			UpperHSV: [3]float64{80, 255, 255},
			MinArea:  500,
			Kernel:   5,
		},
		Filter: Filter{
			ProcessNoise:     0.03,
			MeasurementNoise: 0.1,
			InitialCov:       0,
			Fusion:           "scale-measurement",
		},
		Landing: Landing{
			PlaneY:         720,
			SquareSize:     2,
			History:        10,
			MetersPerPixel: 1,
			LogFile:        "landing_positions.txt",
		},
		Trail: Trail{
			Capacity:  50,
			Window:    5,
			Tolerance: 10,
		},
		Stereo: Stereo{
			RightDevice: 1,
			Baseline:    0.1,
			Focal:       700,
			Disparities: 80,
			BlockSize:   15,
		},
		Pinhole: Pinhole{
			KnownWidth: 0.2,
			Focal:      800,
		},
		Sim: Sim{
			Seed:     1,
			Start:    [2]float64{100, 100},
			Velocity: [2]float64{12, -8},
			Gravity:  0.5,
			Noise:    2,
			Dropout:  0.1,
			Radius:   20,
		},
	}
}

// Load reads YAML configuration from path on top of the defaults and validates it.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read decodes YAML configuration from r on top of the defaults and validates it.
// Unknown keys are rejected. An empty document yields the defaults.
func Read(r io.Reader) (Config, error) {
	c := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Write encodes c as YAML into w.
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate returns ErrInvalid wrapped with the first offending value.
func (c Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return invalid("camera resolution %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return invalid("camera fps %v", c.Camera.FPS)
	}

	if err := validateHSV(c.Detector.LowerHSV, c.Detector.UpperHSV); err != nil {
		return err
	}
	if c.Detector.MinArea < 0 {
		return invalid("detector min area %v", c.Detector.MinArea)
	}
	if c.Detector.Kernel <= 0 {
		return invalid("detector kernel %d", c.Detector.Kernel)
	}

	if c.Filter.ProcessNoise <= 0 || c.Filter.MeasurementNoise <= 0 {
		return invalid("filter noise %v/%v", c.Filter.ProcessNoise, c.Filter.MeasurementNoise)
	}
	if c.Filter.InitialCov < 0 {
		return invalid("filter initial covariance %v", c.Filter.InitialCov)
	}

	if c.Landing.SquareSize <= 0 {
		return invalid("landing square size %v", c.Landing.SquareSize)
	}
	if c.Landing.History < 3 {
		return invalid("landing history %d", c.Landing.History)
	}
	if c.Landing.MetersPerPixel <= 0 {
		return invalid("landing meters per pixel %v", c.Landing.MetersPerPixel)
	}
	if c.Landing.LogMaxSizeMB < 0 {
		return invalid("landing log max size %d", c.Landing.LogMaxSizeMB)
	}

	if c.Trail.Capacity <= 0 {
		return invalid("trail capacity %d", c.Trail.Capacity)
	}
	if c.Trail.Window <= 0 || c.Trail.Window >= c.Trail.Capacity {
		return invalid("trail metrics window %d", c.Trail.Window)
	}
	if c.Trail.Tolerance < 0 {
		return invalid("trail tolerance %v", c.Trail.Tolerance)
	}

	if c.Stereo.Enabled {
		if c.Stereo.Baseline <= 0 || c.Stereo.Focal <= 0 {
			return invalid("stereo baseline %v focal %v", c.Stereo.Baseline, c.Stereo.Focal)
		}
		if c.Stereo.Disparities <= 0 || c.Stereo.BlockSize <= 0 || c.Stereo.BlockSize%2 == 0 {
			return invalid("stereo disparities %d block %d", c.Stereo.Disparities, c.Stereo.BlockSize)
		}
	}

	if c.Pinhole.Enabled {
		if c.Pinhole.KnownWidth <= 0 || c.Pinhole.Focal <= 0 {
			return invalid("pinhole known width %v focal %v", c.Pinhole.KnownWidth, c.Pinhole.Focal)
		}
	}

	if c.Sim.Frames < 0 || c.Sim.Noise < 0 || c.Sim.Radius <= 0 {
		return invalid("sim frames %d noise %v radius %v", c.Sim.Frames, c.Sim.Noise, c.Sim.Radius)
	}
	if c.Sim.Dropout < 0 || c.Sim.Dropout >= 1 {
		return invalid("sim dropout %v", c.Sim.Dropout)
	}

	return nil
}

func validateHSV(lower, upper [3]float64) error {
	limit := [3]float64{180, 255, 255}
	for i := range lower {
		if lower[i] < 0 || upper[i] > limit[i] || lower[i] > upper[i] {
			return invalid("hsv range %v-%v", lower, upper)
		}
	}
	return nil
}
