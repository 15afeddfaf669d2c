package sim

import (
	"fmt"
	"image"
	"math"

	balltrack "github.com/milosgajdos/go-balltrack"
	"github.com/milosgajdos/go-balltrack/noise"
	"github.com/milosgajdos/go-balltrack/pipeline"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// DetectorConfig configures Detector.
type DetectorConfig struct {
	// Noise is the standard deviation of the measured centre in pixels
	Noise float64
	// Dropout is the probability of missing a visible ball
	Dropout float64
	// Radius is the ball radius in pixels
	Radius float64
	// Seed seeds the measurement noise and dropouts; zero seeds from time
	Seed uint64
}

// Detector measures the true ball position with Gaussian noise and random dropouts.
type Detector struct {
	noise   balltrack.Noise
	rnd     *rand.Rand
	dropout float64
	radius  float64
}

// NewDetector creates new Detector from c.
// It returns error if any of the parameters is out of range.
func NewDetector(c DetectorConfig) (*Detector, error) {
	if c.Noise < 0 {
		return nil, fmt.Errorf("invalid measurement noise: %f", c.Noise)
	}

	if c.Dropout < 0 || c.Dropout >= 1 {
		return nil, fmt.Errorf("invalid dropout probability: %f", c.Dropout)
	}

	if c.Radius <= 0 {
		return nil, fmt.Errorf("invalid ball radius: %f", c.Radius)
	}

	var n balltrack.Noise
	var err error
	if c.Noise == 0 {
		n, err = noise.NewZero(2)
	} else {
		cov := mat.NewSymDense(2, []float64{c.Noise * c.Noise, 0, 0, c.Noise * c.Noise})
		n, err = noise.NewGaussianWithSeed([]float64{0, 0}, cov, c.Seed)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create measurement noise: %w", err)
	}

	seed := c.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Detector{
		noise:   n,
		rnd:     rand.New(rand.NewSource(seed + 1)),
		dropout: c.Dropout,
		radius:  c.Radius,
	}, nil
}

// Detect implements pipeline.Detector.
func (d *Detector) Detect(f Frame) (pipeline.Detection, bool, error) {
	if !f.Visible() {
		return pipeline.Detection{}, false, nil
	}

	if d.dropout > 0 && d.rnd.Float64() < d.dropout {
		return pipeline.Detection{}, false, nil
	}

	wn := d.noise.Sample()
	center := balltrack.Pt(f.Truth.X+wn.AtVec(0), f.Truth.Y+wn.AtVec(1)).Image()

	r := int(math.Round(d.radius))
	box := image.Rect(center.X-r, center.Y-r, center.X+r, center.Y+r)

	return pipeline.Detection{Center: center, Box: box, Confidence: 1}, true, nil
}
