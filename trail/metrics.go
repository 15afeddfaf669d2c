package trail

import (
	"math"

	balltrack "github.com/milosgajdos/go-balltrack"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultWindow is the number of most recent pairs compared by Compute
	DefaultWindow = 5
	// DefaultTolerance is the per axis distance under which a prediction counts as accurate
	DefaultTolerance = 10.0
)

// Metrics measures how closely the predicted trail follows the actual one.
type Metrics struct {
	// MSE is the mean squared euclidean distance between paired positions
	MSE float64
	// Accuracy is the percentage of pairs within tolerance on both axes
	Accuracy float64
}

// Compute compares the last DefaultWindow positions of actual and predicted.
func Compute(actual, predicted []balltrack.Point) (Metrics, bool) {
	return ComputeWindow(actual, predicted, DefaultWindow, DefaultTolerance)
}

// ComputeWindow compares the last window positions of actual and predicted.
// A pair is accurate when both |dx| and |dy| are at most tolerance.
// It returns false unless both trails hold more than window positions.
func ComputeWindow(actual, predicted []balltrack.Point, window int, tolerance float64) (Metrics, bool) {
	if window <= 0 || len(actual) <= window || len(predicted) <= window {
		return Metrics{}, false
	}

	actual = actual[len(actual)-window:]
	predicted = predicted[len(predicted)-window:]

	sq := make([]float64, window)
	dev := make([]float64, window)
	for i := range actual {
		d := actual[i].Sub(predicted[i])
		sq[i] = d.X*d.X + d.Y*d.Y
		dev[i] = math.Max(math.Abs(d.X), math.Abs(d.Y))
	}

	within := floats.Count(func(v float64) bool { return v <= tolerance }, dev)

	return Metrics{
		MSE:      stat.Mean(sq, nil),
		Accuracy: 100 * float64(within) / float64(window),
	}, true
}
