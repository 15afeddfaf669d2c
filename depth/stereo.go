package depth

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultDisparities is the default number of disparities searched by block matching
	DefaultDisparities = 80
	// DefaultBlockSize is the default side of the matched block in pixels
	DefaultBlockSize = 15
	// MinDisparity replaces non-positive disparities when computing depth
	MinDisparity = 0.1
)

// Stereo computes depth from a rectified pair of grayscale images.
type Stereo struct {
	baseline    float64
	focal       float64
	disparities int
	blockSize   int
}

// NewStereo creates new Stereo with the default block matching parameters.
// baseline is the distance between the cameras and focal is the focal length in pixels.
// It returns ErrInvalidParam if baseline or focal is not positive.
func NewStereo(baseline, focal float64) (*Stereo, error) {
	return NewStereoWithParams(baseline, focal, DefaultDisparities, DefaultBlockSize)
}

// NewStereoWithParams creates new Stereo searching disparities in [0, disparities)
// with square blocks of side blockSize. blockSize must be odd.
func NewStereoWithParams(baseline, focal float64, disparities, blockSize int) (*Stereo, error) {
	if baseline <= 0 {
		return nil, fmt.Errorf("%w: baseline %f", ErrInvalidParam, baseline)
	}

	if focal <= 0 {
		return nil, fmt.Errorf("%w: focal length %f", ErrInvalidParam, focal)
	}

	if disparities <= 0 {
		return nil, fmt.Errorf("%w: disparities %d", ErrInvalidParam, disparities)
	}

	if blockSize <= 0 || blockSize%2 == 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidParam, blockSize)
	}

	return &Stereo{
		baseline:    baseline,
		focal:       focal,
		disparities: disparities,
		blockSize:   blockSize,
	}, nil
}

// Disparity computes the disparity of every left image pixel by sum of absolute
// differences block matching against the right image.
// Pixels whose block does not fit into both images have zero disparity.
// It returns ErrShape if the images differ in size or are smaller than a block.
func (s *Stereo) Disparity(left, right *mat.Dense) (*mat.Dense, error) {
	rows, cols := left.Dims()
	if rr, rc := right.Dims(); rr != rows || rc != cols {
		return nil, fmt.Errorf("%w: left [%d x %d] right [%d x %d]", ErrShape, rows, cols, rr, rc)
	}

	if rows < s.blockSize || cols < s.blockSize {
		return nil, fmt.Errorf("%w: image [%d x %d] smaller than block %d", ErrShape, rows, cols, s.blockSize)
	}

	half := s.blockSize / 2
	disp := mat.NewDense(rows, cols, nil)

	best := make([]float64, rows*cols)
	for i := range best {
		best[i] = math.Inf(1)
	}

	// integral image of absolute differences for a single disparity
	w := cols + 1
	sum := make([]float64, (rows+1)*w)

	for d := 0; d < s.disparities && d+s.blockSize <= cols; d++ {
		for r := 0; r < rows; r++ {
			acc := 0.0
			for c := 0; c < cols; c++ {
				if c >= d {
					acc += math.Abs(left.At(r, c) - right.At(r, c-d))
				}
				sum[(r+1)*w+c+1] = sum[r*w+c+1] + acc
			}
		}

		for r := half; r < rows-half; r++ {
			r0, r1 := r-half, r+half+1
			for c := half + d; c < cols-half; c++ {
				c0, c1 := c-half, c+half+1
				cost := sum[r1*w+c1] - sum[r0*w+c1] - sum[r1*w+c0] + sum[r0*w+c0]
				if cost < best[r*cols+c] {
					best[r*cols+c] = cost
					disp.Set(r, c, float64(d))
				}
			}
		}
	}

	return disp, nil
}

// DepthMap converts disparity into depth: focal * baseline / disparity.
// Non-positive disparities are replaced with MinDisparity.
func (s *Stereo) DepthMap(disparity mat.Matrix) *mat.Dense {
	rows, cols := disparity.Dims()
	depth := mat.NewDense(rows, cols, nil)
	fb := s.focal * s.baseline

	depth.Apply(func(i, j int, v float64) float64 {
		if v <= 0 {
			v = MinDisparity
		}
		return fb / v
	}, disparity)

	return depth
}

// Depth computes the depth map of a stereo pair.
func (s *Stereo) Depth(left, right *mat.Dense) (*mat.Dense, error) {
	disp, err := s.Disparity(left, right)
	if err != nil {
		return nil, err
	}

	return s.DepthMap(disp), nil
}

// DistanceAt returns the depth at point p of the depth map.
// It returns ErrOutOfBounds if p falls outside of the map.
func DistanceAt(depth mat.Matrix, p image.Point) (float64, error) {
	rows, cols := depth.Dims()
	if p.X < 0 || p.Y < 0 || p.X >= cols || p.Y >= rows {
		return 0, fmt.Errorf("%w: %v not in [%d x %d]", ErrOutOfBounds, p, cols, rows)
	}

	return depth.At(p.Y, p.X), nil
}
