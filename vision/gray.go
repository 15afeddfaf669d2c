package vision

import (
	"fmt"

	"github.com/milosgajdos/go-balltrack/depth"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// GrayMatrix converts an 8 bit BGR or grayscale image into a matrix of intensities.
// It returns depth.ErrShape for any other image type.
func GrayMatrix(img gocv.Mat) (*mat.Dense, error) {
	if img.Empty() {
		return nil, fmt.Errorf("%w: empty image", depth.ErrShape)
	}

	gray := img
	switch img.Type() {
	case gocv.MatTypeCV8UC1:
	case gocv.MatTypeCV8UC3:
		gray = gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	default:
		return nil, fmt.Errorf("%w: unsupported image type %v", depth.ErrShape, img.Type())
	}

	rows, cols := gray.Rows(), gray.Cols()
	m := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, float64(gray.GetUCharAt(r, c)))
		}
	}

	return m, nil
}
