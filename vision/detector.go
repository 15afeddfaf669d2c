package vision

import (
	"fmt"
	"image"

	"github.com/milosgajdos/go-balltrack/pipeline"
	"gocv.io/x/gocv"
)

// ColorDetector finds the largest blob within an HSV colour range.
type ColorDetector struct {
	lower   gocv.Scalar
	upper   gocv.Scalar
	minArea float64
	kernel  gocv.Mat
	hsv     gocv.Mat
	mask    gocv.Mat
}

// NewColorDetector creates new ColorDetector for colours between lower and upper,
// given as hue, saturation and value. Blobs not larger than minArea pixels are ignored.
// kernel is the side of the elliptic kernel used to clean the colour mask.
func NewColorDetector(lower, upper [3]float64, minArea float64, kernel int) (*ColorDetector, error) {
	for i := range lower {
		if lower[i] > upper[i] {
			return nil, fmt.Errorf("invalid hsv range: %v-%v", lower, upper)
		}
	}

	if kernel <= 0 {
		return nil, fmt.Errorf("invalid kernel size: %d", kernel)
	}

	return &ColorDetector{
		lower:   gocv.NewScalar(lower[0], lower[1], lower[2], 0),
		upper:   gocv.NewScalar(upper[0], upper[1], upper[2], 0),
		minArea: minArea,
		kernel:  gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(kernel, kernel)),
		hsv:     gocv.NewMat(),
		mask:    gocv.NewMat(),
	}, nil
}

// Detect implements pipeline.Detector for BGR frames.
func (d *ColorDetector) Detect(frame gocv.Mat) (pipeline.Detection, bool, error) {
	if frame.Empty() || frame.Channels() != 3 {
		return pipeline.Detection{}, false, fmt.Errorf("expected BGR frame, got %d channels", frame.Channels())
	}

	gocv.CvtColor(frame, &d.hsv, gocv.ColorBGRToHSV)
	gocv.InRangeWithScalar(d.hsv, d.lower, d.upper, &d.mask)

	gocv.MorphologyEx(d.mask, &d.mask, gocv.MorphClose, d.kernel)
	gocv.MorphologyEx(d.mask, &d.mask, gocv.MorphOpen, d.kernel)

	contours := gocv.FindContours(d.mask, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	best, bestArea := -1, 0.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); best < 0 || area > bestArea {
			best, bestArea = i, area
		}
	}

	if best < 0 || bestArea <= d.minArea {
		return pipeline.Detection{}, false, nil
	}

	box := gocv.BoundingRect(contours.At(best))
	center := image.Pt(box.Min.X+box.Dx()/2, box.Min.Y+box.Dy()/2)

	return pipeline.Detection{Center: center, Box: box, Confidence: 1}, true, nil
}

// Close releases the detector buffers.
func (d *ColorDetector) Close() error {
	d.kernel.Close()
	d.hsv.Close()
	return d.mask.Close()
}
