package vision

import (
	"context"
	"fmt"

	"github.com/milosgajdos/go-balltrack/depth"
	"github.com/milosgajdos/go-balltrack/pipeline"
	"gocv.io/x/gocv"
)

// StereoRanger ranges detections in the left camera frame using a depth map
// computed against the frame of a second, rectified right camera.
type StereoRanger struct {
	right  *Camera
	stereo *depth.Stereo
}

// NewStereoRanger creates new StereoRanger reading right frames from right.
func NewStereoRanger(right *Camera, stereo *depth.Stereo) *StereoRanger {
	return &StereoRanger{right: right, stereo: stereo}
}

// Range implements pipeline.Ranger.
func (s *StereoRanger) Range(left gocv.Mat, d pipeline.Detection) (float64, bool, error) {
	right, err := s.right.Frame(context.Background())
	if err != nil {
		return 0, false, fmt.Errorf("right camera: %w", err)
	}

	l, err := GrayMatrix(left)
	if err != nil {
		return 0, false, err
	}

	r, err := GrayMatrix(right)
	if err != nil {
		return 0, false, err
	}

	dm, err := s.stereo.Depth(l, r)
	if err != nil {
		return 0, false, err
	}

	dist, err := depth.DistanceAt(dm, d.Center)
	if err != nil {
		return 0, false, err
	}

	return dist, true, nil
}

// Close releases the right camera.
func (s *StereoRanger) Close() error {
	return s.right.Release()
}
