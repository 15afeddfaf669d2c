// Package depth estimates the distance of a detected ball from the camera
// either from its apparent size or from a stereo disparity map.
package depth

import "errors"

var (
	// ErrInvalidParam is returned when a camera parameter is out of range
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrShape is returned when the input images do not have the expected shape
	ErrShape = errors.New("invalid shape")
	// ErrOutOfBounds is returned when a query point falls outside of a depth map
	ErrOutOfBounds = errors.New("point out of bounds")
)
