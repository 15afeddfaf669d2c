package depth

import "fmt"

// Pinhole estimates distance from the apparent width of an object of known size.
type Pinhole struct {
	knownWidth float64
	focal      float64
}

// NewPinhole creates new Pinhole for an object knownWidth wide seen through a lens
// with focal length focal given in pixels.
// It returns ErrInvalidParam if knownWidth or focal is not positive.
func NewPinhole(knownWidth, focal float64) (*Pinhole, error) {
	if focal <= 0 {
		return nil, fmt.Errorf("%w: focal length %f", ErrInvalidParam, focal)
	}

	p, err := NewUncalibratedPinhole(knownWidth)
	if err != nil {
		return nil, err
	}
	p.focal = focal

	return p, nil
}

// NewUncalibratedPinhole creates new Pinhole with unknown focal length.
// Distance is unavailable until Calibrate is called.
func NewUncalibratedPinhole(knownWidth float64) (*Pinhole, error) {
	if knownWidth <= 0 {
		return nil, fmt.Errorf("%w: known width %f", ErrInvalidParam, knownWidth)
	}

	return &Pinhole{knownWidth: knownWidth}, nil
}

// Distance returns the distance of an object whose bounding box is width pixels wide.
// It returns false if width is not positive or the focal length is not calibrated.
func (p *Pinhole) Distance(width float64) (float64, bool) {
	if width <= 0 || p.focal <= 0 {
		return 0, false
	}

	return p.knownWidth * p.focal / width, true
}

// Calibrate derives the focal length from an object seen width pixels wide
// at knownDistance and stores it. It returns the new focal length.
func (p *Pinhole) Calibrate(knownDistance, width float64) (float64, error) {
	if knownDistance <= 0 {
		return 0, fmt.Errorf("%w: known distance %f", ErrInvalidParam, knownDistance)
	}

	if width <= 0 {
		return 0, fmt.Errorf("%w: bounding box width %f", ErrInvalidParam, width)
	}

	p.focal = width * knownDistance / p.knownWidth

	return p.focal, nil
}

// Focal returns the focal length in pixels. Zero means not calibrated.
func (p *Pinhole) Focal() float64 {
	return p.focal
}

// KnownWidth returns the real world width of the object.
func (p *Pinhole) KnownWidth() float64 {
	return p.knownWidth
}
