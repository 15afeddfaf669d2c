package pipeline

import "github.com/milosgajdos/go-balltrack/depth"

// PinholeRanger ranges detections by the width of their bounding box.
type PinholeRanger[F any] struct {
	Pinhole *depth.Pinhole
}

// Range implements Ranger.
func (r PinholeRanger[F]) Range(_ F, d Detection) (float64, bool, error) {
	dist, ok := r.Pinhole.Distance(float64(d.Box.Dx()))
	return dist, ok, nil
}
